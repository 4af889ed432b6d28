package stats_test

import (
	"testing"

	"github.com/okian/snowlog/internal/domain/battle"
	"github.com/okian/snowlog/internal/domain/inference"
	"github.com/okian/snowlog/internal/domain/model"
	"github.com/okian/snowlog/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func events() []model.HitEvent {
	return []model.HitEvent{
		{Time: "2024-12-20 10:00:00", Attacker: "alice", Victim: "bob", RoomName: "Lobby"},
		{Time: "2024-12-20 10:00:10", Attacker: "alice", Victim: "carol", RoomName: "Lobby"},
		{Time: "2024-12-20 10:00:20", Attacker: "bob", Victim: "alice", RoomName: "Lobby"},
		{Time: "2024-12-20 11:00:00", Attacker: "alice", Victim: "bob", RoomName: "Summit"},
	}
}

func TestAggregate(t *testing.T) {
	Convey("Given a small event log", t, func() {
		summary := stats.Aggregate(events())

		Convey("Then per-user totals are correct", func() {
			So(summary.Users, ShouldHaveLength, 3)
			alice := summary.Users[0]
			So(alice.User, ShouldEqual, "alice")
			So(alice.Attacks, ShouldEqual, 3)
			So(alice.HitsTaken, ShouldEqual, 1)
			So(alice.Ratio, ShouldEqual, 3)
			So(alice.DistinctVictims, ShouldEqual, 2)
			So(alice.DistinctAttackers, ShouldEqual, 1)
			So(alice.Rooms, ShouldResemble, []string{"Lobby", "Summit"})
			So(alice.FirstSeen, ShouldEqual, "2024-12-20 10:00:00")
			So(alice.LastSeen, ShouldEqual, "2024-12-20 11:00:00")
		})

		Convey("Then a pure victim still gets a row", func() {
			carol := summary.Users[2]
			So(carol.User, ShouldEqual, "carol")
			So(carol.Attacks, ShouldEqual, 0)
			So(carol.HitsTaken, ShouldEqual, 1)
			So(carol.Ratio, ShouldEqual, 0)
		})

		Convey("Then rooms aggregate hits and unique users", func() {
			So(summary.Rooms, ShouldHaveLength, 2)
			lobby := summary.Rooms[0]
			So(lobby.Room, ShouldEqual, "Lobby")
			So(lobby.Hits, ShouldEqual, 3)
			So(lobby.UniqueUsers, ShouldEqual, 3)
			So(lobby.FirstEvent, ShouldEqual, "2024-12-20 10:00:00")
			So(lobby.LastEvent, ShouldEqual, "2024-12-20 10:00:20")
		})

		Convey("Then users default to Unknown before enrichment", func() {
			for _, u := range summary.Users {
				So(u.Team, ShouldEqual, model.TeamUnknown)
				So(u.Source, ShouldEqual, inference.SourceUnknown)
			}
		})
	})
}

func TestSummary_ApplyTeams(t *testing.T) {
	Convey("Given an aggregated summary and an inference result", t, func() {
		summary := stats.Aggregate(events())
		res := inference.New().Infer(events(), map[string]model.Team{
			"alice": model.TeamPenguin,
		})
		summary.ApplyTeams(res)

		Convey("Then user rows carry their team assignment", func() {
			byName := map[string]stats.UserStat{}
			for _, u := range summary.Users {
				byName[u.User] = u
			}
			So(byName["alice"].Team, ShouldEqual, model.TeamPenguin)
			So(byName["alice"].Confidence, ShouldEqual, 1.0)
			So(byName["bob"].Team, ShouldEqual, model.TeamReindeer)
			So(byName["bob"].Source, ShouldEqual, inference.SourceInferred)
			So(byName["carol"].Team, ShouldEqual, model.TeamReindeer)
		})

		Convey("Then team aggregates count members and hits", func() {
			So(summary.Teams, ShouldHaveLength, 3)
			So(summary.Teams[0].Team, ShouldEqual, model.TeamPenguin)
			So(summary.Teams[0].Members, ShouldEqual, 1)
			So(summary.Teams[0].Attacks, ShouldEqual, 3)
			So(summary.Teams[1].Team, ShouldEqual, model.TeamReindeer)
			So(summary.Teams[1].Members, ShouldEqual, 2)
			So(summary.Teams[2].Members, ShouldEqual, 0)
		})

		Convey("Then mean confidence covers only inferred members", func() {
			So(summary.Teams[1].MeanConfidence, ShouldBeGreaterThan, 0)
			So(summary.Teams[1].MeanConfidence, ShouldBeLessThanOrEqualTo, 1)
			So(summary.Teams[0].MeanConfidence, ShouldEqual, 0)
		})
	})
}

func TestSummary_ApplyBattles(t *testing.T) {
	Convey("Given a summary and detected battles", t, func() {
		summary := stats.Aggregate(events())
		detector := battle.New(battle.WithMinHits(2), battle.WithMaxGapSeconds(60))
		battles := detector.Detect(events())

		summary.ApplyBattles(battles)

		Convey("Then room rows carry their battle counts", func() {
			byRoom := map[string]stats.RoomStat{}
			for _, r := range summary.Rooms {
				byRoom[r.Room] = r
			}
			So(byRoom["Lobby"].Battles, ShouldEqual, 1)
			So(byRoom["Summit"].Battles, ShouldEqual, 0)
		})
	})
}

func TestSummary_SortUsersByAttacks(t *testing.T) {
	Convey("Given an aggregated summary", t, func() {
		summary := stats.Aggregate(events())
		summary.SortUsersByAttacks()

		Convey("Then users are ordered by attacks, ties by name", func() {
			So(summary.Users[0].User, ShouldEqual, "alice")
			So(summary.Users[1].User, ShouldEqual, "bob")
			So(summary.Users[2].User, ShouldEqual, "carol")
		})
	})
}
