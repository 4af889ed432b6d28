package model_test

import (
	"testing"

	"github.com/okian/snowlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTeam(t *testing.T) {
	Convey("Given the two-faction model", t, func() {
		Convey("Then opposites flip between the real factions", func() {
			So(model.TeamPenguin.Opposite(), ShouldEqual, model.TeamReindeer)
			So(model.TeamReindeer.Opposite(), ShouldEqual, model.TeamPenguin)
		})

		Convey("Then Unknown has no opposite", func() {
			So(model.TeamUnknown.Opposite(), ShouldEqual, model.TeamUnknown)
		})

		Convey("Then ParseTeam accepts only the real factions", func() {
			team, ok := model.ParseTeam("Penguin")
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, model.TeamPenguin)

			team, ok = model.ParseTeam("Walrus")
			So(ok, ShouldBeFalse)
			So(team, ShouldEqual, model.TeamUnknown)

			_, ok = model.ParseTeam("")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestHitEvent_Room(t *testing.T) {
	Convey("Given events with varying room fields", t, func() {
		Convey("Then the room name wins when present", func() {
			ev := model.HitEvent{RoomID: "r-1", RoomName: "Lobby"}
			So(ev.Room(), ShouldEqual, "Lobby")
		})

		Convey("Then the room id is the fallback", func() {
			ev := model.HitEvent{RoomID: "r-1"}
			So(ev.Room(), ShouldEqual, "r-1")
		})

		Convey("Then Unknown is the last resort", func() {
			So(model.HitEvent{}.Room(), ShouldEqual, "Unknown")
		})
	})
}

func TestParseTime(t *testing.T) {
	Convey("Given naive local timestamps", t, func() {
		Convey("Then a full six-component timestamp parses", func() {
			ts, ok := model.ParseTime("2024-12-20 18:30:45")
			So(ok, ShouldBeTrue)
			So(ts.Hour(), ShouldEqual, 18)
			So(ts.Second(), ShouldEqual, 45)
		})

		Convey("Then partial or malformed timestamps are rejected", func() {
			for _, bad := range []string{
				"",
				"2024-12-20",
				"2024-12-20 18:30",
				"18:30:45",
				"2024-13-40 18:30:45",
				"yesterday",
			} {
				_, ok := model.ParseTime(bad)
				So(ok, ShouldBeFalse)
			}
		})
	})
}
