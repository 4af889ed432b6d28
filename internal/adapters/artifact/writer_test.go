package artifact_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/snowlog/internal/adapters/artifact"
	"github.com/okian/snowlog/internal/domain/battle"
	"github.com/okian/snowlog/internal/domain/inference"
	"github.com/okian/snowlog/internal/domain/model"
	"github.com/okian/snowlog/internal/domain/stats"
	"github.com/okian/snowlog/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func sampleInputs() (*stats.Summary, []inference.Conflict, []battle.Battle) {
	events := []model.HitEvent{
		{Time: "2024-12-20 10:00:00", Attacker: "alice", Victim: "bob", RoomName: "Lobby"},
		{Time: "2024-12-20 10:00:10", Attacker: "bob", Victim: "alice", RoomName: "Lobby"},
	}
	summary := stats.Aggregate(events)
	res := inference.New().Infer(events, map[string]model.Team{"alice": model.TeamPenguin})
	summary.ApplyTeams(res)
	battles := battle.New(battle.WithMinHits(2)).Detect(events)
	summary.ApplyBattles(battles)
	return summary, res.Conflicts, battles
}

func TestWriter_WriteAll(t *testing.T) {
	Convey("Given a writer targeting a temp directory", t, func() {
		outDir := filepath.Join(t.TempDir(), "out")
		writer := artifact.New(outDir)
		summary, conflicts, battles := sampleInputs()
		run := artifact.Run{
			RunID:         "test-run",
			GeneratedAt:   "2024-12-20 12:00:00",
			Input:         "hits.csv",
			MinHits:       2,
			MaxGapSeconds: 120,
			Battles:       len(battles),
		}

		Convey("When writing all artifacts", func() {
			err := writer.WriteAll(context.Background(), run, summary, conflicts, battles)

			Convey("Then every artifact file exists", func() {
				So(err, ShouldBeNil)
				for _, name := range []string{
					artifact.UsersFile,
					artifact.TeamsFile,
					artifact.RoomsFile,
					artifact.ConflictsFile,
					artifact.BattlesFile,
					artifact.RunFile,
				} {
					_, statErr := os.Stat(filepath.Join(outDir, name))
					So(statErr, ShouldBeNil)
				}
			})

			Convey("And users.json round-trips with team enrichment", func() {
				raw, readErr := os.ReadFile(filepath.Join(outDir, artifact.UsersFile))
				So(readErr, ShouldBeNil)

				var users []stats.UserStat
				So(json.Unmarshal(raw, &users), ShouldBeNil)
				So(users, ShouldHaveLength, 2)
				So(users[0].User, ShouldEqual, "alice")
				So(users[0].Team, ShouldEqual, model.TeamPenguin)
				So(users[1].Team, ShouldEqual, model.TeamReindeer)
			})

			Convey("And run.json carries the run record", func() {
				raw, readErr := os.ReadFile(filepath.Join(outDir, artifact.RunFile))
				So(readErr, ShouldBeNil)

				var got artifact.Run
				So(json.Unmarshal(raw, &got), ShouldBeNil)
				So(got.RunID, ShouldEqual, "test-run")
				So(got.Battles, ShouldEqual, 1)
			})

			Convey("And an empty conflict list serializes as an array", func() {
				raw, readErr := os.ReadFile(filepath.Join(outDir, artifact.ConflictsFile))
				So(readErr, ShouldBeNil)
				So(string(raw), ShouldStartWith, "[")
			})
		})

		Convey("When writing twice", func() {
			So(writer.WriteAll(context.Background(), run, summary, conflicts, battles), ShouldBeNil)
			So(writer.WriteAll(context.Background(), run, summary, conflicts, battles), ShouldBeNil)

			Convey("Then artifacts are regenerated wholesale", func() {
				raw, readErr := os.ReadFile(filepath.Join(outDir, artifact.BattlesFile))
				So(readErr, ShouldBeNil)

				var got []battle.Battle
				So(json.Unmarshal(raw, &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, "Lobby-1")
			})
		})
	})
}
