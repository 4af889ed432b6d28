// Command gen-events writes a synthetic hit-log CSV fixture plus the
// matching seed-team YAML, for demos and pipeline testing.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/snowlog/internal/genlog"
	"github.com/okian/snowlog/pkg/logger"
)

func main() {
	var (
		outCSV   = flag.String("out", "hits.csv", "output CSV path")
		outSeeds = flag.String("seeds", "seed_teams.yaml", "output seed-team YAML path")
		rooms    = flag.Int("rooms", 3, "number of rooms")
		users    = flag.Int("users", 8, "users per team")
		battles  = flag.Int("battles", 4, "battles per room")
		hits     = flag.Int("hits", 60, "hits per battle")
		seed     = flag.Int64("seed", 42, "RNG seed")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	ctx := context.Background()

	gen := genlog.New(
		genlog.WithRooms(*rooms),
		genlog.WithUsersPerTeam(*users),
		genlog.WithBattlesPerRoom(*battles),
		genlog.WithHitsPerBattle(*hits),
		genlog.WithSeed(*seed),
	)
	out := gen.Generate()

	if err := genlog.WriteCSV(out, *outCSV); err != nil {
		log.Error(ctx, "failed to write fixture CSV", logger.Error(err))
		os.Exit(1)
	}
	if err := genlog.WriteSeedsYAML(out, *outSeeds); err != nil {
		log.Error(ctx, "failed to write seed YAML", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "fixture written",
		logger.String("csv", *outCSV),
		logger.String("seeds", *outSeeds),
		logger.Int("events", len(out.Events)),
		logger.Int("seededUsers", len(out.Seeds)),
	)
}
