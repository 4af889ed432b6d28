// Package genlog generates synthetic snowball-fight hit logs: bursty
// per-room battles between two ground-truth teams, useful for demo
// fixtures and for exercising the analysis pipeline end to end.
package genlog

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/snowlog/internal/domain/model"
)

// Default generation parameters.
const (
	defaultRooms          = 3
	defaultUsersPerTeam   = 8
	defaultBattlesPerRoom = 4
	defaultHitsPerBattle  = 60
	defaultHitGapSeconds  = 20
	defaultLullMinutes    = 30
	defaultSeed           = 42
	defaultSeedFraction   = 0.25
	maxHitValue           = 10
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithRooms sets the number of rooms.
func WithRooms(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.rooms = n
		}
	}
}

// WithUsersPerTeam sets the roster size of each team.
func WithUsersPerTeam(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.usersPerTeam = n
		}
	}
}

// WithBattlesPerRoom sets how many battles each room hosts.
func WithBattlesPerRoom(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.battlesPerRoom = n
		}
	}
}

// WithHitsPerBattle sets the hit count of each generated battle.
func WithHitsPerBattle(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.hitsPerBattle = n
		}
	}
}

// WithSeed sets the RNG seed for reproducible fixtures.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithSeedFraction sets the fraction of users exposed as seed teams.
func WithSeedFraction(f float64) Option {
	return func(g *Generator) {
		if f > 0 && f <= 1 {
			g.seedFraction = f
		}
	}
}

// Generator produces synthetic hit logs.
type Generator struct {
	rooms          int
	usersPerTeam   int
	battlesPerRoom int
	hitsPerBattle  int
	hitGap         time.Duration
	lull           time.Duration
	seed           int64
	seedFraction   float64
}

// New creates a Generator with configuration options.
func New(opts ...Option) *Generator {
	g := &Generator{
		rooms:          defaultRooms,
		usersPerTeam:   defaultUsersPerTeam,
		battlesPerRoom: defaultBattlesPerRoom,
		hitsPerBattle:  defaultHitsPerBattle,
		hitGap:         defaultHitGapSeconds * time.Second,
		lull:           defaultLullMinutes * time.Minute,
		seed:           defaultSeed,
		seedFraction:   defaultSeedFraction,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Output bundles the generated events with the ground truth behind them.
type Output struct {
	Events []model.HitEvent
	Truth  map[string]model.Team // every user's real team
	Seeds  map[string]model.Team // the fraction exposed as seeds
}

// Generate produces the synthetic log. Within a battle, hits alternate
// between the two teams at a fixed cadence well inside the default gap
// threshold; battles are separated by lulls well outside it.
func (g *Generator) Generate() Output {
	rng := rand.New(rand.NewSource(g.seed)) //nolint:gosec // deterministic fixtures by design

	penguins := g.roster(rng, "pen")
	reindeer := g.roster(rng, "rei")

	truth := make(map[string]model.Team, g.usersPerTeam*2)
	for _, u := range penguins {
		truth[u] = model.TeamPenguin
	}
	for _, u := range reindeer {
		truth[u] = model.TeamReindeer
	}

	out := Output{
		Truth: truth,
		Seeds: make(map[string]model.Team),
	}

	// Expose a deterministic prefix of each roster as seeds.
	seedCount := int(float64(g.usersPerTeam) * g.seedFraction)
	if seedCount == 0 {
		seedCount = 1
	}
	for i := 0; i < seedCount; i++ {
		out.Seeds[penguins[i]] = model.TeamPenguin
		out.Seeds[reindeer[i]] = model.TeamReindeer
	}

	at := time.Date(2024, time.December, 20, 18, 0, 0, 0, time.Local)
	for room := 0; room < g.rooms; room++ {
		roomID := uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(room)}).String()
		roomName := []string{"Lobby", "Summit", "Glacier", "Village", "Forts"}[room%5]

		for b := 0; b < g.battlesPerRoom; b++ {
			for h := 0; h < g.hitsPerBattle; h++ {
				attackers, victims := penguins, reindeer
				if h%2 == 1 {
					attackers, victims = reindeer, penguins
				}
				out.Events = append(out.Events, model.HitEvent{
					Time:     at.Format(model.TimeLayout),
					Attacker: attackers[rng.Intn(len(attackers))],
					Victim:   victims[rng.Intn(len(victims))],
					RoomID:   roomID,
					RoomName: roomName,
					Value:    float64(1 + rng.Intn(maxHitValue)),
				})
				at = at.Add(g.hitGap)
			}
			at = at.Add(g.lull)
		}
	}
	return out
}

func (g *Generator) roster(rng *rand.Rand, prefix string) []string {
	users := make([]string, g.usersPerTeam)
	for i := range users {
		raw := make([]byte, 16)
		rng.Read(raw)
		users[i] = prefix + "-" + uuid.NewSHA1(uuid.NameSpaceOID, raw).String()[:8]
	}
	return users
}
