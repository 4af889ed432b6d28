// Package battle segments a room's hit stream into discrete battles.
//
// Snowball fights are bursty, so battles are found by gap-based temporal
// clustering: consecutive hits closer together than a gap threshold
// belong to the same battle, and clusters below a minimum hit count are
// background noise and discarded. A fixed-window bucketing would split
// or merge real engagements; comparing each event only to its
// predecessor is sufficient because events are sorted and battles are
// contiguous in time.
package battle

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/snowlog/internal/domain/model"
)

// Default segmentation thresholds.
const (
	// DefaultMinHits is the smallest cluster emitted as a battle.
	DefaultMinHits = 30

	// DefaultMaxGapSeconds is the largest silence between consecutive
	// hits of the same battle.
	DefaultMaxGapSeconds = 120

	topListSize      = 3
	secondsPerMinute = 60
)

// ParticipantStat holds one user's contribution to a battle.
type ParticipantStat struct {
	User      string  `json:"user"`
	Attacks   int     `json:"attacks"`
	HitsTaken int     `json:"hits_taken"`
	Ratio     float64 `json:"ratio"`
}

// Battle is a derived, immutable record of one detected engagement.
// Start and End keep the naive local timestamp strings of the first and
// last hit; ids are assigned per room during the forward sweep, before
// the final sort.
type Battle struct {
	ID              string            `json:"id"`
	Room            string            `json:"room"`
	Start           string            `json:"start"`
	End             string            `json:"end"`
	DurationMinutes int               `json:"duration_minutes"`
	HitCount        int               `json:"hit_count"`
	UniqueUsers     int               `json:"unique_users"`
	Participants    []ParticipantStat `json:"participants"`
	TopAttackers    []ParticipantStat `json:"top_attackers"`
	TopVictims      []ParticipantStat `json:"top_victims"`

	startAt time.Time
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithMinHits sets the minimum cluster size emitted as a battle.
func WithMinHits(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.minHits = n
		}
	}
}

// WithMaxGapSeconds sets the largest intra-battle gap in seconds.
func WithMaxGapSeconds(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxGap = time.Duration(n) * time.Second
		}
	}
}

// Detector clusters hit events into battles. Stateless across calls.
type Detector struct {
	minHits int
	maxGap  time.Duration
}

// New creates a battle detector with configuration options.
func New(opts ...Option) *Detector {
	d := &Detector{
		minHits: DefaultMinHits,
		maxGap:  DefaultMaxGapSeconds * time.Second,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// timedEvent pairs an event with its parsed timestamp.
type timedEvent struct {
	ev model.HitEvent
	at time.Time
}

// Detect segments events into battles, sorted by start time descending
// across all rooms. Events whose timestamp fails to parse are dropped
// from consideration; rooms with no valid events produce no battles.
// Detect never fails for any input.
func (d *Detector) Detect(events []model.HitEvent) []Battle {
	rooms, order := partitionByRoom(events)

	battles := []Battle{}
	for _, room := range order {
		evs := rooms[room]

		// Sort ascending by parsed time; stable so that equal
		// timestamps keep log order.
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].at.Before(evs[j].at)
		})

		seq := 0
		cluster := []timedEvent{}
		flush := func() {
			if len(cluster) >= d.minHits {
				seq++
				battles = append(battles, d.build(room, seq, cluster))
			}
			cluster = cluster[:0]
		}

		for _, te := range evs {
			if len(cluster) > 0 {
				gap := te.at.Sub(cluster[len(cluster)-1].at)
				if gap > d.maxGap {
					flush()
				}
			}
			cluster = append(cluster, te)
		}
		flush()
	}

	sort.SliceStable(battles, func(i, j int) bool {
		return battles[i].startAt.After(battles[j].startAt)
	})
	return battles
}

// partitionByRoom groups valid events per room, preserving the order in
// which rooms first appear so the sweep is deterministic.
func partitionByRoom(events []model.HitEvent) (map[string][]timedEvent, []string) {
	rooms := make(map[string][]timedEvent)
	order := []string{}
	for _, ev := range events {
		at, ok := model.ParseTime(ev.Time)
		if !ok {
			continue
		}
		room := ev.Room()
		if _, seen := rooms[room]; !seen {
			order = append(order, room)
		}
		rooms[room] = append(rooms[room], timedEvent{ev: ev, at: at})
	}
	return rooms, order
}

// build computes the Battle record for one surviving cluster.
func (d *Detector) build(room string, seq int, cluster []timedEvent) Battle {
	first := cluster[0]
	last := cluster[len(cluster)-1]

	span := last.at.Sub(first.at)
	minutes := int(span.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	// One scan over the cluster; participant order is first appearance,
	// which also breaks ties in the top lists.
	byUser := make(map[string]*ParticipantStat)
	userOrder := []string{}
	touch := func(u string) *ParticipantStat {
		if u == "" {
			return nil
		}
		p, ok := byUser[u]
		if !ok {
			p = &ParticipantStat{User: u}
			byUser[u] = p
			userOrder = append(userOrder, u)
		}
		return p
	}
	for _, te := range cluster {
		if p := touch(te.ev.Attacker); p != nil {
			p.Attacks++
		}
		if p := touch(te.ev.Victim); p != nil {
			p.HitsTaken++
		}
	}

	participants := make([]ParticipantStat, 0, len(userOrder))
	for _, u := range userOrder {
		p := *byUser[u]
		p.Ratio = Ratio(p.Attacks, p.HitsTaken)
		participants = append(participants, p)
	}

	return Battle{
		ID:              fmt.Sprintf("%s-%d", room, seq),
		Room:            room,
		Start:           first.ev.Time,
		End:             last.ev.Time,
		DurationMinutes: minutes,
		HitCount:        len(cluster),
		UniqueUsers:     len(userOrder),
		Participants:    participants,
		TopAttackers:    topBy(participants, func(p ParticipantStat) int { return p.Attacks }),
		TopVictims:      topBy(participants, func(p ParticipantStat) int { return p.HitsTaken }),
		startAt:         first.at,
	}
}

// Ratio computes attacks per hit taken. Division by zero is defined,
// not an error: a user who was never hit keeps their raw attack count.
func Ratio(attacks, hitsTaken int) float64 {
	if hitsTaken == 0 {
		return float64(attacks)
	}
	return float64(attacks) / float64(hitsTaken)
}

// topBy returns the top entries by the given metric, descending, with
// ties broken by original participant order.
func topBy(participants []ParticipantStat, metric func(ParticipantStat) int) []ParticipantStat {
	ranked := make([]ParticipantStat, len(participants))
	copy(ranked, participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i]) > metric(ranked[j])
	})
	if len(ranked) > topListSize {
		ranked = ranked[:topListSize]
	}
	return ranked
}
