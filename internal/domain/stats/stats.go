// Package stats computes the per-user, per-team and per-room aggregates
// that back the dashboard tables. Aggregation is a single pass over the
// event list; team labels and battle counts are joined in afterwards
// from the inference and battle engines.
package stats

import (
	"sort"

	"github.com/okian/snowlog/internal/domain/battle"
	"github.com/okian/snowlog/internal/domain/inference"
	"github.com/okian/snowlog/internal/domain/model"
)

// UserStat aggregates one user's activity across the whole log,
// enriched with the inferred team assignment.
type UserStat struct {
	User              string   `json:"user"`
	Attacks           int      `json:"attacks"`
	HitsTaken         int      `json:"hits_taken"`
	Ratio             float64  `json:"ratio"`
	FirstSeen         string   `json:"first_seen"`
	LastSeen          string   `json:"last_seen"`
	Rooms             []string `json:"rooms"`
	DistinctVictims   int      `json:"distinct_victims"`
	DistinctAttackers int      `json:"distinct_attackers"`

	Team       model.Team       `json:"team"`
	Confidence float64          `json:"confidence"`
	Source     inference.Source `json:"source"`
}

// TeamStat aggregates one faction.
type TeamStat struct {
	Team           model.Team `json:"team"`
	Members        int        `json:"members"`
	Attacks        int        `json:"attacks"`
	HitsTaken      int        `json:"hits_taken"`
	MeanConfidence float64    `json:"mean_confidence"`
}

// RoomStat aggregates one room's activity.
type RoomStat struct {
	Room        string `json:"room"`
	Hits        int    `json:"hits"`
	UniqueUsers int    `json:"unique_users"`
	FirstEvent  string `json:"first_event"`
	LastEvent   string `json:"last_event"`
	Battles     int    `json:"battles"`
}

// Summary bundles all aggregates for one run.
type Summary struct {
	Users []UserStat `json:"users"`
	Teams []TeamStat `json:"teams"`
	Rooms []RoomStat `json:"rooms"`
}

type userAcc struct {
	stat      UserStat
	rooms     map[string]bool
	roomOrder []string
	victims   map[string]bool
	attackers map[string]bool
}

type roomAcc struct {
	stat  RoomStat
	users map[string]bool
}

// Aggregate builds the per-user and per-room aggregates from the event
// list. Events missing an attacker or victim still count toward the
// side that is present; fully empty events are skipped. Output slices
// are ordered by first appearance in the log.
func Aggregate(events []model.HitEvent) *Summary {
	users := make(map[string]*userAcc)
	userOrder := []string{}
	rooms := make(map[string]*roomAcc)
	roomOrder := []string{}

	user := func(name, at string) *userAcc {
		if name == "" {
			return nil
		}
		a, ok := users[name]
		if !ok {
			a = &userAcc{
				stat:      UserStat{User: name, FirstSeen: at},
				rooms:     make(map[string]bool),
				victims:   make(map[string]bool),
				attackers: make(map[string]bool),
			}
			users[name] = a
			userOrder = append(userOrder, name)
		}
		a.stat.LastSeen = at
		return a
	}

	for _, ev := range events {
		if ev.Attacker == "" && ev.Victim == "" {
			continue
		}

		room := ev.Room()
		r, ok := rooms[room]
		if !ok {
			r = &roomAcc{
				stat:  RoomStat{Room: room, FirstEvent: ev.Time},
				users: make(map[string]bool),
			}
			rooms[room] = r
			roomOrder = append(roomOrder, room)
		}
		r.stat.Hits++
		r.stat.LastEvent = ev.Time

		if a := user(ev.Attacker, ev.Time); a != nil {
			a.stat.Attacks++
			if ev.Victim != "" {
				a.victims[ev.Victim] = true
			}
			if !a.rooms[room] {
				a.rooms[room] = true
				a.roomOrder = append(a.roomOrder, room)
			}
			r.users[ev.Attacker] = true
		}
		if v := user(ev.Victim, ev.Time); v != nil {
			v.stat.HitsTaken++
			if ev.Attacker != "" {
				v.attackers[ev.Attacker] = true
			}
			if !v.rooms[room] {
				v.rooms[room] = true
				v.roomOrder = append(v.roomOrder, room)
			}
			r.users[ev.Victim] = true
		}
	}

	s := &Summary{Users: []UserStat{}, Teams: []TeamStat{}, Rooms: []RoomStat{}}
	for _, name := range userOrder {
		a := users[name]
		a.stat.Ratio = battle.Ratio(a.stat.Attacks, a.stat.HitsTaken)
		a.stat.Rooms = a.roomOrder
		a.stat.DistinctVictims = len(a.victims)
		a.stat.DistinctAttackers = len(a.attackers)
		a.stat.Team = model.TeamUnknown
		a.stat.Source = inference.SourceUnknown
		s.Users = append(s.Users, a.stat)
	}
	for _, name := range roomOrder {
		r := rooms[name]
		r.stat.UniqueUsers = len(r.users)
		s.Rooms = append(s.Rooms, r.stat)
	}
	return s
}

// ApplyTeams joins the inference output into the user rows and rebuilds
// the per-team aggregates.
func (s *Summary) ApplyTeams(res inference.Result) {
	type teamAcc struct {
		stat      TeamStat
		confSum   float64
		confCount int
	}
	teams := map[model.Team]*teamAcc{
		model.TeamPenguin:  {stat: TeamStat{Team: model.TeamPenguin}},
		model.TeamReindeer: {stat: TeamStat{Team: model.TeamReindeer}},
		model.TeamUnknown:  {stat: TeamStat{Team: model.TeamUnknown}},
	}

	for i := range s.Users {
		u := &s.Users[i]
		if team, ok := res.Teams[u.User]; ok {
			u.Team = team
			u.Confidence = res.Confidence[u.User]
			u.Source = res.Source[u.User]
		}

		acc := teams[u.Team]
		acc.stat.Members++
		acc.stat.Attacks += u.Attacks
		acc.stat.HitsTaken += u.HitsTaken
		if u.Source == inference.SourceInferred {
			acc.confSum += u.Confidence
			acc.confCount++
		}
	}

	s.Teams = s.Teams[:0]
	for _, team := range []model.Team{model.TeamPenguin, model.TeamReindeer, model.TeamUnknown} {
		acc := teams[team]
		if acc.confCount > 0 {
			acc.stat.MeanConfidence = acc.confSum / float64(acc.confCount)
		}
		s.Teams = append(s.Teams, acc.stat)
	}
}

// ApplyBattles joins battle counts into the room rows.
func (s *Summary) ApplyBattles(battles []battle.Battle) {
	counts := make(map[string]int)
	for _, b := range battles {
		counts[b.Room]++
	}
	for i := range s.Rooms {
		s.Rooms[i].Battles = counts[s.Rooms[i].Room]
	}
}

// SortUsersByAttacks orders the user table by attack count descending,
// ties by username, for stable artifact output.
func (s *Summary) SortUsersByAttacks() {
	sort.SliceStable(s.Users, func(i, j int) bool {
		if s.Users[i].Attacks != s.Users[j].Attacks {
			return s.Users[i].Attacks > s.Users[j].Attacks
		}
		return s.Users[i].User < s.Users[j].User
	})
}
