// Package model contains domain models passed between layers.
package model

import "time"

// TimeLayout is the naive local timestamp format used throughout the hit
// logs. Timestamps carry no zone information and are never converted;
// all temporal comparisons happen in this local space.
const TimeLayout = "2006-01-02 15:04:05"

// Team identifies one of the two snowball-fight factions.
type Team string

// The two real factions plus the sentinel for users we could not place.
const (
	TeamPenguin  Team = "Penguin"
	TeamReindeer Team = "Reindeer"
	TeamUnknown  Team = "Unknown"
)

// Opposite returns the opposing faction. Unknown has no opposite.
func (t Team) Opposite() Team {
	switch t {
	case TeamPenguin:
		return TeamReindeer
	case TeamReindeer:
		return TeamPenguin
	default:
		return TeamUnknown
	}
}

// ParseTeam maps a raw team label to a Team. The second return value is
// false for anything that is not one of the two real factions.
func ParseTeam(s string) (Team, bool) {
	switch Team(s) {
	case TeamPenguin:
		return TeamPenguin, true
	case TeamReindeer:
		return TeamReindeer, true
	default:
		return TeamUnknown, false
	}
}

// HitEvent represents a single snowball hit parsed from the upstream log.
// Fields mirror the CSV columns; events are immutable once parsed.
type HitEvent struct {
	Time     string  // naive local timestamp, see TimeLayout
	Attacker string  // username of the thrower
	Victim   string  // username of the user hit
	RoomID   string  // room identifier
	RoomName string  // human-readable room name
	Value    float64 // hit value reported by the game
}

// Room returns the room label used for grouping: the room name when
// present, otherwise the room id, otherwise "Unknown".
func (e HitEvent) Room() string {
	if e.RoomName != "" {
		return e.RoomName
	}
	if e.RoomID != "" {
		return e.RoomID
	}
	return "Unknown"
}

// ParseTime parses a naive local timestamp. The second return value is
// false when the string does not contain all six numeric components of
// TimeLayout; such events are dropped by callers rather than reported.
func ParseTime(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
