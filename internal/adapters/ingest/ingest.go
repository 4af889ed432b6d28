// Package ingest loads hit events from the upstream CSV export.
//
// The loader is deliberately forgiving: rows missing an attacker or a
// victim are dropped and counted, never surfaced as errors, so that a
// dirty export cannot fail the batch. Only an unreadable file or an
// unparseable CSV stream is an error.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/snowlog/internal/domain/model"
	"github.com/okian/snowlog/pkg/logger"
	"github.com/okian/snowlog/pkg/metrics"
)

// Sentinel error kinds for this package.
var (
	ErrOpenInput = errors.New("open input failed")
	ErrReadInput = errors.New("read input failed")
)

// Column names recognized in the header row. The first alias found wins.
var columnAliases = map[string][]string{
	"time":      {"time", "timestamp", "ts"},
	"attacker":  {"attacker", "from"},
	"victim":    {"victim", "to", "target"},
	"room_id":   {"room_id", "roomid"},
	"room_name": {"room_name", "roomname", "room"},
	"value":     {"value", "damage"},
}

// Default column positions used when the input has no header row.
var defaultColumns = map[string]int{
	"time": 0, "attacker": 1, "victim": 2, "room_id": 3, "room_name": 4, "value": 5,
}

// Stats reports what happened to the rows of one load.
type Stats struct {
	Rows             int `json:"rows"`
	Kept             int `json:"kept"`
	DroppedMissing   int `json:"dropped_missing"`
	DroppedDuplicate int `json:"dropped_duplicate"`
}

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithRowDedupe enables suppression of exact duplicate rows, keyed on
// time, attacker and victim. Re-exported logs frequently repeat rows.
func WithRowDedupe(enabled bool) Option {
	return func(r *Reader) {
		r.dedupe = enabled
	}
}

// WithLogger sets a custom logger for the reader.
func WithLogger(log logger.Logger) Option {
	return func(r *Reader) {
		if log != nil {
			r.logger = log
		}
	}
}

// Reader loads hit events from CSV input.
type Reader struct {
	dedupe bool
	logger logger.Logger
}

// New creates a Reader with configuration options.
func New(opts ...Option) *Reader {
	r := &Reader{}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r
}

// ReadFile loads hit events from the CSV file at path.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]model.HitEvent, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %v", ErrOpenInput, err)
	}
	defer f.Close()
	return r.Read(ctx, f)
}

// Read loads hit events from CSV input. A header row is detected by the
// presence of a recognized time column name; headerless input falls
// back to positional columns.
func (r *Reader) Read(ctx context.Context, src io.Reader) ([]model.HitEvent, Stats, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // row width varies across exporter versions
	cr.TrimLeadingSpace = true

	var stats Stats
	events := []model.HitEvent{}
	seen := make(map[string]bool)
	var cols map[string]int

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %v", ErrReadInput, err)
		}

		if cols == nil {
			cols = mapHeader(record)
			if cols != nil {
				continue // consumed the header row
			}
			cols = defaultColumns
		}

		stats.Rows++
		ev := rowToEvent(record, cols)
		if ev.Attacker == "" || ev.Victim == "" {
			stats.DroppedMissing++
			metrics.RecordRowDropped("missing_user")
			continue
		}
		if r.dedupe {
			key := ev.Time + "|" + ev.Attacker + "|" + ev.Victim
			if seen[key] {
				stats.DroppedDuplicate++
				metrics.RecordRowDuplicate()
				continue
			}
			seen[key] = true
		}
		stats.Kept++
		metrics.RecordRowRead()
		events = append(events, ev)
	}

	r.logger.Info(ctx, "hit log loaded",
		logger.Int("rows", stats.Rows),
		logger.Int("kept", stats.Kept),
		logger.Int("droppedMissing", stats.DroppedMissing),
		logger.Int("droppedDuplicate", stats.DroppedDuplicate),
	)
	return events, stats, nil
}

// mapHeader maps recognized column names to indices, or nil when the
// row does not look like a header.
func mapHeader(record []string) map[string]int {
	byName := make(map[string]int, len(record))
	for i, name := range record {
		byName[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := byName[alias]; ok {
				cols[field] = i
				break
			}
		}
	}

	if _, ok := cols["time"]; !ok {
		return nil
	}
	return cols
}

func rowToEvent(record []string, cols map[string]int) model.HitEvent {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	value, _ := strconv.ParseFloat(field("value"), 64)
	return model.HitEvent{
		Time:     field("time"),
		Attacker: field("attacker"),
		Victim:   field("victim"),
		RoomID:   field("room_id"),
		RoomName: field("room_name"),
		Value:    value,
	}
}
