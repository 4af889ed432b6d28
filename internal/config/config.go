// Package config defines batch configuration structures and loading.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Layer optional YAML file and environment variables over defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/okian/snowlog/internal/domain/battle"
	"github.com/okian/snowlog/internal/domain/inference"
)

// Config contains process configuration for one batch run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputCSV is the path of the hit-log CSV export.
	InputCSV string `koanf:"input_csv"`

	// SeedFile is an optional YAML file mapping usernames to teams.
	SeedFile string `koanf:"seed_file"`

	// OutDir receives the JSON artifacts.
	OutDir string `koanf:"out_dir"`

	// MinHits is the smallest cluster emitted as a battle.
	MinHits int `koanf:"min_hits"`

	// MaxGapSeconds is the largest intra-battle gap.
	MaxGapSeconds int `koanf:"max_gap_seconds"`

	// ContradictionRatio is the vote imbalance flagging a
	// self-contradicting inference.
	ContradictionRatio float64 `koanf:"contradiction_ratio"`

	// EvidenceSaturation is the vote total saturating the confidence
	// evidence bonus.
	EvidenceSaturation float64 `koanf:"evidence_saturation"`

	// DedupeRows suppresses exact duplicate log rows during ingest.
	DedupeRows bool `koanf:"dedupe_rows"`

	// MetricsAddr serves Prometheus metrics while the batch runs,
	// e.g. ":9091". Empty disables the endpoint.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		InputCSV:           "hits.csv",
		SeedFile:           "",
		OutDir:             "out",
		MinHits:            battle.DefaultMinHits,
		MaxGapSeconds:      battle.DefaultMaxGapSeconds,
		ContradictionRatio: inference.DefaultContradictionRatio,
		EvidenceSaturation: inference.DefaultEvidenceSaturation,
		DedupeRows:         false,
		MetricsAddr:        "",
	}
}
