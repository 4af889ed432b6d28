package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SNOWLOG_CONFIG is set
//  3. env (prefix SNOWLOG_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SNOWLOG_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SNOWLOG_INPUT_CSV, SNOWLOG_MIN_HITS, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("SNOWLOG_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "snowlog_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.InputCSV == "":
		return fmt.Errorf("%w: input_csv must not be empty", ErrInvalidConfig)
	case c.OutDir == "":
		return fmt.Errorf("%w: out_dir must not be empty", ErrInvalidConfig)
	case c.MinHits <= 0:
		return fmt.Errorf("%w: min_hits must be positive", ErrInvalidConfig)
	case c.MaxGapSeconds <= 0:
		return fmt.Errorf("%w: max_gap_seconds must be positive", ErrInvalidConfig)
	case c.ContradictionRatio <= 0:
		return fmt.Errorf("%w: contradiction_ratio must be positive", ErrInvalidConfig)
	case c.EvidenceSaturation <= 0:
		return fmt.Errorf("%w: evidence_saturation must be positive", ErrInvalidConfig)
	}
	return nil
}
