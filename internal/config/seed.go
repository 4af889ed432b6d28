package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/snowlog/internal/domain/model"
	"github.com/okian/snowlog/pkg/logger"
)

// LoadSeeds reads the authoritative seed-team YAML file: a flat mapping
// of username to "Penguin" or "Reindeer". An empty path yields an empty
// seed map (inference then reports everyone as Unknown). Entries with an
// unrecognized team label are skipped with a warning, not treated as
// errors, matching the pipeline's tolerance for dirty input.
func LoadSeeds(ctx context.Context, path string) (map[string]model.Team, error) {
	seeds := make(map[string]model.Team)
	if path == "" {
		return seeds, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadSeeds, err)
	}

	log := logger.Get()
	for _, username := range k.Keys() {
		raw := k.String(username)
		team, ok := model.ParseTeam(raw)
		if !ok {
			log.Warn(ctx, "skipping seed entry with unknown team",
				logger.String("user", username),
				logger.String("team", raw),
			)
			continue
		}
		seeds[username] = team
	}
	return seeds, nil
}
