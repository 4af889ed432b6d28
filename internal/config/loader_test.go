package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/snowlog/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"SNOWLOG_CONFIG",
		"SNOWLOG_LOG_LEVEL",
		"SNOWLOG_INPUT_CSV",
		"SNOWLOG_SEED_FILE",
		"SNOWLOG_OUT_DIR",
		"SNOWLOG_MIN_HITS",
		"SNOWLOG_MAX_GAP_SECONDS",
		"SNOWLOG_CONTRADICTION_RATIO",
		"SNOWLOG_EVIDENCE_SATURATION",
		"SNOWLOG_DEDUPE_ROWS",
		"SNOWLOG_METRICS_ADDR",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.InputCSV, convey.ShouldEqual, "hits.csv")
				convey.So(cfg.OutDir, convey.ShouldEqual, "out")
				convey.So(cfg.MinHits, convey.ShouldEqual, 30)
				convey.So(cfg.MaxGapSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.ContradictionRatio, convey.ShouldEqual, 2.0)
				convey.So(cfg.EvidenceSaturation, convey.ShouldEqual, 20.0)
				convey.So(cfg.DedupeRows, convey.ShouldBeFalse)
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SNOWLOG_INPUT_CSV", "fight.csv")
			_ = os.Setenv("SNOWLOG_MIN_HITS", "10")
			_ = os.Setenv("SNOWLOG_MAX_GAP_SECONDS", "60")
			_ = os.Setenv("SNOWLOG_DEDUPE_ROWS", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputCSV, convey.ShouldEqual, "fight.csv")
				convey.So(cfg.MinHits, convey.ShouldEqual, 10)
				convey.So(cfg.MaxGapSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.DedupeRows, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "snowlog.yaml")
			raw := "input_csv: december.csv\nmin_hits: 15\nout_dir: artifacts\n"
			convey.So(os.WriteFile(path, []byte(raw), 0600), convey.ShouldBeNil)
			_ = os.Setenv("SNOWLOG_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values layer over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputCSV, convey.ShouldEqual, "december.csv")
				convey.So(cfg.MinHits, convey.ShouldEqual, 15)
				convey.So(cfg.OutDir, convey.ShouldEqual, "artifacts")
				convey.So(cfg.MaxGapSeconds, convey.ShouldEqual, 120)
			})

			convey.Convey("And env vars still win over the file", func() {
				_ = os.Setenv("SNOWLOG_MIN_HITS", "5")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MinHits, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("SNOWLOG_MIN_HITS", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then a typed validation error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
