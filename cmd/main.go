package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/okian/snowlog/internal/app"
	"github.com/okian/snowlog/internal/config"
	"github.com/okian/snowlog/pkg/logger"
	"github.com/okian/snowlog/pkg/metrics"
)

// HTTP server timeout constants for the optional metrics endpoint.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optionally serve Prometheus metrics while the batch runs.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics server failed", logger.Error(err))
			}
		}()
	}

	seeds, err := config.LoadSeeds(ctx, cfg.SeedFile)
	if err != nil {
		log.Error(ctx, "failed to load seed teams", logger.Error(err))
		os.Exit(1)
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithMinHits(cfg.MinHits),
		app.WithMaxGapSeconds(cfg.MaxGapSeconds),
		app.WithContradictionRatio(cfg.ContradictionRatio),
		app.WithEvidenceSaturation(cfg.EvidenceSaturation),
		app.WithRowDedupe(cfg.DedupeRows),
		app.WithOutDir(cfg.OutDir),
	)

	run, err := svc.Run(ctx, cfg.InputCSV, seeds)
	if err != nil {
		log.Error(ctx, "analysis run failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "artifacts ready",
		logger.String("runID", run.RunID),
		logger.String("outDir", cfg.OutDir),
	)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}
