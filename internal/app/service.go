// Package service wires the analysis pipeline: ingest, team inference,
// battle segmentation, aggregation, and artifact output.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/snowlog/internal/adapters/artifact"
	"github.com/okian/snowlog/internal/adapters/ingest"
	"github.com/okian/snowlog/internal/domain/battle"
	"github.com/okian/snowlog/internal/domain/inference"
	"github.com/okian/snowlog/internal/domain/model"
	"github.com/okian/snowlog/internal/domain/stats"
	"github.com/okian/snowlog/pkg/logger"
	"github.com/okian/snowlog/pkg/metrics"
)

// Service runs the batch analysis. Each Run consumes fresh inputs and
// produces fresh outputs; no state is retained between runs.
type Service struct {
	minHits            int
	maxGapSeconds      int
	contradictionRatio float64
	evidenceSaturation float64
	dedupeRows         bool
	outDir             string

	reader   *ingest.Reader
	engine   *inference.Engine
	detector *battle.Detector
	writer   *artifact.Writer

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMinHits sets the minimum battle size.
func WithMinHits(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minHits = n
		}
	}
}

// WithMaxGapSeconds sets the largest intra-battle gap.
func WithMaxGapSeconds(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGapSeconds = n
		}
	}
}

// WithContradictionRatio sets the self-contradiction vote threshold.
func WithContradictionRatio(ratio float64) Option {
	return func(s *Service) {
		if ratio > 0 {
			s.contradictionRatio = ratio
		}
	}
}

// WithEvidenceSaturation sets the confidence evidence-bonus saturation.
func WithEvidenceSaturation(total float64) Option {
	return func(s *Service) {
		if total > 0 {
			s.evidenceSaturation = total
		}
	}
}

// WithRowDedupe enables duplicate-row suppression during ingest.
func WithRowDedupe(enabled bool) Option {
	return func(s *Service) {
		s.dedupeRows = enabled
	}
}

// WithOutDir sets the artifact output directory.
func WithOutDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outDir = dir
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		minHits:            battle.DefaultMinHits,
		maxGapSeconds:      battle.DefaultMaxGapSeconds,
		contradictionRatio: inference.DefaultContradictionRatio,
		evidenceSaturation: inference.DefaultEvidenceSaturation,
		outDir:             "out",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.reader = ingest.New(
		ingest.WithRowDedupe(s.dedupeRows),
		ingest.WithLogger(s.logger),
	)
	s.engine = inference.New(
		inference.WithContradictionRatio(s.contradictionRatio),
		inference.WithEvidenceSaturation(s.evidenceSaturation),
	)
	s.detector = battle.New(
		battle.WithMinHits(s.minHits),
		battle.WithMaxGapSeconds(s.maxGapSeconds),
	)
	s.writer = artifact.New(s.outDir, artifact.WithLogger(s.logger))

	return s
}

// Run executes one batch: load the hit log, infer teams from the seeds,
// detect battles, aggregate stats and write all artifacts. The returned
// Run record mirrors what is written to run.json.
func (s *Service) Run(ctx context.Context, inputPath string, seeds map[string]model.Team) (artifact.Run, error) {
	started := time.Now()
	run := artifact.Run{
		RunID:         uuid.New().String(),
		GeneratedAt:   time.Now().Format(model.TimeLayout),
		Input:         inputPath,
		MinHits:       s.minHits,
		MaxGapSeconds: s.maxGapSeconds,
	}

	s.logger.Info(ctx, "starting analysis run",
		logger.String("runID", run.RunID),
		logger.String("input", inputPath),
		logger.Int("seeds", len(seeds)),
	)

	events, ingestStats, err := s.stageIngest(ctx, inputPath)
	if err != nil {
		return run, err
	}
	run.Ingest = ingestStats

	res := s.stageInference(ctx, events, seeds)
	bySource := res.CountBySource()
	run.SeededUsers = bySource[inference.SourceSeeded]
	run.InferredUsers = bySource[inference.SourceInferred]
	run.UnknownUsers = bySource[inference.SourceUnknown]
	run.Conflicts = len(res.Conflicts)

	battles := s.stageBattles(ctx, events)
	run.Battles = len(battles)

	summary := stats.Aggregate(events)
	summary.ApplyTeams(res)
	summary.ApplyBattles(battles)
	summary.SortUsersByAttacks()

	run.ElapsedMS = time.Since(started).Milliseconds()
	if err := s.writer.WriteAll(ctx, run, summary, res.Conflicts, battles); err != nil {
		return run, err
	}

	s.logger.Info(ctx, "analysis run complete",
		logger.String("runID", run.RunID),
		logger.Int("users", len(summary.Users)),
		logger.Int("battles", run.Battles),
		logger.Int("conflicts", run.Conflicts),
		logger.Duration("elapsed", time.Since(started)),
	)
	return run, nil
}

func (s *Service) stageIngest(ctx context.Context, inputPath string) ([]model.HitEvent, ingest.Stats, error) {
	started := time.Now()
	events, ingestStats, err := s.reader.ReadFile(ctx, inputPath)
	metrics.ObserveStageDuration("ingest", time.Since(started).Seconds())
	return events, ingestStats, err
}

func (s *Service) stageInference(ctx context.Context, events []model.HitEvent, seeds map[string]model.Team) inference.Result {
	started := time.Now()
	res := s.engine.Infer(events, seeds)
	metrics.ObserveStageDuration("inference", time.Since(started).Seconds())

	for source, count := range res.CountBySource() {
		metrics.SetUsersBySource(string(source), count)
	}
	for _, c := range res.Conflicts {
		metrics.RecordConflict(string(c.Kind))
	}

	s.logger.Info(ctx, "team inference complete",
		logger.Int("users", len(res.Teams)),
		logger.Int("conflicts", len(res.Conflicts)),
	)
	return res
}

func (s *Service) stageBattles(ctx context.Context, events []model.HitEvent) []battle.Battle {
	started := time.Now()
	battles := s.detector.Detect(events)
	metrics.ObserveStageDuration("battles", time.Since(started).Seconds())
	metrics.SetBattlesEmitted(len(battles))

	s.logger.Info(ctx, "battle detection complete",
		logger.Int("battles", len(battles)),
	)
	return battles
}
