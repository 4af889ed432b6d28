// Package artifact serializes analysis results to the JSON files the
// rendering layer consumes. Artifacts are regenerated wholesale on each
// run; nothing here is incremental.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/snowlog/internal/adapters/ingest"
	"github.com/okian/snowlog/internal/domain/battle"
	"github.com/okian/snowlog/internal/domain/inference"
	"github.com/okian/snowlog/internal/domain/stats"
	"github.com/okian/snowlog/pkg/logger"
)

// Artifact file names and permissions.
const (
	UsersFile     = "users.json"
	ConflictsFile = "team_conflicts.json"
	BattlesFile   = "battles.json"
	RoomsFile     = "rooms.json"
	TeamsFile     = "teams.json"
	RunFile       = "run.json"

	dirPermission  = 0750
	filePermission = 0600
)

// Sentinel error kinds for this package.
var (
	ErrCreateOutDir = errors.New("create output dir failed")
	ErrWriteFile    = errors.New("write artifact failed")
	ErrEncode       = errors.New("encode artifact failed")
)

// Run describes one batch invocation, written alongside the data
// artifacts so a consumer can tell which parameters produced them.
type Run struct {
	RunID         string       `json:"run_id"`
	GeneratedAt   string       `json:"generated_at"`
	Input         string       `json:"input"`
	Ingest        ingest.Stats `json:"ingest"`
	MinHits       int          `json:"min_hits"`
	MaxGapSeconds int          `json:"max_gap_seconds"`
	SeededUsers   int          `json:"seeded_users"`
	InferredUsers int          `json:"inferred_users"`
	UnknownUsers  int          `json:"unknown_users"`
	Conflicts     int          `json:"conflicts"`
	Battles       int          `json:"battles"`
	ElapsedMS     int64        `json:"elapsed_ms"`
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithIndent toggles pretty-printed output. On by default; the
// artifacts are small and diffed by humans.
func WithIndent(enabled bool) Option {
	return func(w *Writer) {
		w.indent = enabled
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(log logger.Logger) Option {
	return func(w *Writer) {
		if log != nil {
			w.logger = log
		}
	}
}

// Writer emits JSON artifacts into an output directory.
type Writer struct {
	outDir string
	indent bool
	logger logger.Logger
}

// New creates a Writer targeting outDir.
func New(outDir string, opts ...Option) *Writer {
	w := &Writer{
		outDir: outDir,
		indent: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get()
	}
	return w
}

// WriteAll writes every artifact for one run.
func (w *Writer) WriteAll(
	ctx context.Context,
	run Run,
	summary *stats.Summary,
	conflicts []inference.Conflict,
	battles []battle.Battle,
) error {
	if err := os.MkdirAll(w.outDir, dirPermission); err != nil {
		return fmt.Errorf("%w: %v", ErrCreateOutDir, err)
	}

	files := []struct {
		name string
		data any
	}{
		{UsersFile, summary.Users},
		{TeamsFile, summary.Teams},
		{RoomsFile, summary.Rooms},
		{ConflictsFile, conflicts},
		{BattlesFile, battles},
		{RunFile, run},
	}
	for _, f := range files {
		if err := w.writeJSON(f.name, f.data); err != nil {
			return err
		}
	}

	w.logger.Info(ctx, "artifacts written",
		logger.String("outDir", w.outDir),
		logger.Int("files", len(files)),
	)
	return nil
}

func (w *Writer) writeJSON(name string, data any) error {
	var (
		raw []byte
		err error
	)
	if w.indent {
		raw, err = json.MarshalIndent(data, "", "  ")
	} else {
		raw, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, name, err)
	}

	path := filepath.Join(w.outDir, name)
	if err := os.WriteFile(path, append(raw, '\n'), filePermission); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFile, name, err)
	}
	return nil
}
