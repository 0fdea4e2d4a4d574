// Package sink writes the pipeline's output dataset. Every file lands
// atomically: content goes to a staging file first and is renamed into
// place, so a crashed run never leaves a half-written dataset behind.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/domain/aggregate"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/types"
	"github.com/ivasko/courtline/pkg/logger"
)

// Output file names inside the output directory.
const (
	PeopleFile     = "people.json"
	StatesFile     = "states.json"
	ReportFile     = "report.json"
	SummaryFile    = "summary.json"
	MergeLogFile   = "merge_log.json"
	QuarantineFile = "quarantine.json"
)

// Dataset is everything one run emits.
type Dataset struct {
	People     []model.Person
	States     []types.StateRow
	Report     *aggregate.Report
	Summary    types.RunSummary
	MergeLog   []model.MergeDecision
	Quarantine []model.QuarantinedRecord
}

// Writer persists datasets to a directory.
type Writer struct {
	dir string
	log logger.Logger
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithLogger sets the writer logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Writer) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWriter creates a writer for the given output directory.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Named("sink")
	}
	return w
}

// Write persists the full dataset. Quarantine and merge-log files are
// written even when empty so downstream consumers can rely on their
// presence.
func (w *Writer) Write(ctx context.Context, ds *Dataset) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	files := []struct {
		name string
		data any
	}{
		{PeopleFile, orEmpty(ds.People)},
		{StatesFile, orEmpty(ds.States)},
		{ReportFile, ds.Report},
		{SummaryFile, ds.Summary},
		{MergeLogFile, orEmpty(ds.MergeLog)},
		{QuarantineFile, orEmpty(ds.Quarantine)},
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeFile(f.name, f.data); err != nil {
			return err
		}
	}

	w.log.Info(ctx, "dataset written",
		logger.String("dir", w.dir),
		logger.Int("people", len(ds.People)),
		logger.Int("states", len(ds.States)),
		logger.Int("quarantined", len(ds.Quarantine)),
	)
	return nil
}

func (w *Writer) writeFile(name string, data any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, name, err)
	}

	path := filepath.Join(w.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, name, err)
	}
	return nil
}

// orEmpty keeps empty slices as [] rather than null in the output.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
