// Package pipeline orchestrates the file-based extract-transform-load jobs:
// parse every raw file, consolidate the rows, validate ranges, and hand the
// unified table to one or more loaders.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mbouzas/arousa-etl/internal/domain"
	"github.com/mbouzas/arousa-etl/internal/observability"
)

// Parser turns one raw file into unified records and describes the schema it
// produces.
type Parser interface {
	Parse(ctx context.Context, path string) ([]domain.Record, error)
	Columns() []string
	Ranges() map[string]domain.Range
}

// Loader persists a consolidated batch of records.
type Loader interface {
	Name() string
	Load(ctx context.Context, recs []domain.Record, columns []string) error
}

// Job runs one unification pass over a set of raw files.
type Job struct {
	parser    Parser
	loaders   []Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	workers   int
	skippable func(error) bool
	ready     atomic.Bool
}

// NewJob creates a Job with the given stages and observability.
func NewJob(parser Parser, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Job {
	if workers < 1 {
		workers = 1
	}
	return &Job{
		parser:  parser,
		loaders: loaders,
		logger:  logger,
		metrics: metrics,
		workers: workers,
	}
}

// SetSkippable registers a predicate for parse errors that mark a file as not
// belonging to this job (logged, not counted as a failure).
func (j *Job) SetSkippable(fn func(error) bool) {
	j.skippable = fn
}

// CheckReadiness returns nil once the job has completed at least one pass.
func (j *Job) CheckReadiness(_ context.Context) error {
	if !j.ready.Load() {
		return errors.New("job has not completed a pass yet")
	}
	return nil
}

// Run parses all files (bounded parallelism), consolidates, validates, and
// loads. Per-file parse failures are logged and counted; the job only fails
// when no file yields records or a loader errors.
func (j *Job) Run(ctx context.Context, files []string) (*domain.QualityReport, error) {
	if len(files) == 0 {
		return nil, errors.New("no input files")
	}

	j.logger.Info("job started", "files", len(files), "workers", j.workers)
	j.metrics.JobRunning.Set(1)
	defer j.metrics.JobRunning.Set(0)
	start := time.Now()

	// Results are kept in input order so duplicate resolution (keep last)
	// stays deterministic across runs.
	results := make([][]domain.Record, len(files))
	var (
		mu      sync.Mutex
		failed  int
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for i, path := range files {
		g.Go(func() error {
			recs, err := j.parser.Parse(gctx, path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				defer mu.Unlock()
				if j.skippable != nil && j.skippable(err) {
					j.logger.Warn("skipping file", "path", path, "reason", err)
					skipped++
					return nil
				}
				j.logger.Error("parse failed", "path", path, "error", err)
				j.metrics.FileFailures.Inc()
				failed++
				return nil
			}
			j.metrics.FilesProcessed.Inc()
			j.metrics.RowsParsed.Add(float64(len(recs)))
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no records parsed from %d files (%d failed, %d skipped)",
			len(files), failed, skipped)
	}

	consolidated, removed := domain.Consolidate(all)
	if removed > 0 {
		j.logger.Warn("removed duplicate rows", "duplicates", removed)
		j.metrics.RowsDropped.Add(float64(removed))
	}

	violations := domain.CountOutOfRange(consolidated, j.parser.Ranges())
	for field, n := range violations {
		rng := j.parser.Ranges()[field]
		j.logger.Warn("values out of physical range",
			"field", field, "count", n, "min", rng.Min, "max", rng.Max)
		j.metrics.RangeViolations.WithLabelValues(field).Add(float64(n))
	}

	report := domain.BuildQualityReport(consolidated, j.parser.Columns())
	report.OutOfRange = violations
	report.Duplicates = removed
	report.FilesProcessed = len(files) - failed - skipped
	report.FilesFailed = failed

	for _, loader := range j.loaders {
		if err := loader.Load(ctx, consolidated, j.parser.Columns()); err != nil {
			return nil, fmt.Errorf("load (%s): %w", loader.Name(), err)
		}
		j.logger.Info("loaded unified records", "loader", loader.Name(), "rows", len(consolidated))
	}
	j.metrics.RowsWritten.Add(float64(len(consolidated)))

	j.metrics.JobDuration.Observe(time.Since(start).Seconds())
	j.ready.Store(true)
	j.logger.Info("job finished",
		"rows", len(consolidated),
		"files_failed", failed,
		"files_skipped", skipped,
		"duration", time.Since(start))

	return report, nil
}
