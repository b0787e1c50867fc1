package build

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
	"micromeda/internal/matcher"
	"micromeda/internal/metrics"
	"micromeda/internal/results"
	"micromeda/internal/store"
)

// ErrNoInputs is returned when a build is started without annotation files.
var ErrNoInputs = errors.New("no annotation files given")

type Options struct {
	// Annotations are InterProScan TSV files, one sample per file.
	Annotations []string
	// WithSequences keeps matches and attaches protein sequences from the
	// FASTA file found next to each annotation file.
	WithSequences bool
	Workers       int
	Policy        assign.Policy
	Logger        *zap.Logger
	Metrics       *metrics.Run
}

type Result struct {
	Samples     int
	Rows        int
	RowsSkipped int
	// Errors holds the recovered per-row parse errors, prefixed with the
	// file they came from.
	Errors     []error
	Aggregator *results.Aggregator
}

type sampleResult struct {
	path    string
	parsed  *matcher.Result
	cache   *assign.Cache
	elapsed time.Duration
}

// Run assigns every annotation file against g, one goroutine per sample
// bounded by Workers, and saves the combined results to db.
func Run(ctx context.Context, g *graph.Graph, db store.Store, opts Options) (*Result, error) {
	if len(opts.Annotations) == 0 {
		return nil, ErrNoInputs
	}
	logger := opts.logger()
	engine := assign.NewEngine(g, opts.Policy)

	samples := make([]sampleResult, len(opts.Annotations))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.workers())
	for i, path := range opts.Annotations {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			started := time.Now()
			parsed, err := parseSample(path, opts.WithSequences)
			if err != nil {
				return err
			}
			samples[i] = sampleResult{
				path:    path,
				parsed:  parsed,
				cache:   engine.Run(parsed.Sample, parsed.Set, opts.WithSequences),
				elapsed: time.Since(started),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Samples: len(samples)}
	caches := make([]*assign.Cache, 0, len(samples))
	for _, sample := range samples {
		result.Rows += sample.parsed.Rows
		result.RowsSkipped += len(sample.parsed.Skipped)
		for _, rowErr := range sample.parsed.Skipped {
			logger.Warn("skipped annotation row",
				zap.String("file", sample.path),
				zap.Int("line", rowErr.Line),
				zap.String("reason", rowErr.Reason),
			)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", sample.path, rowErr))
		}
		if opts.Metrics != nil {
			opts.Metrics.ObserveSample("build", sample.cache, len(sample.parsed.Skipped), sample.elapsed)
		}
		logger.Debug("assigned sample",
			zap.String("sample", sample.cache.Sample()),
			zap.Int("matches", sample.parsed.Set.Len()),
			zap.Duration("elapsed", sample.elapsed),
		)
		caches = append(caches, sample.cache)
	}

	aggregator, err := results.New(g, caches...)
	if err != nil {
		return nil, fmt.Errorf("collecting results: %w", err)
	}
	result.Aggregator = aggregator

	if err := save(ctx, db, aggregator); err != nil {
		return nil, err
	}
	logger.Info("build complete",
		zap.Int("samples", result.Samples),
		zap.Int("rows", result.Rows),
		zap.Int("rows_skipped", result.RowsSkipped),
		zap.Bool("with_matches", aggregator.HasMatches()),
	)
	return result, nil
}

func parseSample(path string, withSequences bool) (*matcher.Result, error) {
	if !withSequences {
		return matcher.ParseInterProScanFile(path)
	}
	fastaPath, err := matcher.SequencePathFor(path)
	if err != nil {
		return nil, err
	}
	return matcher.ParseWithSequences(path, fastaPath)
}

func save(ctx context.Context, db store.Store, a *results.Aggregator) error {
	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := db.Save(ctx, a); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
