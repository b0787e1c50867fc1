package build

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"micromeda/internal/graph"
	"micromeda/internal/metrics"
	"micromeda/internal/results"
	"micromeda/internal/store"
)

type MergeOptions struct {
	Logger  *zap.Logger
	Metrics *metrics.Run
}

// Merge loads every input store, binds it to g and writes the union of
// their caches to out. Stores without samples are skipped; at least two
// non-empty inputs are required.
func Merge(ctx context.Context, g *graph.Graph, inputs []store.Store, out store.Store, opts MergeOptions) (*results.Aggregator, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: got %d", results.ErrTooFewInputs, len(inputs))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	loaded := make([]*results.Aggregator, len(inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		group.Go(func() error {
			a, err := input.Load(groupCtx)
			if errors.Is(err, store.ErrEmpty) {
				logger.Warn("skipping empty input store", zap.Int("input", i+1))
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading input %d: %w", i+1, err)
			}
			bound, err := a.Bind(g)
			if err != nil {
				return fmt.Errorf("input %d: %w", i+1, err)
			}
			loaded[i] = bound
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged, err := results.Merge(loaded...)
	if err != nil {
		return nil, err
	}
	if opts.Metrics != nil {
		opts.Metrics.ObserveMerge(merged.Len())
	}

	if err := save(ctx, out, merged); err != nil {
		return nil, err
	}
	logger.Info("merge complete",
		zap.Int("inputs", len(inputs)),
		zap.Int("samples", merged.Len()),
		zap.Bool("with_matches", merged.HasMatches()),
	)
	return merged, nil
}
