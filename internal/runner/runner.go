// Package runner drives a batch run: it walks the sample source, executes
// the feedback loop for each pair, and records outcomes. Pairs are fully
// independent; the only shared state is the statistics accumulator and the
// sink, both of which serialize their own writes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tryonware/stitch/internal/samples"
	"github.com/tryonware/stitch/internal/sink"
	"github.com/tryonware/stitch/internal/stats"
	"github.com/tryonware/stitch/internal/tryon"
)

// Runner executes one batch over a source/controller/sink assembly.
type Runner struct {
	source     samples.Source
	controller *tryon.Controller
	sink       sink.Sink
	stats      *stats.Run
	workers    int
	logger     *slog.Logger
}

// New assembles a Runner. workers < 1 is treated as sequential.
func New(
	source samples.Source,
	controller *tryon.Controller,
	resultSink sink.Sink,
	run *stats.Run,
	workers int,
	logger *slog.Logger,
) *Runner {
	if workers < 1 {
		workers = 1
	}

	return &Runner{
		source:     source,
		controller: controller,
		sink:       resultSink,
		stats:      run,
		workers:    workers,
		logger:     logger.With("system", "runner"),
	}
}

// Run processes the batch and returns the end-of-run summary. Listing
// failure is the only fatal error: it means the backing store is
// unreachable, and it aborts before any pair is processed. Cancellation
// stops the batch before the next pair begins, never mid-attempt.
func (r *Runner) Run(ctx context.Context) (stats.Summary, error) {
	refs, err := r.source.List(ctx)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("list samples: %w", err)
	}

	r.logger.InfoContext(
		ctx, "batch starting",
		"run_id", r.stats.RunID(),
		"pairs", len(refs),
		"workers", r.workers,
	)

	if r.workers == 1 {
		for _, ref := range refs {
			if ctx.Err() != nil {
				r.logger.InfoContext(ctx, "batch cancelled", "pair", ref.Key)
				break
			}
			r.process(ctx, ref)
		}
		return r.stats.Summarize(), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, ref := range refs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r.process(gctx, ref)
			return nil
		})
	}

	// workers never return errors; pair failures are recorded, not fatal
	g.Wait()

	return r.stats.Summarize(), nil
}

// process runs one pair end to end. Every failure mode here is local to the
// pair: decode problems skip it, sink problems mark it unrecorded.
func (r *Runner) process(ctx context.Context, ref samples.PairRef) {
	pair, err := r.source.Resolve(ctx, ref)
	if err != nil {
		switch {
		case errors.Is(err, samples.ErrDecodeFailed), errors.Is(err, samples.ErrTooLarge):
			r.logger.WarnContext(ctx, "skipping pair", "pair", ref.Key, "error", err)
		default:
			r.logger.ErrorContext(ctx, "pair resolution failed", "pair", ref.Key, "error", err)
		}
		r.stats.RecordSkip()
		return
	}

	result := r.controller.Run(ctx, *pair)

	if err := r.sink.Record(ctx, r.stats.RunID(), &result); err != nil {
		r.logger.ErrorContext(
			ctx, "result not recorded",
			"pair", pair.Key,
			"error", err,
		)
		r.stats.RecordResult(&result)
		r.stats.RecordUnrecorded()
		return
	}

	r.stats.RecordResult(&result)
}
