// Package stats accumulates process-wide run statistics: outcome counts,
// failure-mode counts, and per-stage latency distributions. The accumulator
// serializes writes so worker-pool batch modes can share one instance.
package stats

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tryonware/stitch/internal/tryon"
)

// Run is the statistics accumulator for one batch run.
type Run struct {
	mu sync.Mutex

	runID     uuid.UUID
	startedAt time.Time

	processed  int
	accepted   int
	exhausted  int
	skipped    int
	unrecorded int

	generationFailures int
	evaluationFailures int

	acceptedByAttempt map[int]int
	exhaustedBuckets  map[int]int

	genLatencies  []time.Duration
	evalLatencies []time.Duration
}

// NewRun creates an accumulator stamped with a fresh run ID.
func NewRun() *Run {
	return &Run{
		runID:             uuid.New(),
		startedAt:         time.Now(),
		acceptedByAttempt: make(map[int]int),
		exhaustedBuckets:  make(map[int]int),
	}
}

// RunID returns the run's provenance identifier.
func (r *Run) RunID() uuid.UUID {
	return r.runID
}

// RecordResult folds one terminal LoopResult into the accumulator: outcome
// counts, adapter failure counts, the accepted-attempt distribution or
// exhausted buckets, and per-stage latencies. Attempts that never produced a
// stage (e.g. evaluation after a generation failure) contribute no latency
// sample for that stage.
func (r *Run) RecordResult(res *tryon.LoopResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processed++

	for _, attempt := range res.Attempts {
		switch attempt.Failure {
		case tryon.FailureGeneration:
			r.generationFailures++
		case tryon.FailureEvaluation:
			r.evaluationFailures++
		}

		if attempt.GenerationTime > 0 {
			r.genLatencies = append(r.genLatencies, attempt.GenerationTime)
		}
		if attempt.EvaluationTime > 0 {
			r.evalLatencies = append(r.evalLatencies, attempt.EvaluationTime)
		}
	}

	switch res.Outcome {
	case tryon.OutcomeAccepted:
		r.accepted++
		if w := res.Winning(); w != nil {
			r.acceptedByAttempt[w.Index]++
		}
	case tryon.OutcomeExhausted:
		r.exhausted++
		for _, attempt := range res.Attempts {
			r.exhaustedBuckets[attempt.Index]++
		}
	}
}

// RecordSkip counts a pair the sample source dropped before the loop.
func (r *Run) RecordSkip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

// RecordUnrecorded counts a pair whose outcome could not be persisted, so
// dataset completeness can be audited.
func (r *Run) RecordUnrecorded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unrecorded++
}

// LatencySummary aggregates one stage's latency distribution.
type LatencySummary struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
}

// Summary is the end-of-run report.
type Summary struct {
	RunID              uuid.UUID      `json:"run_id"`
	Elapsed            time.Duration  `json:"elapsed"`
	Processed          int            `json:"processed"`
	Accepted           int            `json:"accepted"`
	Exhausted          int            `json:"exhausted"`
	Skipped            int            `json:"skipped"`
	Unrecorded         int            `json:"unrecorded"`
	GenerationFailures int            `json:"generation_failures"`
	EvaluationFailures int            `json:"evaluation_failures"`
	AcceptedByAttempt  map[int]int    `json:"accepted_by_attempt"`
	ExhaustedBuckets   map[int]int    `json:"exhausted_buckets"`
	Generation         LatencySummary `json:"generation"`
	Evaluation         LatencySummary `json:"evaluation"`
}

// Summarize snapshots the accumulator into a Summary.
func (r *Run) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		RunID:              r.runID,
		Elapsed:            time.Since(r.startedAt),
		Processed:          r.processed,
		Accepted:           r.accepted,
		Exhausted:          r.exhausted,
		Skipped:            r.skipped,
		Unrecorded:         r.unrecorded,
		GenerationFailures: r.generationFailures,
		EvaluationFailures: r.evaluationFailures,
		AcceptedByAttempt:  make(map[int]int, len(r.acceptedByAttempt)),
		ExhaustedBuckets:   make(map[int]int, len(r.exhaustedBuckets)),
		Generation:         summarize(r.genLatencies),
		Evaluation:         summarize(r.evalLatencies),
	}

	for k, v := range r.acceptedByAttempt {
		s.AcceptedByAttempt[k] = v
	}
	for k, v := range r.exhaustedBuckets {
		s.ExhaustedBuckets[k] = v
	}

	return s
}

func summarize(latencies []time.Duration) LatencySummary {
	if len(latencies) == 0 {
		return LatencySummary{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return LatencySummary{
		Count: len(sorted),
		Mean:  total / time.Duration(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
	}
}

// percentile uses the nearest-rank method over an ascending-sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
