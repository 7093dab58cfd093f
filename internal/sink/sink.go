// Package sink persists terminal loop results into outcome-partitioned
// destinations: one "correct_try_on" bucket for accepted pairs and
// "incorrect_try_on_{n}" buckets for every failed attempt of exhausted
// pairs, mirroring the sample source's cohort partitioning so provenance is
// traceable back to the input pair.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tryonware/stitch/internal/tryon"
)

// Sink records terminal loop results. Writes are append-only and atomic at
// pair granularity; implementations must serialize concurrent writes.
type Sink interface {
	Record(ctx context.Context, runID uuid.UUID, result *tryon.LoopResult) error
}

// Metadata is the provenance sidecar written next to each persisted image.
type Metadata struct {
	RunID          uuid.UUID           `json:"run_id"`
	PairKey        string              `json:"pair_key"`
	Cohort         string              `json:"cohort"`
	Outcome        tryon.Outcome       `json:"outcome"`
	AttemptIndex   int                 `json:"attempt_index"`
	Instruction    string              `json:"instruction"`
	Failure        tryon.FailureReason `json:"failure,omitempty"`
	Verdict        *tryon.Verdict      `json:"verdict,omitempty"`
	GenerationTime time.Duration       `json:"generation_time"`
	EvaluationTime time.Duration       `json:"evaluation_time"`
	CreatedAt      time.Time           `json:"created_at"`
}

// record is one persistable (pair, attempt) artifact: a bucket-relative
// name, the image payload (nil for generation-failure attempts, which still
// get their metadata recorded), and the sidecar.
type record struct {
	bucket string
	name   string
	image  []byte
	meta   Metadata
}

const correctBucket = "correct_try_on"

func incorrectBucket(attemptIndex int) string {
	return fmt.Sprintf("incorrect_try_on_%d", attemptIndex)
}

// buildRecords flattens a LoopResult into its artifact set: the winning
// attempt for accepted results, every attempt for exhausted ones.
func buildRecords(runID uuid.UUID, result *tryon.LoopResult) []record {
	var records []record

	appendAttempt := func(bucket string, attempt *tryon.Attempt) {
		rec := record{
			bucket: bucket,
			name: fmt.Sprintf(
				"%s_%s_iter%d",
				result.Pair.Person.Name, result.Pair.Cloth.Name, attempt.Index,
			),
			meta: Metadata{
				RunID:          runID,
				PairKey:        result.Pair.Key,
				Cohort:         result.Pair.Cohort,
				Outcome:        result.Outcome,
				AttemptIndex:   attempt.Index,
				Instruction:    attempt.Instruction,
				Failure:        attempt.Failure,
				Verdict:        attempt.Verdict,
				GenerationTime: attempt.GenerationTime,
				EvaluationTime: attempt.EvaluationTime,
				CreatedAt:      time.Now(),
			},
		}
		if attempt.Image != nil {
			rec.image = attempt.Image.Data
		}
		records = append(records, rec)
	}

	switch result.Outcome {
	case tryon.OutcomeAccepted:
		if w := result.Winning(); w != nil {
			appendAttempt(correctBucket, w)
		}
	case tryon.OutcomeExhausted:
		for i := range result.Attempts {
			attempt := &result.Attempts[i]
			appendAttempt(incorrectBucket(attempt.Index), attempt)
		}
	}

	return records
}
