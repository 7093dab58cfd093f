package tryon

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMaxIterations bounds worst-case latency and cost per sample.
// Bounding by attempt count rather than wall-clock keeps behavior
// deterministic and reproducible for dataset generation.
const DefaultMaxIterations = 4

// evaluationRecoveryFeedback drives revision when an attempt produced no
// interpretable verdict, so the retry still moves away from the failed prompt.
const evaluationRecoveryFeedback = "The previous attempt could not be assessed. " +
	"Regenerate the try-on with the exact garment structure, texture, and fit " +
	"of the reference cloth, preserving the person and scene."

// Options configures a Controller.
type Options struct {
	// MaxIterations caps generate+evaluate cycles per pair.
	// Zero selects DefaultMaxIterations.
	MaxIterations int
	// DefaultInstruction is the attempt-1 instruction, and the fallback
	// instruction after a generation failure.
	DefaultInstruction string
	// Reviser synthesizes retry instructions. Nil selects AppendReviser.
	Reviser Reviser
}

// Controller drives the generate → evaluate → (retry | accept) cycle for one
// SamplePair at a time. It owns iteration state and termination; pairs are
// fully independent, so one Controller may be shared across workers as long
// as its adapters are safe for concurrent use.
type Controller struct {
	generator  Generator
	evaluator  Evaluator
	reviser    Reviser
	maxIters   int
	defaultIns string
	logger     *slog.Logger
}

// NewController assembles a Controller over the given adapters.
func NewController(gen Generator, eval Evaluator, opts Options, logger *slog.Logger) *Controller {
	maxIters := opts.MaxIterations
	if maxIters <= 0 {
		maxIters = DefaultMaxIterations
	}

	reviser := opts.Reviser
	if reviser == nil {
		reviser = AppendReviser{}
	}

	return &Controller{
		generator:  gen,
		evaluator:  eval,
		reviser:    reviser,
		maxIters:   maxIters,
		defaultIns: opts.DefaultInstruction,
		logger:     logger.With("system", "controller"),
	}
}

// Run executes the feedback loop for a single pair and returns its terminal
// LoopResult: accepted on the first all-pass verdict, exhausted when the
// iteration cap is reached without one. Adapter failures consume an attempt
// but never abort the pair. Latency is measured by wall-clock deltas
// bracketing each adapter call separately.
func (c *Controller) Run(ctx context.Context, pair SamplePair) LoopResult {
	instruction := c.defaultIns
	attempts := make([]Attempt, 0, c.maxIters)
	var candidates []Image

	c.logger.InfoContext(
		ctx, "starting feedback loop",
		"pair", pair.Key,
		"max_iterations", c.maxIters,
	)

	for i := 1; i <= c.maxIters; i++ {
		attempt := Attempt{Index: i, Instruction: instruction}

		start := time.Now()
		image, err := c.generator.Generate(ctx, pair.Person, pair.Cloth, instruction)
		attempt.GenerationTime = time.Since(start)

		if err != nil {
			c.logger.WarnContext(
				ctx, "generation failed",
				"pair", pair.Key,
				"attempt", i,
				"error", err,
			)

			attempt.Failure = FailureGeneration
			attempts = append(attempts, attempt)

			// A prompt that crashed the generator is not worth refining.
			instruction = c.defaultIns
			continue
		}

		attempt.Image = &image
		candidates = append(candidates, image)

		start = time.Now()
		verdict, err := c.evaluator.Evaluate(ctx, pair.Person, pair.Cloth, i, candidates)
		attempt.EvaluationTime = time.Since(start)

		if err != nil {
			c.logger.WarnContext(
				ctx, "evaluation failed",
				"pair", pair.Key,
				"attempt", i,
				"error", err,
			)

			attempt.Failure = FailureEvaluation
			attempts = append(attempts, attempt)

			instruction = c.reviser.Revise(instruction, evaluationRecoveryFeedback)
			continue
		}

		attempt.Verdict = &verdict

		if attempt.Accepted() {
			attempts = append(attempts, attempt)

			c.logger.InfoContext(
				ctx, "try-on accepted",
				"pair", pair.Key,
				"attempt", i,
			)

			return LoopResult{Pair: pair, Outcome: OutcomeAccepted, Attempts: attempts}
		}

		attempt.Failure = FailureQuality
		attempts = append(attempts, attempt)

		if failed, ok := verdict.FirstFailure(); ok {
			c.logger.InfoContext(
				ctx, "try-on rejected",
				"pair", pair.Key,
				"attempt", i,
				"first_failure", failed.Constraint,
			)
		}

		instruction = c.reviser.Revise(instruction, verdict.Feedback)
	}

	c.logger.InfoContext(
		ctx, "iteration cap reached",
		"pair", pair.Key,
		"attempts", len(attempts),
	)

	return LoopResult{Pair: pair, Outcome: OutcomeExhausted, Attempts: attempts}
}
