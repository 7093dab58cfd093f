package tryon

import "context"

// Generator wraps the external image-generation model behind a uniform call
// contract. Implementations perform no retries; all retry policy lives in
// the Controller.
type Generator interface {
	// Generate produces one candidate try-on image from the person and cloth
	// references plus a natural-language instruction. Failures wrap
	// ErrGenerationFailed.
	Generate(ctx context.Context, person, cloth Image, instruction string) (Image, error)
}

// Evaluator wraps the external vision-evaluation model, producing a
// structured Verdict against the fixed constraint set.
type Evaluator interface {
	// Evaluate judges the latest candidate against the original inputs.
	// attempt is the 1-based loop attempt index; it can exceed the candidate
	// count when earlier generations failed. candidates holds every image
	// generated so far for the pair, oldest first; the last entry is the one
	// under evaluation and earlier entries give the model attempt history to
	// reason over. Failures wrap ErrEvaluationFailed.
	Evaluate(ctx context.Context, person, cloth Image, attempt int, candidates []Image) (Verdict, error)
}
