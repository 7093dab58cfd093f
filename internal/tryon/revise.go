package tryon

import "strings"

// Reviser synthesizes the next attempt's instruction from the previous
// instruction and the evaluator's failure feedback. Revision is pure text
// composition, never a model call, so each attempt costs exactly two
// external-model invocations.
type Reviser interface {
	Revise(previous, feedback string) string
}

const feedbackMarker = " Address the following issues from the previous attempt: "

// AppendReviser composes the next instruction by appending the failure
// feedback to the base instruction. Feedback from an earlier attempt is
// replaced, not stacked, so instructions stay bounded across retries.
type AppendReviser struct{}

func (AppendReviser) Revise(previous, feedback string) string {
	base := previous
	if idx := strings.Index(previous, feedbackMarker); idx != -1 {
		base = previous[:idx]
	}

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return base
	}

	return base + feedbackMarker + feedback
}
