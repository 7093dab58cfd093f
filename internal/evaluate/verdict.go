package evaluate

import (
	"fmt"

	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/formatting"
)

type checkResponse struct {
	Constraint string `json:"constraint"`
	Pass       bool   `json:"pass"`
	Note       string `json:"note"`
}

type verdictResponse struct {
	Checks   []checkResponse `json:"checks"`
	Feedback string          `json:"feedback"`
}

// ParseVerdict parses model output into a Verdict. The response must contain
// exactly one check per constraint, in checklist order; anything else wraps
// tryon.ErrEvaluationFailed so malformed responses are distinguishable from
// genuine quality failures.
func ParseVerdict(content string) (tryon.Verdict, error) {
	parsed, err := formatting.Parse[verdictResponse](content)
	if err != nil {
		return tryon.Verdict{}, fmt.Errorf("%w: %w", tryon.ErrEvaluationFailed, err)
	}

	expected := tryon.Constraints()
	if len(parsed.Checks) != len(expected) {
		return tryon.Verdict{}, fmt.Errorf(
			"%w: expected %d checks, got %d",
			tryon.ErrEvaluationFailed, len(expected), len(parsed.Checks),
		)
	}

	verdict := tryon.Verdict{
		Checks: make([]tryon.ConstraintResult, 0, len(expected)),
	}

	for i, check := range parsed.Checks {
		if tryon.Constraint(check.Constraint) != expected[i] {
			return tryon.Verdict{}, fmt.Errorf(
				"%w: check %d is %q, expected %q",
				tryon.ErrEvaluationFailed, i+1, check.Constraint, expected[i],
			)
		}

		verdict.Checks = append(verdict.Checks, tryon.ConstraintResult{
			Constraint: expected[i],
			Pass:       check.Pass,
			Note:       check.Note,
		})
	}

	verdict.Feedback = composeFeedback(&verdict, parsed.Feedback)
	return verdict, nil
}

// composeFeedback applies the constraint hierarchy to the diagnostic text:
// the earliest failing constraint leads, since fixing it is a precondition
// for later constraints to be meaningful.
func composeFeedback(v *tryon.Verdict, modelFeedback string) string {
	failed, ok := v.FirstFailure()
	if !ok {
		return modelFeedback
	}

	lead := fmt.Sprintf("Fix %s first", failed.Constraint)
	if failed.Note != "" {
		lead = fmt.Sprintf("%s: %s", lead, failed.Note)
	}

	if modelFeedback == "" {
		return lead
	}
	return fmt.Sprintf("%s. %s", lead, modelFeedback)
}
