package prompts

import (
	"fmt"
	"strings"

	"github.com/tryonware/stitch/internal/tryon"
)

// ComposeEvaluateSystem builds the evaluator system prompt: tunable
// instructions, the ordered constraint checklist, and the immutable response
// specification.
func ComposeEvaluateSystem() string {
	var sb strings.Builder
	sb.WriteString(evaluateInstructions)
	sb.WriteString("\n\n")
	sb.WriteString(evaluateChecklistHeader)

	for i, c := range tryon.Constraints() {
		fmt.Fprintf(&sb, "\n%d. %s — %s", i+1, c, constraintGuidance[string(c)])
	}

	sb.WriteString("\n\n")
	sb.WriteString(evaluateSpec)

	return sb.String()
}

// ComposeEvaluateUser builds the per-iteration user prompt. Image order sent
// to the model is: person (1), cloth (2), then every generated candidate in
// attempt order, so the latest candidate is image candidates+2.
func ComposeEvaluateUser(iteration, candidates int) string {
	latest := candidates + 2

	if candidates <= 1 {
		return fmt.Sprintf(`This is feedback iteration %d.
You have exactly 3 images:
- Image 1: the original person (reference body and pose).
- Image 2: the original cloth (reference garment).
- Image 3: the generated try-on result to evaluate.

Compare image 3 against images 1 and 2. Does image 3 show the person from
image 1 wearing the cloth from image 2? Apply every checklist constraint.
Output only the JSON.`, iteration)
	}

	return fmt.Sprintf(`This is feedback iteration %d.
You have %d images in total:
- Image 1: the original person.
- Image 2: the original cloth.
- Images 3 to %d: previous failed attempts, in order.
- Image %d: the LATEST generated try-on result.

Analyze the evolution across attempts: identify what was wrong at each step,
then strictly judge image %d against every checklist constraint. Note whether
it fixes the specific errors visible in the earlier attempts.
Output only the JSON.`, iteration, latest, latest-1, latest, latest)
}
