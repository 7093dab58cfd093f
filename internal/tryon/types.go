package tryon

import (
	"slices"
	"time"
)

// Image is a normalized PNG payload flowing through the loop.
// Name carries the origin filename or blob key base for provenance.
type Image struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// SamplePair is one person/cloth input to the try-on loop, immutable once read.
type SamplePair struct {
	Key    string `json:"key"`
	Cohort string `json:"cohort"`
	Person Image  `json:"person"`
	Cloth  Image  `json:"cloth"`
}

// Constraint is one of the fixed correctness checks the evaluator applies per attempt.
type Constraint string

// The ordered constraint set. The ordering is hierarchical: earlier
// constraints gate the meaningfulness of later ones (a perfect garment
// texture means nothing on the wrong person), which drives how failure
// feedback is composed. All constraints are evaluated on every attempt.
const (
	ConstraintPersonIdentity   Constraint = "person_identity"
	ConstraintPosePreserved    Constraint = "pose_preserved"
	ConstraintGarmentReplaced  Constraint = "garment_replaced"
	ConstraintGarmentStructure Constraint = "garment_structure"
	ConstraintGarmentTexture   Constraint = "garment_texture"
	ConstraintFitRealism       Constraint = "fit_realism"
	ConstraintSceneIntegrity   Constraint = "scene_integrity"
)

var constraints = []Constraint{
	ConstraintPersonIdentity,
	ConstraintPosePreserved,
	ConstraintGarmentReplaced,
	ConstraintGarmentStructure,
	ConstraintGarmentTexture,
	ConstraintFitRealism,
	ConstraintSceneIntegrity,
}

// Constraints returns the fixed ordered constraint set. The set and its
// ordering never change within a run so feedback is comparable between
// iterations.
func Constraints() []Constraint {
	return slices.Clone(constraints)
}

// ConstraintResult is the evaluator's judgement for a single constraint.
type ConstraintResult struct {
	Constraint Constraint `json:"constraint"`
	Pass       bool       `json:"pass"`
	Note       string     `json:"note,omitempty"`
}

// Verdict is the structured result of evaluating one candidate image.
type Verdict struct {
	Checks   []ConstraintResult `json:"checks"`
	Feedback string             `json:"feedback"`
}

// OverallPass reports whether every constraint passed. An empty verdict
// never passes.
func (v *Verdict) OverallPass() bool {
	if len(v.Checks) == 0 {
		return false
	}
	for _, c := range v.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

// FirstFailure returns the earliest failing check in constraint order.
func (v *Verdict) FirstFailure() (ConstraintResult, bool) {
	for _, c := range v.Checks {
		if !c.Pass {
			return c, true
		}
	}
	return ConstraintResult{}, false
}

// FailureReason tags why an attempt did not terminate the loop.
type FailureReason string

// Attempt failure reasons. Quality failures come from a genuine negative
// verdict; generation and evaluation failures come from the adapters and are
// tracked separately in run statistics.
const (
	FailureNone       FailureReason = ""
	FailureQuality    FailureReason = "quality"
	FailureGeneration FailureReason = "generation"
	FailureEvaluation FailureReason = "evaluation"
)

// Attempt is one generate+evaluate cycle for a pair. Attempts are never
// mutated after evaluation completes.
type Attempt struct {
	Index          int           `json:"index"`
	Instruction    string        `json:"instruction"`
	Image          *Image        `json:"image,omitempty"`
	Verdict        *Verdict      `json:"verdict,omitempty"`
	Failure        FailureReason `json:"failure,omitempty"`
	GenerationTime time.Duration `json:"generation_time"`
	EvaluationTime time.Duration `json:"evaluation_time"`
}

// Accepted reports whether this attempt carries an all-pass verdict.
func (a *Attempt) Accepted() bool {
	return a.Verdict != nil && a.Verdict.OverallPass()
}

// Outcome is the terminal state of a pair's loop.
type Outcome string

// Terminal outcomes.
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeExhausted Outcome = "exhausted"
)

// LoopResult is the terminal record for a SamplePair, immutable once produced.
type LoopResult struct {
	Pair     SamplePair `json:"pair"`
	Outcome  Outcome    `json:"outcome"`
	Attempts []Attempt  `json:"attempts"`
}

// Winning returns the accepting attempt, or nil when the loop exhausted.
// Acceptance always terminates the loop, so the winning attempt is the last
// one and must carry an all-pass verdict.
func (r *LoopResult) Winning() *Attempt {
	if r.Outcome != OutcomeAccepted || len(r.Attempts) == 0 {
		return nil
	}
	last := &r.Attempts[len(r.Attempts)-1]
	if !last.Accepted() {
		return nil
	}
	return last
}
