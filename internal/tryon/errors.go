// Package tryon implements the closed-loop feedback try-on controller: a
// bounded generate → evaluate → revise cycle over black-box generator and
// evaluator models.
package tryon

import "errors"

// Sentinel errors for loop operations. Adapter implementations wrap these so
// the controller and runner can classify failures with errors.Is.
var (
	// ErrGenerationFailed indicates the external generator raised or
	// returned an undecodable image. Consumes one attempt.
	ErrGenerationFailed = errors.New("image generation failed")
	// ErrEvaluationFailed indicates the external evaluator raised or its
	// response could not be parsed into a Verdict. Consumes one attempt.
	ErrEvaluationFailed = errors.New("candidate evaluation failed")
	// ErrSinkWrite indicates a loop result could not be persisted.
	// Fatal for the pair only; the batch continues.
	ErrSinkWrite = errors.New("result sink write failed")
)
