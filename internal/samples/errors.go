// Package samples yields paired person/cloth inputs from local disk or blob
// storage as a lazy, finite, restartable sequence with deterministic ordering.
package samples

import "errors"

// Sentinel errors for sample resolution. Both are skippable: the runner logs
// the pair and moves on without aborting the batch.
var (
	// ErrDecodeFailed indicates a pair's image payload could not be decoded.
	ErrDecodeFailed = errors.New("sample image decode failed")
	// ErrTooLarge indicates a pair's image payload exceeds the configured cap.
	ErrTooLarge = errors.New("sample image exceeds size limit")
)
