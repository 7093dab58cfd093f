// Package prompts composes the evaluator's system and user prompts and
// samples default generation instructions from weighted keyword dictionaries.
package prompts

import "errors"

// ErrEmptyDictionary indicates a keyword dictionary with no entries.
var ErrEmptyDictionary = errors.New("keyword dictionary is empty")
