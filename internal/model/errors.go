package model

import "errors"

// Sentinel errors shared across stores and services. Resolution misses are
// not errors; they travel as nil results.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)
