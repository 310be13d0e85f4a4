// Package apperr defines sentinel errors shared across service and
// transport layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrMergeConflict = errors.New("merge conflict")
	ErrNoCover       = errors.New("no full cover")
)
