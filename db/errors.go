package db

import "errors"

// Error kinds returned by the repository layer. Controllers branch on
// these with errors.Is; everything else is treated as a store failure.
var (
	// ErrNotFound: a student, device or loan identifier did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the student already holds an active loan, or an
	// optimistic guard lost a race and observed a newer state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState: the device or loan is not in the status the
	// requested transition demands.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation: required input was missing or malformed.
	ErrValidation = errors.New("validation failed")
)
