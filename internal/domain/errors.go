package domain

import "errors"

// Business error kinds. Services wrap one of these in their own sentinels so
// callers can branch on either the specific error or its kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrGone         = errors.New("gone")
)
