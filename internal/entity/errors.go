package entity

import "errors"

var (
	// ErrSessionMissing: the operator acted without an active authoring session.
	ErrSessionMissing = errors.New("no active session")
	// ErrRecordNotFound also covers reference tokens that resolve to nothing.
	ErrRecordNotFound    = errors.New("record not found")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrValidation        = errors.New("validation failed")
)
