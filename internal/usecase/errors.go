package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrVerificationFailed means a ledger transaction reported success but a
	// follow-up read did not show the expected state. Nothing is persisted
	// when this happens.
	ErrVerificationFailed = errors.New("ledger state verification failed")
)
