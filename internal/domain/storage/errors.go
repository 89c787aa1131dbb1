package storage

import "errors"

// ErrDuplicate reports an insert that lost to an existing row on a unique
// constraint. Callers treat it as an idempotency signal, not a failure.
var ErrDuplicate = errors.New("duplicate record")
