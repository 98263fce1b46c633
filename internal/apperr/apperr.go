// Package apperr defines the closed set of error kinds the service
// distinguishes. Core packages return these; only handlers translate them
// into HTTP status codes, keeping the stores and policies free of HTTP
// concepts.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds recovered locally by handlers.
var (
	// ErrNotFound: the operation target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnprocessable: a well-formed, authorized request the store could
	// not satisfy (duplicate email, empty update).
	ErrUnprocessable = errors.New("unprocessable")
)

// Storage operations, used to tag wrapped storage failures so logs can tell
// which session/user operation hit the database error.
const (
	OpCreateSession        = "create session"
	OpValidateSession      = "validate session"
	OpInvalidateSession    = "invalidate session"
	OpInvalidateAll        = "invalidate all sessions"
	OpCheckExistingSession = "check existing session"
	OpCreateUser           = "create user"
	OpGetUser              = "get user"
	OpUpdateUser           = "update user"
	OpDeleteUser           = "delete user"
	OpListUsers            = "list users"
	OpCheckPassword        = "check password"
)

// StorageError wraps an underlying storage failure with the logical
// operation that hit it. It is never recovered locally; it propagates to
// the top-level error boundary as a 500-class failure. The raw query text
// never reaches the client.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// Storage tags err with the given operation.
func Storage(op string, err error) error {
	return &StorageError{Op: op, Cause: err}
}

// IsStorage reports whether err carries a StorageError anywhere in its
// chain, returning it when present.
func IsStorage(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
