// Package repository persists users and sessions in neo4j. Handlers and
// middleware depend on the interfaces below so tests can substitute
// in-memory fakes; the concrete types speak Cypher.
package repository

import (
	"context"

	"github.com/iliyamo/graph-user-auth/internal/model"
)

// UserStore is the user directory. Lookup misses are reported as
// apperr.ErrNotFound; operations the store refuses (duplicate email, empty
// update, deleting a ghost) as apperr.ErrUnprocessable. Anything else is a
// wrapped storage failure.
type UserStore interface {
	// Create stores a new user with a generated id and the bcrypt hash of
	// password.
	Create(ctx context.Context, u model.User, password string, bcryptCost int) (*model.User, error)

	// GetByID fetches a user by its id.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByEmail fetches a user by email, hash included, for password
	// verification at login.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update applies the non-nil fields of updates to the user with the
	// given id. A password update is hashed with bcryptCost.
	Update(ctx context.Context, id string, updates model.UserUpdates, bcryptCost int) (*model.User, error)

	// Delete removes the user and, through graph detachment, every session
	// it owns. The removed user is returned.
	Delete(ctx context.Context, id string) (*model.User, error)

	// List returns all users.
	List(ctx context.Context) ([]model.User, error)
}

// SessionStore manages HAS_SESSION relationships. The raw token never
// reaches the database: every operation taking a token hashes it first.
type SessionStore interface {
	// Create links a new session to the user with the given email. The
	// session id is the hash of token. Returns apperr.ErrNotFound when no
	// such user exists.
	Create(ctx context.Context, token, email, host, userAgent string) (*model.Session, error)

	// FindByToken resolves a token to its live session and owning user.
	// The (nil, nil, nil) triple means "no live session": empty token,
	// unknown token, or an expired session, which FindByToken deletes
	// before reporting absence.
	FindByToken(ctx context.Context, token string) (*model.Session, *model.User, error)

	// Invalidate deletes the session with the given id. Idempotent:
	// unknown ids are not an error.
	Invalidate(ctx context.Context, sessionID string) error

	// InvalidateAll deletes every session owned by the user with email.
	InvalidateAll(ctx context.Context, email string) error

	// FindActiveSessionID returns the id of an existing session for the
	// (email, host, userAgent) client context, or "" when there is none.
	FindActiveSessionID(ctx context.Context, email, host, userAgent string) (string, error)
}
