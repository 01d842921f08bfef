package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors for user repositories
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	// ErrConcurrencyConflict signals an optimistic-lock failure; callers
	// should retry the whole operation from a fresh read.
	ErrConcurrencyConflict = errors.New("user was modified concurrently")
)

// UserRepository is the credential store boundary: pure data access over the
// user aggregate, no business rules. Save must serialize writes per user via
// the expected version so concurrent operations on the same aggregate cannot
// silently overwrite each other.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)

	// FindByUsernameOrEmail resolves a login identifier: exact username
	// match first, then case-insensitive confirmed email.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (User, error)

	// FindByConfirmedEmail matches confirmed addresses case-insensitively.
	FindByConfirmedEmail(ctx context.Context, email string) (User, error)

	Create(ctx context.Context, usr User) error

	// Save persists the aggregate iff the stored version equals
	// expectedVersion, and returns the aggregate with its version bumped.
	// Returns ErrConcurrencyConflict otherwise.
	Save(ctx context.Context, usr User, expectedVersion int64) (User, error)
}
