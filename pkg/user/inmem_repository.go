package user

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pkghub/gallery-idm/pkg/credential"
)

// InMemoryUserRepository implements UserRepository using in-memory storage.
// Useful for tests and local development.
type InMemoryUserRepository struct {
	mu              sync.RWMutex
	users           map[uuid.UUID]User
	usersByUsername map[string]uuid.UUID // lower(username) -> id
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:           make(map[uuid.UUID]User),
		usersByUsername: make(map[string]uuid.UUID),
	}
}

// cloneUser copies the aggregate so callers cannot mutate stored state
// without going through Save.
func cloneUser(u User) User {
	out := u
	out.Credentials = make([]credential.Credential, len(u.Credentials))
	copy(out.Credentials, u.Credentials)
	return out
}

// GetByID returns a user by ID
func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usr, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return cloneUser(usr), nil
}

// FindByUsername finds a user by username, case-insensitively
func (r *InMemoryUserRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usersByUsername[strings.ToLower(username)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return cloneUser(r.users[id]), nil
}

// FindByConfirmedEmail finds a user whose confirmed email matches
// case-insensitively
func (r *InMemoryUserRepository) FindByConfirmedEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, usr := range r.users {
		if usr.EmailAddress != "" && strings.EqualFold(usr.EmailAddress, email) {
			return cloneUser(usr), nil
		}
	}
	return User{}, ErrUserNotFound
}

// FindByUsernameOrEmail resolves a login identifier
func (r *InMemoryUserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (User, error) {
	usr, err := r.FindByUsername(ctx, identifier)
	if err == nil {
		return usr, nil
	}
	return r.FindByConfirmedEmail(ctx, identifier)
}

// Create stores a new user
func (r *InMemoryUserRepository) Create(ctx context.Context, usr User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[usr.ID]; exists {
		return ErrUserExists
	}
	key := strings.ToLower(usr.Username)
	if _, exists := r.usersByUsername[key]; exists {
		return ErrUserExists
	}

	if usr.Version == 0 {
		usr.Version = 1
	}
	r.users[usr.ID] = cloneUser(usr)
	r.usersByUsername[key] = usr.ID
	return nil
}

// Save persists the aggregate with optimistic concurrency
func (r *InMemoryUserRepository) Save(ctx context.Context, usr User, expectedVersion int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if stored.Version != expectedVersion {
		return User{}, ErrConcurrencyConflict
	}

	usr.Version = expectedVersion + 1
	r.users[usr.ID] = cloneUser(usr)
	return usr, nil
}
