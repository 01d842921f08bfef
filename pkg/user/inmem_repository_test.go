package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkghub/gallery-idm/pkg/credential"
)

func TestInMemoryUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		usr := New("alice", "alice@example.com")
		require.NoError(t, repo.Create(ctx, usr))

		got, err := repo.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		require.NoError(t, repo.Create(ctx, New("alice", "a@example.com")))
		err := repo.Create(ctx, New("Alice", "b@example.com"))
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("FindByConfirmedEmailIsCaseInsensitive", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		usr := New("alice", "")
		usr.EmailAddress = "Alice@Example.com"
		require.NoError(t, repo.Create(ctx, usr))

		got, err := repo.FindByConfirmedEmail(ctx, "alice@example.COM")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)

		// A pending address is not a confirmed one
		_, err = repo.FindByConfirmedEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("SaveBumpsVersion", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		usr := New("alice", "alice@example.com")
		require.NoError(t, repo.Create(ctx, usr))

		usr.ReplaceCredential(credential.NewPassword("salt:hash"))
		saved, err := repo.Save(ctx, usr, usr.Version)
		require.NoError(t, err)
		assert.Equal(t, int64(2), saved.Version)

		got, err := repo.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Len(t, got.Credentials, 1)
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		usr := New("alice", "alice@example.com")
		require.NoError(t, repo.Create(ctx, usr))

		first := usr
		second := usr

		_, err := repo.Save(ctx, first, first.Version)
		require.NoError(t, err)

		second.Username = "alice-renamed"
		_, err = repo.Save(ctx, second, second.Version)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)

		// The losing write left no trace
		got, err := repo.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("StoredStateIsIsolated", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		usr := New("alice", "alice@example.com")
		usr.ReplaceCredential(credential.NewPassword("salt:hash"))
		require.NoError(t, repo.Create(ctx, usr))

		got, _ := repo.GetByID(ctx, usr.ID)
		got.Credentials[0].Value = "tampered"

		again, _ := repo.GetByID(ctx, usr.ID)
		assert.Equal(t, "salt:hash", again.Credentials[0].Value)
	})
}

func TestUserAggregate(t *testing.T) {
	t.Run("Confirmed", func(t *testing.T) {
		usr := New("alice", "alice@example.com")
		assert.False(t, usr.Confirmed())

		usr.EmailAddress = usr.UnconfirmedEmailAddress
		usr.UnconfirmedEmailAddress = ""
		assert.True(t, usr.Confirmed())
	})

	t.Run("ReplaceCredentialUpserts", func(t *testing.T) {
		usr := New("alice", "alice@example.com")
		usr.ReplaceCredential(credential.NewPassword("old"))
		usr.ReplaceCredential(credential.NewPassword("new"))

		require.Len(t, usr.Credentials, 1)
		assert.Equal(t, "new", usr.Credentials[0].Value)
	})

	t.Run("RemoveCredential", func(t *testing.T) {
		usr := New("alice", "alice@example.com")
		pw := credential.NewPassword("hash")
		usr.ReplaceCredential(pw)

		assert.True(t, usr.RemoveCredential(pw))
		assert.False(t, usr.RemoveCredential(pw))
		assert.Empty(t, usr.Credentials)
	})

	t.Run("FindCredentialByTypeIgnoresCase", func(t *testing.T) {
		usr := New("alice", "alice@example.com")
		usr.ReplaceCredential(credential.NewExternal("github", "octocat"))

		_, ok := usr.FindCredentialByType("EXTERNAL:GITHUB")
		assert.True(t, ok)
	})
}
