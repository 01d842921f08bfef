package emailchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkghub/gallery-idm/pkg/notification"
	"github.com/pkghub/gallery-idm/pkg/user"
)

func newTestService(t *testing.T) (*EmailChangeService, *user.InMemoryUserRepository, *notification.MockNotifier) {
	t.Helper()

	repo := user.NewInMemoryUserRepository()

	mock := &notification.MockNotifier{}
	nm := notification.NewNotificationManager("https://gallery.example.com")
	nm.RegisterNotifier(notification.EmailSystem, mock)
	for _, noticeType := range []notification.NoticeType{
		notification.NewAccountNotice,
		notification.EmailChangeConfirmNotice,
		notification.EmailChangePreviousNotice,
	} {
		err := nm.RegisterNotification(noticeType, notification.EmailSystem, notification.NoticeTemplate{
			Subject: string(noticeType),
			Text:    "{{.Username}}",
		})
		require.NoError(t, err)
	}

	return NewEmailChangeService(repo, WithNotificationManager(nm)), repo, mock
}

func createConfirmedUser(t *testing.T, repo *user.InMemoryUserRepository, username, email string) user.User {
	t.Helper()

	usr := user.New(username, "")
	usr.EmailAddress = email
	require.NoError(t, repo.Create(context.Background(), usr))

	created, err := repo.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	return created
}

// faultyEmailLookupRepo fails every confirmed-email lookup, as a store
// outage would.
type faultyEmailLookupRepo struct {
	*user.InMemoryUserRepository
	err error
}

func (r *faultyEmailLookupRepo) FindByConfirmedEmail(ctx context.Context, email string) (user.User, error) {
	return user.User{}, r.err
}

func TestChangeEmailAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("StagesPendingWithoutTouchingCurrent", func(t *testing.T) {
		svc, repo, mock := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", staged.EmailAddress)
		assert.Equal(t, "new@example.com", staged.UnconfirmedEmailAddress)
		assert.NotEmpty(t, staged.EmailConfirmationToken.Value)

		require.Len(t, mock.SentNotifications, 1)
		assert.Equal(t, notification.EmailChangeConfirmNotice, mock.SentTypes[0])
		assert.Equal(t, "new@example.com", mock.SentNotifications[0].To)
	})

	t.Run("CollisionWithOtherAccount", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		createConfirmedUser(t, repo, "bob", "bob@example.com")
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		_, err := svc.ChangeEmailAddress(ctx, usr, "BOB@example.com")
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, stored.UnconfirmedEmailAddress)
	})

	t.Run("ChangingToCurrentAddressCancelsPending", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		cancelled, err := svc.ChangeEmailAddress(ctx, staged, "Alice@Example.com")
		require.NoError(t, err)
		assert.Empty(t, cancelled.UnconfirmedEmailAddress)
		assert.Empty(t, cancelled.EmailConfirmationToken.Value)
		assert.Equal(t, "alice@example.com", cancelled.EmailAddress)
	})

	t.Run("InvalidAddress", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		_, err := svc.ChangeEmailAddress(ctx, usr, "not-an-email")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("StoreFaultFailsInsteadOfSkippingDuplicateCheck", func(t *testing.T) {
		inner := user.NewInMemoryUserRepository()
		usr := createConfirmedUser(t, inner, "alice", "alice@example.com")

		storeErr := errors.New("connection refused")
		svc := NewEmailChangeService(&faultyEmailLookupRepo{InMemoryUserRepository: inner, err: storeErr})

		_, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		assert.ErrorIs(t, err, storeErr)

		stored, err := inner.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, stored.UnconfirmedEmailAddress)
	})

	t.Run("FirstTimeConfirmationUsesNewAccountNotice", func(t *testing.T) {
		svc, repo, mock := newTestService(t)
		usr := user.New("newbie", "newbie@example.com")
		require.NoError(t, repo.Create(ctx, usr))

		_, err := svc.ChangeEmailAddress(ctx, usr, "newbie@example.com")
		require.NoError(t, err)
		require.Len(t, mock.SentTypes, 1)
		assert.Equal(t, notification.NewAccountNotice, mock.SentTypes[0])
	})
}

func TestConfirmEmailAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("PromotesPendingAndClearsToken", func(t *testing.T) {
		svc, repo, mock := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		confirmed, err := svc.ConfirmEmailAddress(ctx, staged, staged.EmailConfirmationToken.Value)
		require.NoError(t, err)
		assert.True(t, confirmed)

		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", stored.EmailAddress)
		assert.Empty(t, stored.UnconfirmedEmailAddress)
		assert.Empty(t, stored.EmailConfirmationToken.Value)
		assert.True(t, stored.Confirmed())

		// Previous address is told about the change
		last := mock.SentNotifications[len(mock.SentNotifications)-1]
		assert.Equal(t, notification.EmailChangePreviousNotice, mock.SentTypes[len(mock.SentTypes)-1])
		assert.Equal(t, "alice@example.com", last.To)
		assert.Equal(t, "new@example.com", last.Data["NewEmail"])
	})

	t.Run("BadTokenIsFalseNotError", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		confirmed, err := svc.ConfirmEmailAddress(ctx, staged, "wrong-token")
		require.NoError(t, err)
		assert.False(t, confirmed)

		// Repeated failures look identical
		confirmed, err = svc.ConfirmEmailAddress(ctx, staged, "another-wrong-token")
		require.NoError(t, err)
		assert.False(t, confirmed)

		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", stored.EmailAddress)
		assert.Equal(t, "new@example.com", stored.UnconfirmedEmailAddress)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		staged.EmailConfirmationToken.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		staged, err = repo.Save(ctx, staged, staged.Version)
		require.NoError(t, err)

		confirmed, err := svc.ConfirmEmailAddress(ctx, staged, staged.EmailConfirmationToken.Value)
		require.NoError(t, err)
		assert.False(t, confirmed)
	})

	t.Run("InterimCollisionLeavesStateUnchanged", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "contested@example.com")
		require.NoError(t, err)

		// Another account claims the address before confirmation
		createConfirmedUser(t, repo, "mallory", "contested@example.com")

		_, err = svc.ConfirmEmailAddress(ctx, staged, staged.EmailConfirmationToken.Value)
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", stored.EmailAddress)
		assert.Equal(t, "contested@example.com", stored.UnconfirmedEmailAddress)
		assert.NotEmpty(t, stored.EmailConfirmationToken.Value)
	})

	t.Run("StoreFaultFailsInsteadOfPromoting", func(t *testing.T) {
		inner := user.NewInMemoryUserRepository()
		usr := createConfirmedUser(t, inner, "alice", "alice@example.com")
		staged, err := NewEmailChangeService(inner).ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		storeErr := errors.New("connection refused")
		svc := NewEmailChangeService(&faultyEmailLookupRepo{InMemoryUserRepository: inner, err: storeErr})

		_, err = svc.ConfirmEmailAddress(ctx, staged, staged.EmailConfirmationToken.Value)
		assert.ErrorIs(t, err, storeErr)

		stored, err := inner.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", stored.EmailAddress)
		assert.Equal(t, "new@example.com", stored.UnconfirmedEmailAddress)
	})

	t.Run("NoPendingChange", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		confirmed, err := svc.ConfirmEmailAddress(ctx, usr, "any-token")
		require.NoError(t, err)
		assert.False(t, confirmed)
	})
}

func TestCancelChangeEmailAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("ClearsPending", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		cancelled, err := svc.CancelChangeEmailAddress(ctx, staged)
		require.NoError(t, err)
		assert.Empty(t, cancelled.UnconfirmedEmailAddress)
		assert.Empty(t, cancelled.EmailConfirmationToken.Value)
		assert.Equal(t, "alice@example.com", cancelled.EmailAddress)
	})

	t.Run("Idempotent", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)

		once, err := svc.CancelChangeEmailAddress(ctx, staged)
		require.NoError(t, err)
		twice, err := svc.CancelChangeEmailAddress(ctx, once)
		require.NoError(t, err)
		assert.Equal(t, once.UnconfirmedEmailAddress, twice.UnconfirmedEmailAddress)
		assert.Equal(t, once.EmailAddress, twice.EmailAddress)
		assert.Equal(t, once.Version, twice.Version)
	})

	t.Run("StaleTokenConsumed", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)
		token := staged.EmailConfirmationToken.Value

		cancelled, err := svc.CancelChangeEmailAddress(ctx, staged)
		require.NoError(t, err)

		confirmed, err := svc.ConfirmEmailAddress(ctx, cancelled, token)
		require.NoError(t, err)
		assert.False(t, confirmed)
	})
}

func TestResendConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("RotatesToken", func(t *testing.T) {
		svc, repo, mock := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")
		staged, err := svc.ChangeEmailAddress(ctx, usr, "new@example.com")
		require.NoError(t, err)
		oldToken := staged.EmailConfirmationToken.Value

		resent, err := svc.ResendConfirmation(ctx, staged)
		require.NoError(t, err)
		assert.NotEqual(t, oldToken, resent.EmailConfirmationToken.Value)

		// Old token no longer validates, new one does
		confirmed, err := svc.ConfirmEmailAddress(ctx, resent, oldToken)
		require.NoError(t, err)
		assert.False(t, confirmed)
		confirmed, err = svc.ConfirmEmailAddress(ctx, resent, resent.EmailConfirmationToken.Value)
		require.NoError(t, err)
		assert.True(t, confirmed)

		assert.Equal(t, "new@example.com", mock.SentNotifications[1].To)
	})

	t.Run("NoChangeInFlight", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		usr := createConfirmedUser(t, repo, "alice", "alice@example.com")

		_, err := svc.ResendConfirmation(ctx, usr)
		assert.ErrorIs(t, err, ErrNoChangeInFlight)
	})
}
