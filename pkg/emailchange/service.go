package emailchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/pkghub/gallery-idm/pkg/notification"
	"github.com/pkghub/gallery-idm/pkg/user"
	"github.com/pkghub/gallery-idm/pkg/verification"
)

// EmailChangeService manages the two-phase email mutation: a new address is
// staged as pending, then promoted to the confirmed address when the owner
// proves control of it via a confirmation token. A pending change can be
// cancelled at any point before confirmation.
type EmailChangeService struct {
	repo                user.UserRepository
	notificationManager *notification.NotificationManager
	confirmTokenTTL     time.Duration
}

// EmailChangeServiceOption is a function that configures an EmailChangeService
type EmailChangeServiceOption func(*EmailChangeService)

// WithNotificationManager sets the notification manager used for
// confirmation notices. Without one, notices are skipped.
func WithNotificationManager(nm *notification.NotificationManager) EmailChangeServiceOption {
	return func(s *EmailChangeService) {
		s.notificationManager = nm
	}
}

// WithConfirmationTTL overrides the default confirmation token lifetime
func WithConfirmationTTL(ttl time.Duration) EmailChangeServiceOption {
	return func(s *EmailChangeService) {
		if ttl > 0 {
			s.confirmTokenTTL = ttl
		}
	}
}

// NewEmailChangeService creates a new EmailChangeService with the given repository and options
func NewEmailChangeService(repo user.UserRepository, opts ...EmailChangeServiceOption) *EmailChangeService {
	service := &EmailChangeService{
		repo:            repo,
		confirmTokenTTL: verification.DefaultTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ChangeEmailAddress stages newEmail as the account's pending address and
// issues a confirmation token. The confirmed address is untouched until
// confirmation. Changing to the current confirmed address cancels any
// pending change instead. Fails with ErrDuplicateEmail when the address is
// already confirmed on another account.
func (s *EmailChangeService) ChangeEmailAddress(ctx context.Context, usr user.User, newEmail string) (user.User, error) {
	if _, err := mail.ParseAddress(newEmail); err != nil {
		return user.User{}, ErrInvalidEmail
	}

	if usr.EmailAddress != "" && strings.EqualFold(usr.EmailAddress, newEmail) {
		return s.CancelChangeEmailAddress(ctx, usr)
	}

	if err := s.checkDuplicate(ctx, usr, newEmail); err != nil {
		return user.User{}, err
	}

	token, err := verification.New(verification.PurposeEmailConfirmation, s.confirmTokenTTL)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	firstConfirmation := usr.EmailAddress == ""
	usr.UnconfirmedEmailAddress = newEmail
	usr.EmailConfirmationToken = token

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to stage email change: %w", err)
	}

	noticeType := notification.EmailChangeConfirmNotice
	if firstConfirmation {
		noticeType = notification.NewAccountNotice
	}
	s.notify(noticeType, notification.NotificationData{
		To: newEmail,
		Data: map[string]string{
			"Username":        saved.Username,
			"ConfirmationUrl": s.confirmationURL(saved),
		},
	})

	return saved, nil
}

// ConfirmEmailAddress validates the confirmation token and promotes the
// pending address to the confirmed one. An invalid or expired token returns
// (false, nil) so the endpoint cannot be used to probe account state. If the
// pending address was claimed by another account in the interim, the change
// fails with ErrDuplicateEmail and the account is left untouched.
func (s *EmailChangeService) ConfirmEmailAddress(ctx context.Context, usr user.User, token string) (bool, error) {
	if usr.UnconfirmedEmailAddress == "" {
		return false, nil
	}
	if !usr.EmailConfirmationToken.Validate(token, time.Now().UTC()) {
		return false, nil
	}

	if err := s.checkDuplicate(ctx, usr, usr.UnconfirmedEmailAddress); err != nil {
		return false, err
	}

	previousEmail := usr.EmailAddress
	usr.EmailAddress = usr.UnconfirmedEmailAddress
	usr.UnconfirmedEmailAddress = ""
	usr.ClearEmailConfirmationToken()

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return false, fmt.Errorf("failed to confirm email address: %w", err)
	}

	if previousEmail != "" && !strings.EqualFold(previousEmail, saved.EmailAddress) {
		s.notify(notification.EmailChangePreviousNotice, notification.NotificationData{
			To: previousEmail,
			Data: map[string]string{
				"Username": saved.Username,
				"NewEmail": saved.EmailAddress,
			},
		})
	}

	return true, nil
}

// CancelChangeEmailAddress clears any pending email change. Calling it with
// no change in flight is a no-op; it never fails on account state.
func (s *EmailChangeService) CancelChangeEmailAddress(ctx context.Context, usr user.User) (user.User, error) {
	if usr.UnconfirmedEmailAddress == "" && usr.EmailConfirmationToken.Value == "" {
		return usr, nil
	}

	usr.UnconfirmedEmailAddress = ""
	usr.ClearEmailConfirmationToken()

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to cancel email change: %w", err)
	}
	return saved, nil
}

// ResendConfirmation issues a fresh confirmation token for the pending
// address and resends the notice. The prior token stops validating.
func (s *EmailChangeService) ResendConfirmation(ctx context.Context, usr user.User) (user.User, error) {
	if usr.UnconfirmedEmailAddress == "" {
		return user.User{}, ErrNoChangeInFlight
	}

	token, err := verification.New(verification.PurposeEmailConfirmation, s.confirmTokenTTL)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	usr.EmailConfirmationToken = token

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to store confirmation token: %w", err)
	}

	noticeType := notification.EmailChangeConfirmNotice
	if saved.EmailAddress == "" {
		noticeType = notification.NewAccountNotice
	}
	s.notify(noticeType, notification.NotificationData{
		To: saved.UnconfirmedEmailAddress,
		Data: map[string]string{
			"Username":        saved.Username,
			"ConfirmationUrl": s.confirmationURL(saved),
		},
	})

	return saved, nil
}

func (s *EmailChangeService) checkDuplicate(ctx context.Context, usr user.User, email string) error {
	other, err := s.repo.FindByConfirmedEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check email ownership: %w", err)
	}
	if other.ID != usr.ID {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *EmailChangeService) confirmationURL(usr user.User) string {
	base := ""
	if s.notificationManager != nil {
		base = s.notificationManager.BaseUrl
	}
	return fmt.Sprintf("%s/account/confirm/%s/%s", base, usr.Username, usr.EmailConfirmationToken.Value)
}

func (s *EmailChangeService) notify(noticeType notification.NoticeType, data notification.NotificationData) {
	if s.notificationManager == nil || data.To == "" {
		return
	}
	if err := s.notificationManager.Send(noticeType, data); err != nil {
		slog.Error("Failed to send notification", "err", err, "notice", noticeType)
	}
}
