package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkghub/gallery-idm/pkg/credential"
	"github.com/pkghub/gallery-idm/pkg/notification"
	"github.com/pkghub/gallery-idm/pkg/user"
	"github.com/pkghub/gallery-idm/pkg/verification"
)

// AuthService verifies presented secrets against stored credentials and
// orchestrates password reset, password change, credential replacement and
// removal, and API key issuance.
type AuthService struct {
	repo                user.UserRepository
	notificationManager *notification.NotificationManager
	policy              *PasswordPolicy
	resetTokenTTL       time.Duration
	apiKeyMaxDays       int
}

// AuthServiceOption is a function that configures an AuthService
type AuthServiceOption func(*AuthService)

// WithNotificationManager sets the notification manager used for account
// notices. Without one, notices are skipped.
func WithNotificationManager(nm *notification.NotificationManager) AuthServiceOption {
	return func(s *AuthService) {
		s.notificationManager = nm
	}
}

// WithPasswordPolicy overrides the default password complexity policy
func WithPasswordPolicy(policy *PasswordPolicy) AuthServiceOption {
	return func(s *AuthService) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithPasswordResetTTL overrides the default reset token lifetime
func WithPasswordResetTTL(ttl time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if ttl > 0 {
			s.resetTokenTTL = ttl
		}
	}
}

// WithAPIKeyExpirationDays sets the upper bound on API key lifetimes.
// Zero or negative disables expiration entirely.
func WithAPIKeyExpirationDays(days int) AuthServiceOption {
	return func(s *AuthService) {
		s.apiKeyMaxDays = days
	}
}

// NewAuthService creates a new AuthService with the given repository and options
func NewAuthService(repo user.UserRepository, opts ...AuthServiceOption) *AuthService {
	service := &AuthService{
		repo:          repo,
		policy:        DefaultPasswordPolicy(),
		resetTokenTTL: verification.DefaultTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Authenticate verifies a secret against the account's password credential.
// Unknown accounts, accounts without a password, and wrong secrets all
// produce the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, identifier, secret string) (user.User, error) {
	usr, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		slog.Debug("Authentication lookup failed", "identifier", identifier)
		CheckPasswordHash(secret, dummyPasswordHash)
		return user.User{}, ErrInvalidCredentials
	}

	pw, ok := usr.PasswordCredential()
	if !ok {
		CheckPasswordHash(secret, dummyPasswordHash)
		return user.User{}, ErrInvalidCredentials
	}

	match, err := CheckPasswordHash(secret, pw.Value)
	if err != nil {
		slog.Error("Failed to verify password hash", "err", err, "username", usr.Username)
		return user.User{}, ErrInvalidCredentials
	}
	if !match {
		return user.User{}, ErrInvalidCredentials
	}

	return usr, nil
}

// GeneratePasswordResetToken issues a fresh reset token for the account and
// stores it, replacing any outstanding one. The updated user is returned so
// the caller can inspect the token. ttlMinutes above the default lifetime is
// clamped down to it; zero or negative uses the default.
func (s *AuthService) GeneratePasswordResetToken(ctx context.Context, identifier string, ttlMinutes int) (user.User, error) {
	usr, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return user.User{}, err
	}

	token, err := verification.NewWithMinutes(verification.PurposePasswordReset, ttlMinutes)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to generate reset token: %w", err)
	}
	usr.PasswordResetToken = token

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to store reset token: %w", err)
	}
	return saved, nil
}

// SendPasswordResetInstructions issues a reset token and dispatches the reset
// notice to the account's email address. Lookup failure is returned to the
// caller; transport layers should collapse it into a generic response so the
// endpoint cannot be used to probe for account existence.
func (s *AuthService) SendPasswordResetInstructions(ctx context.Context, identifier string, ttlMinutes int) (user.User, error) {
	usr, err := s.GeneratePasswordResetToken(ctx, identifier, ttlMinutes)
	if err != nil {
		return user.User{}, err
	}

	s.notify(notification.PasswordResetNotice, notification.NotificationData{
		To: usr.PreferredEmail(),
		Data: map[string]string{
			"Username": usr.Username,
			"ResetUrl": s.resetURL(usr),
		},
	})
	return usr, nil
}

// RequestPasswordSet issues a reset token for an account that has no password
// credential, so the owner can establish one through the reset flow.
func (s *AuthService) RequestPasswordSet(ctx context.Context, usr user.User) (user.User, error) {
	if usr.HasPassword() {
		return user.User{}, fmt.Errorf("account already has a password credential")
	}
	return s.SendPasswordResetInstructions(ctx, usr.Username, 0)
}

// ResetPasswordWithToken validates a reset token for the named account and
// installs the new secret. The token is consumed on success. Unknown user,
// token mismatch, and expiration all collapse into ErrTokenInvalid.
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, username, token, newSecret string) (credential.Credential, error) {
	usr, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return credential.Credential{}, ErrTokenInvalid
	}

	if !usr.PasswordResetToken.Validate(token, time.Now().UTC()) {
		return credential.Credential{}, ErrTokenInvalid
	}

	if err := s.policy.CheckPasswordComplexity(newSecret); err != nil {
		return credential.Credential{}, fmt.Errorf("%w: %v", ErrPasswordComplexity, err)
	}

	hashed, err := HashPassword(newSecret)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("failed to hash password: %w", err)
	}

	hadPassword := usr.HasPassword()
	cred := credential.NewPassword(hashed)
	usr.ReplaceCredential(cred)
	usr.ClearPasswordResetToken()

	if _, err := s.repo.Save(ctx, usr, usr.Version); err != nil {
		return credential.Credential{}, fmt.Errorf("failed to store new password: %w", err)
	}

	if !hadPassword {
		s.notify(notification.CredentialAddedNotice, notification.NotificationData{
			To: usr.PreferredEmail(),
			Data: map[string]string{
				"Username":       usr.Username,
				"CredentialType": "password",
			},
		})
	}

	return cred, nil
}

// ChangePassword verifies the old secret and installs the new one. A wrong
// old secret or a missing password credential returns (false, nil), not an
// error. When rotateApiKey is set, a fresh API key replaces the existing one
// in the same write.
func (s *AuthService) ChangePassword(ctx context.Context, usr user.User, oldSecret, newSecret string, rotateApiKey bool) (bool, error) {
	pw, ok := usr.PasswordCredential()
	if !ok {
		return false, nil
	}

	match, err := CheckPasswordHash(oldSecret, pw.Value)
	if err != nil {
		slog.Error("Failed to verify password hash", "err", err, "username", usr.Username)
		return false, nil
	}
	if !match {
		return false, nil
	}

	if err := s.policy.CheckPasswordComplexity(newSecret); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPasswordComplexity, err)
	}

	hashed, err := HashPassword(newSecret)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	usr.ReplaceCredential(credential.NewPassword(hashed))
	if rotateApiKey {
		if _, ok := usr.APIKeyCredential(); ok {
			usr.ReplaceCredential(credential.NewAPIKeyV1(s.apiKeyTTL(0)))
		}
	}

	if _, err := s.repo.Save(ctx, usr, usr.Version); err != nil {
		return false, fmt.Errorf("failed to store new password: %w", err)
	}
	return true, nil
}

// ReplaceCredential upserts a credential on the account. Any existing
// credential of the same type is replaced; no history of the old value is
// kept.
func (s *AuthService) ReplaceCredential(ctx context.Context, usr user.User, cred credential.Credential) (user.User, error) {
	_, existed := usr.FindCredentialByType(cred.Type)
	usr.ReplaceCredential(cred)

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to store credential: %w", err)
	}

	if !existed && cred.IsLoginCapable() {
		s.notify(notification.CredentialAddedNotice, notification.NotificationData{
			To: saved.PreferredEmail(),
			Data: map[string]string{
				"Username":       saved.Username,
				"CredentialType": credential.Describe(cred).TypeCaption,
			},
		})
	}
	return saved, nil
}

// RemoveCredential removes a credential from the account. Removal is refused
// with ErrCannotRemoveOnlyLoginCredential when it would leave the account
// with no login-capable credential; the credential set is left untouched.
func (s *AuthService) RemoveCredential(ctx context.Context, usr user.User, credType string) (user.User, error) {
	cred, ok := usr.FindCredentialByType(credType)
	if !ok {
		return user.User{}, ErrCredentialNotFound
	}

	if !credential.CanRemove(usr.Credentials, cred) {
		return user.User{}, ErrCannotRemoveOnlyLoginCredential
	}

	usr.RemoveCredential(cred)
	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to remove credential: %w", err)
	}

	s.notify(notification.CredentialRemovedNotice, notification.NotificationData{
		To: saved.PreferredEmail(),
		Data: map[string]string{
			"Username":       saved.Username,
			"CredentialType": credential.Describe(cred).TypeCaption,
		},
	})
	return saved, nil
}

// IssueAPIKey replaces the account's API key with a fresh one. The requested
// lifetime in days is clamped to the configured maximum; a non-positive
// request uses the maximum. When no maximum is configured the key does not
// expire.
func (s *AuthService) IssueAPIKey(ctx context.Context, usr user.User, requestedDays int) (credential.Credential, user.User, error) {
	cred := credential.NewAPIKeyV1(s.apiKeyTTL(requestedDays))
	usr.ReplaceCredential(cred)

	saved, err := s.repo.Save(ctx, usr, usr.Version)
	if err != nil {
		return credential.Credential{}, user.User{}, fmt.Errorf("failed to store api key: %w", err)
	}
	return cred, saved, nil
}

// DescribeCredential projects a credential into its display form.
func (s *AuthService) DescribeCredential(cred credential.Credential) credential.Description {
	return credential.Describe(cred)
}

// ListCredentials projects all of the account's credentials for display.
func (s *AuthService) ListCredentials(usr user.User) []credential.Description {
	descriptions := make([]credential.Description, 0, len(usr.Credentials))
	for _, cred := range usr.Credentials {
		descriptions = append(descriptions, credential.Describe(cred))
	}
	return descriptions
}

func (s *AuthService) apiKeyTTL(requestedDays int) time.Duration {
	if s.apiKeyMaxDays <= 0 {
		return 0
	}
	days := requestedDays
	if days <= 0 || days > s.apiKeyMaxDays {
		days = s.apiKeyMaxDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s *AuthService) resetURL(usr user.User) string {
	base := ""
	if s.notificationManager != nil {
		base = s.notificationManager.BaseUrl
	}
	return fmt.Sprintf("%s/account/forgot-password/%s/%s", base, usr.Username, usr.PasswordResetToken.Value)
}

// notify dispatches a notice without affecting the operation's outcome.
func (s *AuthService) notify(noticeType notification.NoticeType, data notification.NotificationData) {
	if s.notificationManager == nil || data.To == "" {
		return
	}
	if err := s.notificationManager.Send(noticeType, data); err != nil {
		slog.Error("Failed to send notification", "err", err, "notice", noticeType)
	}
}
