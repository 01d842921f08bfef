package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/pkghub/gallery-idm/pkg/auth"
	"github.com/pkghub/gallery-idm/pkg/emailchange"
	gerrors "github.com/pkghub/gallery-idm/pkg/errors"
	"github.com/pkghub/gallery-idm/pkg/user"
)

type contextKey string

// CurrentUserKey holds the authenticated user.User in the request context.
const CurrentUserKey contextKey = "currentUser"

// Handle exposes the credential and email operations over HTTP.
type Handle struct {
	authService        *auth.AuthService
	emailChangeService *emailchange.EmailChangeService
	repo               user.UserRepository
	jwtService         Jwt
	tokenAuth          *jwtauth.JWTAuth
	resetTTLMinutes    int
}

func NewHandle(authService *auth.AuthService, emailChangeService *emailchange.EmailChangeService, repo user.UserRepository, jwtService Jwt, resetTTLMinutes int) Handle {
	return Handle{
		authService:        authService,
		emailChangeService: emailChangeService,
		repo:               repo,
		jwtService:         jwtService,
		tokenAuth:          jwtauth.New("HS256", []byte(jwtService.Secret), nil),
		resetTTLMinutes:    resetTTLMinutes,
	}
}

// Routes mounts the account endpoints. Credential and email mutations
// require a valid access token; the reset and confirmation flows are
// reachable without one since their callers are locked out by definition.
func (h Handle) Routes(r chi.Router) {
	r.Post("/login", h.PostLogin)
	r.Post("/password/forgot", h.PostForgotPassword)
	r.Post("/password/reset", h.PostResetPassword)
	r.Get("/confirm/{username}/{token}", h.GetConfirmEmail)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator(h.tokenAuth))
		r.Use(h.CurrentUserMiddleware)

		r.Post("/password/change", h.PostChangePassword)
		r.Post("/apikey", h.PostApiKey)
		r.Get("/credentials", h.GetCredentials)
		r.Delete("/credentials/{type}", h.DeleteCredential)
		r.Put("/email", h.PutEmail)
		r.Delete("/email", h.DeleteEmail)
		r.Post("/email/resend", h.PostResendConfirmation)
	})
}

// CurrentUserMiddleware resolves the JWT subject claim to a stored account.
func (h Handle) CurrentUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		id, err := uuid.Parse(sub)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		usr, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserKey, usr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) (user.User, bool) {
	usr, ok := r.Context().Value(CurrentUserKey).(user.User)
	return usr, ok
}

// Login an account
// (POST /login)
func (h Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	data := LoginRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	usr, err := h.authService.Authenticate(r.Context(), data.Identifier, data.Password)
	if err != nil {
		writeMessage(w, r, http.StatusUnauthorized, "Username/Password is wrong")
		return
	}

	accessToken, expiry, err := h.jwtService.CreateAccessToken(usr)
	if err != nil {
		writeMessage(w, r, http.StatusInternalServerError, "Failed to create access token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Path:     "/",
		Value:    accessToken,
		Expires:  expiry,
		HttpOnly: h.jwtService.CookieHttpOnly,
		Secure:   h.jwtService.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	render.JSON(w, r, LoginResponse{
		Status:      "success",
		AccessToken: accessToken,
		Expiry:      expiry,
		Username:    usr.Username,
		Email:       usr.PreferredEmail(),
	})
}

// Start the password reset flow
// (POST /password/forgot)
func (h Handle) PostForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := ForgotPasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	// The response is identical whether or not the account exists.
	if _, err := h.authService.SendPasswordResetInstructions(r.Context(), data.Identifier, h.resetTTLMinutes); err != nil {
		slog.Debug("Password reset lookup failed", "err", err)
	}
	writeMessage(w, r, http.StatusOK, "If the account exists, reset instructions have been sent")
}

// Complete the password reset flow
// (POST /password/reset)
func (h Handle) PostResetPassword(w http.ResponseWriter, r *http.Request) {
	data := ResetPasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	if _, err := h.authService.ResetPasswordWithToken(r.Context(), data.Username, data.Token, data.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Password has been reset")
}

// Change the current account's password
// (POST /password/change)
func (h Handle) PostChangePassword(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	data := ChangePasswordRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	changed, err := h.authService.ChangePassword(r.Context(), usr, data.OldPassword, data.NewPassword, data.RotateApiKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !changed {
		writeMessage(w, r, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	writeMessage(w, r, http.StatusOK, "Password changed")
}

// Issue or replace the account's API key
// (POST /apikey)
func (h Handle) PostApiKey(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	data := ApiKeyRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	cred, _, err := h.authService.IssueAPIKey(r.Context(), usr, data.ExpirationInDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ApiKeyResponse{Key: cred.Value}
	if !cred.Expires.IsZero() {
		expires := cred.Expires
		resp.Expires = &expires
	}
	render.JSON(w, r, resp)
}

// List the account's credentials in display form
// (GET /credentials)
func (h Handle) GetCredentials(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	descriptions := h.authService.ListCredentials(usr)
	responses := make([]CredentialResponse, 0, len(descriptions))
	for _, d := range descriptions {
		resp := CredentialResponse{}
		if err := copier.Copy(&resp, &d); err != nil {
			slog.Error("Failed to copy credential description", "err", err)
			continue
		}
		if d.Expires.IsZero() {
			resp.Expires = nil
		}
		responses = append(responses, resp)
	}
	render.JSON(w, r, responses)
}

// Remove a credential by type
// (DELETE /credentials/{type})
func (h Handle) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	credType := chi.URLParam(r, "type")
	if _, err := h.authService.RemoveCredential(r.Context(), usr, credType); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Credential removed")
}

// Stage an email change
// (PUT /email)
func (h Handle) PutEmail(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	data := ChangeEmailRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Unable to parse request body")
		return
	}

	if _, err := h.emailChangeService.ChangeEmailAddress(r.Context(), usr, data.NewEmail); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Confirmation email sent to the new address")
}

// Cancel a pending email change
// (DELETE /email)
func (h Handle) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if _, err := h.emailChangeService.CancelChangeEmailAddress(r.Context(), usr); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Pending email change cancelled")
}

// Resend the pending address confirmation
// (POST /email/resend)
func (h Handle) PostResendConfirmation(w http.ResponseWriter, r *http.Request) {
	usr, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if _, err := h.emailChangeService.ResendConfirmation(r.Context(), usr); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Confirmation email sent")
}

// Confirm an email address from the emailed link
// (GET /confirm/{username}/{token})
func (h Handle) GetConfirmEmail(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	token := chi.URLParam(r, "token")

	usr, err := h.repo.FindByUsername(r.Context(), username)
	if err != nil {
		// Indistinguishable from a bad token
		writeMessage(w, r, http.StatusBadRequest, "Confirmation failed")
		return
	}

	confirmed, err := h.emailChangeService.ConfirmEmailAddress(r.Context(), usr, token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !confirmed {
		writeMessage(w, r, http.StatusBadRequest, "Confirmation failed")
		return
	}
	writeMessage(w, r, http.StatusOK, "Email address confirmed")
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, MessageResponse{Message: message})
}

// writeError maps domain sentinels onto the shared error taxonomy and its
// HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := gerrors.ErrCodeInternal
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		code = gerrors.ErrCodeInvalidCredentials
	case errors.Is(err, auth.ErrTokenInvalid):
		code = gerrors.ErrCodeTokenInvalid
	case errors.Is(err, auth.ErrCannotRemoveOnlyLoginCredential):
		code = gerrors.ErrCodeInvariantViolation
	case errors.Is(err, auth.ErrPasswordComplexity):
		code = gerrors.ErrCodePasswordComplexity
	case errors.Is(err, auth.ErrCredentialNotFound):
		code = gerrors.ErrCodeNotFound
	case errors.Is(err, emailchange.ErrDuplicateEmail):
		code = gerrors.ErrCodeDuplicateEmail
	case errors.Is(err, emailchange.ErrInvalidEmail), errors.Is(err, emailchange.ErrNoChangeInFlight):
		code = gerrors.ErrCodeInvalidInput
	case errors.Is(err, user.ErrUserNotFound):
		code = gerrors.ErrCodeUserNotFound
	case errors.Is(err, user.ErrConcurrencyConflict):
		code = gerrors.ErrCodeConcurrencyConflict
	}

	status := gerrors.MapErrorCodeToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "err", err, "code", code)
		writeMessage(w, r, status, "Internal error")
		return
	}

	render.Status(r, status)
	render.JSON(w, r, credentialError(code, err))
}

func credentialError(code gerrors.ErrorCode, err error) map[string]string {
	return map[string]string{
		"code":    string(code),
		"message": err.Error(),
	}
}
