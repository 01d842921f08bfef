package api

import "time"

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Status      string    `json:"status"`
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	RotateApiKey bool   `json:"rotate_api_key"`
}

type ApiKeyRequest struct {
	ExpirationInDays int `json:"expiration_in_days"`
}

type ApiKeyResponse struct {
	Key     string     `json:"key"`
	Expires *time.Time `json:"expires,omitempty"`
}

type ChangeEmailRequest struct {
	NewEmail string `json:"new_email"`
}

type CredentialResponse struct {
	Type        string     `json:"type"`
	TypeCaption string     `json:"type_caption"`
	Identity    string     `json:"identity,omitempty"`
	Created     time.Time  `json:"created"`
	Expires     *time.Time `json:"expires,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
