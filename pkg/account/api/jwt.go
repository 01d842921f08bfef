package api

import (
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkghub/gallery-idm/pkg/user"
)

// Jwt signs access tokens for the account API
type Jwt struct {
	Secret         string
	Expiry         time.Duration
	CookieHttpOnly bool
	CookieSecure   bool
}

type JwtOption func(*Jwt)

func WithExpiry(expiry time.Duration) JwtOption {
	return func(j *Jwt) {
		if expiry > 0 {
			j.Expiry = expiry
		}
	}
}

func WithCookieHttpOnly(httpOnly bool) JwtOption {
	return func(j *Jwt) {
		j.CookieHttpOnly = httpOnly
	}
}

func WithCookieSecure(secure bool) JwtOption {
	return func(j *Jwt) {
		j.CookieSecure = secure
	}
}

func NewJwtService(secret string, opts ...JwtOption) Jwt {
	jwtSvc := Jwt{
		Secret: secret,
		Expiry: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&jwtSvc)
	}
	return jwtSvc
}

// CreateAccessToken signs a token carrying the account's identity claims.
func (j Jwt) CreateAccessToken(usr user.User) (string, time.Time, error) {
	expiry := time.Now().UTC().Add(j.Expiry)
	claims := jwt.MapClaims{
		"sub":      usr.ID.String(),
		"username": usr.Username,
		"iat":      time.Now().UTC().Unix(),
		"exp":      expiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(j.Secret))
	if err != nil {
		slog.Error("Failed to sign access token", "err", err)
		return "", time.Time{}, err
	}
	return ss, expiry, nil
}
