package auth

import "errors"

// Token validation errors.
var (
	// ErrSecretTooShort indicates the signing secret is under 32 bytes.
	ErrSecretTooShort = errors.New("signing secret must be at least 32 bytes")

	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingToken indicates no bearer token was presented.
	ErrMissingToken = errors.New("missing bearer token")
)
