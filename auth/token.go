package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultTokenTTL is the default lifetime of issued tokens.
const DefaultTokenTTL = 24 * time.Hour

// Verifier validates bearer tokens on incoming requests. A zero-secret
// verifier accepts everything, which keeps authentication opt-in.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier for the given HMAC secret. An empty secret
// disables verification.
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

// Enabled reports whether verification is active.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Authorize checks the request's Authorization header. With verification
// disabled it always succeeds.
func (v *Verifier) Authorize(r *http.Request) error {
	if !v.Enabled() {
		return nil
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ErrMissingToken
	}
	return v.validate(token)
}

func (v *Verifier) validate(tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}

	// Verify issuer if configured
	if v.issuer != "" && claims.Issuer != v.issuer {
		return ErrInvalidToken
	}
	return nil
}

// GenerateToken creates a signed HS256 token with the given subject. Used by
// operators to mint client tokens; ttl of zero means DefaultTokenTTL.
func GenerateToken(secret []byte, issuer, subject string, ttl time.Duration) (string, error) {
	if len(secret) < 32 {
		return "", ErrSecretTooShort
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        tokenID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
