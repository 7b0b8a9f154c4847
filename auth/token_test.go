package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestGenerateToken(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		token, err := GenerateToken(testSecret, "secflow", "client-1", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}

		v := NewVerifier(testSecret, "secflow")
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		if err := v.Authorize(r); err != nil {
			t.Errorf("Authorize: %v", err)
		}
	})

	t.Run("short secret rejected", func(t *testing.T) {
		if _, err := GenerateToken([]byte("short"), "secflow", "c", 0); !errors.Is(err, ErrSecretTooShort) {
			t.Errorf("err = %v, want ErrSecretTooShort", err)
		}
	})
}

func TestVerifierAuthorize(t *testing.T) {
	v := NewVerifier(testSecret, "secflow")

	t.Run("missing token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		if err := v.Authorize(r); !errors.Is(err, ErrMissingToken) {
			t.Errorf("err = %v, want ErrMissingToken", err)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		r.Header.Set("Authorization", "Basic xyz")
		if err := v.Authorize(r); !errors.Is(err, ErrMissingToken) {
			t.Errorf("err = %v, want ErrMissingToken", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		r.Header.Set("Authorization", "Bearer not.a.token")
		if err := v.Authorize(r); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := []byte("ffffffffffffffffffffffffffffffff")
		token, err := GenerateToken(other, "secflow", "c", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		if err := v.Authorize(r); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := GenerateToken(testSecret, "someone-else", "c", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		if err := v.Authorize(r); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := GenerateToken(testSecret, "secflow", "c", -time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		r := httptest.NewRequest("GET", "/ws/scan/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		if err := v.Authorize(r); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("err = %v, want ErrTokenExpired", err)
		}
	})
}

func TestVerifierDisabled(t *testing.T) {
	v := NewVerifier(nil, "")
	if v.Enabled() {
		t.Error("zero-secret verifier reports enabled")
	}

	r := httptest.NewRequest("GET", "/ws/scan/", nil)
	if err := v.Authorize(r); err != nil {
		t.Errorf("disabled verifier rejected request: %v", err)
	}
}
