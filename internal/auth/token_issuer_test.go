package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/whitelex/ai-writer-assistant/internal/accounts"
)

var testUser = accounts.User{ID: "user-1", Email: "writer@example.com"}

func newTestIssuer(clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "inkwell-auth",
		Audience:      "inkwell-api",
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	token, expiresIn, err := issuer.IssueToken(testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expiresIn != 3600 {
		t.Fatalf("expected expiry of 3600 seconds, got %d", expiresIn)
	}

	user, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != testUser {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	token, _, err := issuer.IssueToken(testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	later := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "inkwell-auth",
		Audience:      "inkwell-api",
		TokenTTL:      time.Hour,
		Clock:         func() time.Time { return now.Add(2 * time.Hour) },
	})
	if _, err := later.ValidateToken(token); err == nil {
		t.Fatalf("expected validation failure for expired token")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	token, _, err := issuer.IssueToken(testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("another-secret"),
		Issuer:        "inkwell-auth",
		Audience:      "inkwell-api",
		Clock:         func() time.Time { return now },
	})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected validation failure for wrong secret")
	}
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	token, _, err := issuer.IssueToken(testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "inkwell-auth",
		Audience:      "another-service",
		Clock:         func() time.Time { return now },
	})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected validation failure for wrong audience")
	}
}

func TestValidateRejectsUnexpectedAlgorithm(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		Email: testUser.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUser.ID,
			Issuer:    "inkwell-auth",
			Audience:  []string{"inkwell-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := issuer.ValidateToken(token); err == nil {
		t.Fatalf("expected validation failure for alg none")
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	issuer := newTestIssuer(time.Now)
	if _, _, err := issuer.IssueToken(accounts.User{Email: "writer@example.com"}); err == nil {
		t.Fatalf("expected error for user without id")
	}
}
