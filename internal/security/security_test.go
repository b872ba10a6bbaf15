package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if errCheck := CheckPassword(hash, "hunter22"); errCheck != nil {
		t.Fatalf("expected match, got %v", errCheck)
	}
	if errCheck := CheckPassword(hash, "hunter23"); !errors.Is(errCheck, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", errCheck)
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := NewSessionToken("secret", time.Hour, "u1", "u1@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future, got %s", expiresAt)
	}
	claims, err := ParseSessionToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "u1@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err = ParseSessionToken("other", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestSessionTokenExpired(t *testing.T) {
	token, _, err := NewSessionToken("secret", -time.Minute, "u1", "u1@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err = ParseSessionToken("secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestGenerateKeySuffix(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		suffix, err := GenerateKeySuffix(16)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(suffix) != 16 {
			t.Fatalf("expected 16 chars, got %q", suffix)
		}
		for _, r := range suffix {
			if !strings.ContainsRune(KeyAlphabet, r) {
				t.Fatalf("unexpected symbol %q in %q", r, suffix)
			}
		}
		if _, dup := seen[suffix]; dup {
			t.Fatalf("duplicate suffix %q", suffix)
		}
		seen[suffix] = struct{}{}
	}
	if _, err := GenerateKeySuffix(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token")
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashToken("token") || a == HashToken("other") {
		t.Fatalf("expected deterministic distinct digests")
	}
}

func TestTOTPEnrollmentValidates(t *testing.T) {
	enrollment, err := NewTOTPEnrollment("player@example.com")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if !strings.HasPrefix(enrollment.URL, "otpauth://totp/") {
		t.Fatalf("unexpected url %q", enrollment.URL)
	}
	code, err := TOTPCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if !ValidateTOTP(enrollment.Secret, code) {
		t.Fatalf("expected current code to validate")
	}
	if ValidateTOTP(enrollment.Secret, "") {
		t.Fatalf("expected empty code to fail")
	}
}
