package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "google:123", Email: "user@example.com", Name: "Test User"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "google:123" || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSignRequiresSub(t *testing.T) {
	if _, err := SignJWT(Claims{Email: "user@example.com"}); err == nil {
		t.Fatal("expected error for missing sub")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	token, err := SignJWT(Claims{Sub: "google:123"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parts := strings.Split(token, ".")
	parts[2] = parts[2][:len(parts[2])-2] + "xx"
	if _, err := VerifyJWT(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b", "a.b.c.d"} {
		if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	past := time.Now().UTC().Add(-8 * 24 * time.Hour).Unix()
	token, err := SignJWT(Claims{Sub: "google:123", Iat: past, Exp: past + int64(SessionTTL/time.Second)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyRejectsStaleLoginDespiteFutureExp(t *testing.T) {
	past := time.Now().UTC().Add(-8 * 24 * time.Hour).Unix()
	token, err := SignJWT(Claims{Sub: "google:123", Iat: past, Exp: time.Now().UTC().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
