package session

import (
	"strings"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := New("test-secret", time.Minute, time.Hour)

	tok, err := m.MintAccess(42, "alex@example.test")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	userID, err := m.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := New("test-secret", -time.Minute, time.Hour)
	tok, err := m.MintAccess(1, "a@b.test")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.VerifyAccess(tok); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := New("secret-a", time.Minute, time.Hour).MintAccess(1, "a@b.test")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := New("secret-b", time.Minute, time.Hour).VerifyAccess(tok); err == nil {
		t.Fatal("expected token signed with a different secret to fail")
	}
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	m := New("s", time.Minute, time.Hour)
	plain, hash := m.NewRefreshToken()
	if plain == "" || hash == "" {
		t.Fatal("empty refresh token")
	}
	if strings.Contains(hash, plain) {
		t.Fatal("hash must not embed the plain token")
	}
	if HashRefresh(plain) != hash {
		t.Fatal("hash must be deterministic")
	}
	plain2, hash2 := m.NewRefreshToken()
	if plain2 == plain || hash2 == hash {
		t.Fatal("refresh tokens must be unique")
	}
}
