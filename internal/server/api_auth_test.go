package server

import (
	"net/http"
	"testing"
)

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	_, h := newTestServer(t)

	body := map[string]string{
		"email":    "dup@vantagesec.test",
		"password": "long-enough",
	}
	if rr := doJSON(t, h, http.MethodPost, "/auth/register", "", body); rr.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodPost, "/auth/register", "", body); rr.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", rr.Code)
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	_, h := newTestServer(t)

	cases := []map[string]string{
		{"email": "not-an-email", "password": "long-enough"},
		{"email": "ok@vantagesec.test", "password": "short"},
	}
	for _, body := range cases {
		if rr := doJSON(t, h, http.MethodPost, "/auth/register", "", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, rr.Code)
		}
	}
}

func TestLoginWrongPasswordIsIndistinguishableFromUnknownUser(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	wrongPass := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    sess.User.Email,
		"password": "wrong-password",
	})
	unknownUser := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "nobody@vantagesec.test",
		"password": "wrong-password",
	})
	if wrongPass.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, unknownUser.Code)
	}
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Fatalf("login failures should be indistinguishable: %q vs %q",
			wrongPass.Body.String(), unknownUser.Body.String())
	}
}

func TestRefreshRotatesAndConsumesToken(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	first := doJSON(t, h, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": sess.RefreshToken,
	})
	if first.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", first.Code, first.Body.String())
	}
	var rotated tokenResponse
	decodeInto(t, first, &rotated)
	if rotated.RefreshToken == sess.RefreshToken {
		t.Fatal("refresh should issue a new refresh token")
	}

	// The presented token was consumed; replaying it must fail.
	replay := doJSON(t, h, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": sess.RefreshToken,
	})
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: expected 401, got %d", replay.Code)
	}

	// The rotated token works.
	second := doJSON(t, h, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": rotated.RefreshToken,
	})
	if second.Code != http.StatusOK {
		t.Fatalf("rotated refresh: expected 200, got %d", second.Code)
	}
}

func TestMeReturnsAccountWithoutPasswordHash(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	rr := doJSON(t, h, http.MethodGet, "/auth/me", sess.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var raw map[string]any
	decodeInto(t, rr, &raw)
	if _, leaked := raw["password_hash"]; leaked {
		t.Fatal("password_hash must never appear in responses")
	}
	if raw["email"] != sess.User.Email {
		t.Fatalf("unexpected email %v", raw["email"])
	}
}
