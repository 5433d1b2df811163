package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vantagesec/reportkit/internal/config"
	"github.com/vantagesec/reportkit/internal/database"
)

// newTestServer spins up a Server over a fresh temp SQLite database.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(dir, "test.db"),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{EvidenceDir: filepath.Join(dir, "evidence")},
		Session: config.SessionConfig{
			Secret:           "test-secret",
			AccessTTLMinutes: 15,
			RefreshTTLHours:  24,
			PurgeSchedule:    "@hourly",
		},
	}
	s := New(cfg, db)
	if err := os.MkdirAll(s.evidenceDir, 0o700); err != nil {
		t.Fatalf("creating evidence dir: %v", err)
	}
	return s, buildHandler(s)
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dest); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
}

var testUserSeq int

// registerUser creates a fresh account and returns the session tokens.
func registerUser(t *testing.T, h http.Handler) tokenResponse {
	t.Helper()
	testUserSeq++
	rr := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     fmt.Sprintf("assessor%d@vantagesec.test", testUserSeq),
		"password":  "correct-horse",
		"full_name": "Test Assessor",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp tokenResponse
	decodeInto(t, rr, &resp)
	return resp
}

// seedDefinition inserts a catalog definition and returns its id.
func seedDefinition(t *testing.T, h http.Handler, token, title, severity string) int64 {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/vulnerabilities", token, map[string]any{
		"title":            title,
		"default_severity": severity,
		"description":      "Default description for " + title,
		"impact":           "Default impact",
		"remediation":      "Default remediation",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("seeding definition: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var def struct {
		ID int64 `json:"id"`
	}
	decodeInto(t, rr, &def)
	return def.ID
}

// seedReport creates a minimal valid report and returns its id.
func seedReport(t *testing.T, h http.Handler, token, clientName string) int64 {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/reports", token, map[string]any{
		"client_name":      clientName,
		"application_name": "Billing Portal",
		"assessment_type":  "External",
		"test_location":    "Off-site",
		"targets":          []string{"https://billing.example.com"},
		"start_date":       "2026-08-01",
		"end_date":         "2026-08-14",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("seeding report: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var r struct {
		ID int64 `json:"id"`
	}
	decodeInto(t, rr, &r)
	return r.ID
}

func TestHealthEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	_, h := newTestServer(t)
	rr := doJSON(t, h, http.MethodGet, "/reports", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
