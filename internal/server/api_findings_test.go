package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/vantagesec/reportkit/models"
)

func TestSeedingSameDefinitionTwiceReturnsExistingFinding(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	defID := seedDefinition(t, h, sess.AccessToken, "SQL Injection", "CRITICAL")
	reportID := seedReport(t, h, sess.AccessToken, "Acme Corp")

	body := map[string]any{"definition_id": defID, "affected_url": "https://a.example.com"}
	first := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken, body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first seed: expected 201, got %d: %s", first.Code, first.Body.String())
	}
	var created findingView
	decodeInto(t, first, &created)

	second := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken, body)
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate seed: expected 200, got %d: %s", second.Code, second.Body.String())
	}
	var dup findingView
	decodeInto(t, second, &dup)
	if dup.ID != created.ID {
		t.Fatalf("duplicate seed should return the existing finding %d, got %d", created.ID, dup.ID)
	}

	list := doJSON(t, h, http.MethodGet, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken, nil)
	var listing struct {
		Total int `json:"total"`
	}
	decodeInto(t, list, &listing)
	if listing.Total != 1 {
		t.Fatalf("expected exactly one finding, got %d", listing.Total)
	}
}

func TestCustomFindingRequiresAllContentFields(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	reportID := seedReport(t, h, sess.AccessToken, "Acme Corp")

	rr := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken, map[string]any{
		"override_title":    "Bespoke Issue",
		"override_severity": "HIGH",
		// description, impact, remediation missing
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	full := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken, map[string]any{
		"override_title":       "Bespoke Issue",
		"override_severity":    "high",
		"override_description": "d",
		"override_impact":      "i",
		"override_remediation": "r",
	})
	if full.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", full.Code, full.Body.String())
	}
	var f findingView
	decodeInto(t, full, &f)
	if f.Resolved.Severity != models.SeverityHigh {
		t.Fatalf("severity should be normalized uppercase, got %q", f.Resolved.Severity)
	}
}

func TestResolutionFallsBackPerFieldAndTracksDefinitionEdits(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	defID := seedDefinition(t, h, sess.AccessToken, "Stored XSS", "MEDIUM")
	reportID := seedReport(t, h, sess.AccessToken, "Acme Corp")

	create := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken, map[string]any{
		"definition_id":  defID,
		"override_title": "Stored XSS in comments",
	})
	var f findingView
	decodeInto(t, create, &f)
	if f.Resolved.Title != "Stored XSS in comments" {
		t.Fatalf("override title should win, got %q", f.Resolved.Title)
	}
	if f.Resolved.Severity != models.SeverityMedium {
		t.Fatalf("severity should fall back to the definition, got %q", f.Resolved.Severity)
	}
	if f.Resolved.Description != "Default description for Stored XSS" {
		t.Fatalf("description should fall back, got %q", f.Resolved.Description)
	}

	// Editing the definition shows through on the next resolution.
	edit := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/vulnerabilities/%d", defID), sess.AccessToken, map[string]any{
		"default_severity": "HIGH",
		"description":      "Sharper description",
	})
	if edit.Code != http.StatusOK {
		t.Fatalf("definition edit: expected 200, got %d", edit.Code)
	}

	get := doJSON(t, h, http.MethodGet, fmt.Sprintf("/reports/%d/findings/%d", reportID, f.ID), sess.AccessToken, nil)
	var again findingView
	decodeInto(t, get, &again)
	if again.Resolved.Severity != models.SeverityHigh {
		t.Fatalf("definition edit should show through, got %q", again.Resolved.Severity)
	}
	if again.Resolved.Description != "Sharper description" {
		t.Fatalf("definition edit should show through, got %q", again.Resolved.Description)
	}
	if again.Resolved.Title != "Stored XSS in comments" {
		t.Fatalf("override must keep winning, got %q", again.Resolved.Title)
	}
}

func TestRemediationStatusEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	defID := seedDefinition(t, h, sess.AccessToken, "Open Redirect", "LOW")
	reportID := seedReport(t, h, sess.AccessToken, "Acme Corp")

	create := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken,
		map[string]any{"definition_id": defID})
	var f findingView
	decodeInto(t, create, &f)
	if f.RemediationStatus != models.RemediationPending {
		t.Fatalf("new findings start Pending, got %q", f.RemediationStatus)
	}

	patched := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/findings/%d", f.ID), sess.AccessToken,
		map[string]string{"remediation_status": "Patched"})
	if patched.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", patched.Code, patched.Body.String())
	}
	var after findingView
	decodeInto(t, patched, &after)
	if after.RemediationStatus != models.RemediationPatched {
		t.Fatalf("expected Patched, got %q", after.RemediationStatus)
	}

	bad := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/findings/%d", f.ID), sess.AccessToken,
		map[string]string{"remediation_status": "Fixed"})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", bad.Code)
	}
}

func TestFindingScopedToItsReport(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	defID := seedDefinition(t, h, sess.AccessToken, "CSRF", "MEDIUM")
	reportA := seedReport(t, h, sess.AccessToken, "Acme Corp")
	reportB := seedReport(t, h, sess.AccessToken, "Globex")

	create := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportA), sess.AccessToken,
		map[string]any{"definition_id": defID})
	var f findingView
	decodeInto(t, create, &f)

	rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/reports/%d/findings/%d", reportB, f.ID), sess.AccessToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("finding must not be visible under another report, got %d", rr.Code)
	}
}
