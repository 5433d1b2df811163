package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/vantagesec/reportkit/models"
)

func TestDeleteReferencedDefinitionConflicts(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	defID := seedDefinition(t, h, sess.AccessToken, "IDOR", "HIGH")
	reportID := seedReport(t, h, sess.AccessToken, "Acme Corp")
	doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken,
		map[string]any{"definition_id": defID})

	rr := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/vulnerabilities/%d", defID), sess.AccessToken, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("referenced definition: expected 409, got %d: %s", rr.Code, rr.Body.String())
	}

	// Remove the reference; the delete goes through.
	del := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/reports/%d", reportID), sess.AccessToken, nil)
	if del.Code != http.StatusOK {
		t.Fatalf("deleting report: expected 200, got %d", del.Code)
	}
	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/vulnerabilities/%d", defID), sess.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unreferenced definition: expected 200, got %d", rr.Code)
	}
}

func TestDeleteCategoryUngroupsDefinitions(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	cat := doJSON(t, h, http.MethodPost, "/categories", sess.AccessToken,
		map[string]string{"code": "A01", "name": "Broken Access Control"})
	if cat.Code != http.StatusCreated {
		t.Fatalf("creating category: expected 201, got %d", cat.Code)
	}
	var category models.Category
	decodeInto(t, cat, &category)

	def := doJSON(t, h, http.MethodPost, "/vulnerabilities", sess.AccessToken, map[string]any{
		"title":            "Vertical Privilege Escalation",
		"default_severity": "HIGH",
		"category_id":      category.ID,
	})
	var created models.Definition
	decodeInto(t, def, &created)
	if created.CategoryID == nil || *created.CategoryID != category.ID {
		t.Fatalf("definition should be grouped under %d, got %v", category.ID, created.CategoryID)
	}

	if rr := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/categories/%d", category.ID), sess.AccessToken, nil); rr.Code != http.StatusOK {
		t.Fatalf("deleting category: expected 200, got %d", rr.Code)
	}

	get := doJSON(t, h, http.MethodGet, fmt.Sprintf("/vulnerabilities/%d", created.ID), sess.AccessToken, nil)
	if get.Code != http.StatusOK {
		t.Fatalf("definition must survive category deletion, got %d", get.Code)
	}
	var after models.Definition
	decodeInto(t, get, &after)
	if after.CategoryID != nil {
		t.Fatalf("definition should be ungrouped, got category %v", *after.CategoryID)
	}
}

func TestCreateCategoryRejectsDuplicateCode(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	body := map[string]string{"code": "A03", "name": "Injection"}
	if rr := doJSON(t, h, http.MethodPost, "/categories", sess.AccessToken, body); rr.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodPost, "/categories", sess.AccessToken, body); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate code: expected 409, got %d", rr.Code)
	}
}

func TestDefinitionSeverityNormalizedOnWrite(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	rr := doJSON(t, h, http.MethodPost, "/vulnerabilities", sess.AccessToken, map[string]any{
		"title":            "Weak TLS Configuration",
		"default_severity": "medium",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var def models.Definition
	decodeInto(t, rr, &def)
	if def.DefaultSeverity != models.SeverityMedium {
		t.Fatalf("severity should be stored uppercase, got %q", def.DefaultSeverity)
	}

	bad := doJSON(t, h, http.MethodPost, "/vulnerabilities", sess.AccessToken, map[string]any{
		"title":            "Bad Severity",
		"default_severity": "SEVERE",
	})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("unknown severity: expected 400, got %d", bad.Code)
	}
	if !strings.Contains(bad.Body.String(), "default_severity") {
		t.Fatalf("error should name the field: %s", bad.Body.String())
	}
}
