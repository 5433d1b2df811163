package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vantagesec/reportkit/models"
)

func TestCreateReportStartsAsDraftWithValidation(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)

	missing := doJSON(t, h, http.MethodPost, "/reports", sess.AccessToken, map[string]any{
		"application_name": "Portal",
		"assessment_type":  "External",
		"test_location":    "Off-site",
	})
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("missing client_name: expected 400, got %d", missing.Code)
	}

	badType := doJSON(t, h, http.MethodPost, "/reports", sess.AccessToken, map[string]any{
		"client_name":      "Acme",
		"application_name": "Portal",
		"assessment_type":  "Hybrid",
		"test_location":    "Off-site",
	})
	if badType.Code != http.StatusBadRequest {
		t.Fatalf("invalid assessment_type: expected 400, got %d", badType.Code)
	}

	id := seedReport(t, h, sess.AccessToken, "Acme Corp")
	get := doJSON(t, h, http.MethodGet, fmt.Sprintf("/reports/%d", id), sess.AccessToken, nil)
	var r models.Report
	decodeInto(t, get, &r)
	if r.Status != models.ReportDraft {
		t.Fatalf("new reports start as Draft, got %q", r.Status)
	}
	if len(r.Targets) != 1 || r.Targets[0] != "https://billing.example.com" {
		t.Fatalf("targets should round-trip, got %v", r.Targets)
	}
}

func TestUpdateReportIsPartialAndStatusUnguarded(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	id := seedReport(t, h, sess.AccessToken, "Acme Corp")

	// Any valid status may follow any other.
	for _, status := range []string{"Verified", "Draft", "Completed", "In Progress"} {
		rr := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/reports/%d", id), sess.AccessToken,
			map[string]any{"status": status})
		if rr.Code != http.StatusOK {
			t.Fatalf("status %q: expected 200, got %d: %s", status, rr.Code, rr.Body.String())
		}
	}
	bad := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/reports/%d", id), sess.AccessToken,
		map[string]any{"status": "Archived"})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", bad.Code)
	}

	// Untouched fields survive a partial patch.
	patch := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/reports/%d", id), sess.AccessToken,
		map[string]any{"prepared_by": "J. Tester"})
	var r models.Report
	decodeInto(t, patch, &r)
	if r.PreparedBy != "J. Tester" {
		t.Fatalf("patched field lost, got %q", r.PreparedBy)
	}
	if r.ClientName != "Acme Corp" || r.ApplicationName != "Billing Portal" {
		t.Fatalf("partial patch clobbered other fields: %+v", r)
	}
}

func TestListReportsComputesFindingsCount(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	defA := seedDefinition(t, h, sess.AccessToken, "SQLi", "CRITICAL")
	defB := seedDefinition(t, h, sess.AccessToken, "XSS", "MEDIUM")
	id := seedReport(t, h, sess.AccessToken, "Acme Corp")

	for _, defID := range []int64{defA, defB} {
		doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", id), sess.AccessToken,
			map[string]any{"definition_id": defID})
	}

	rr := doJSON(t, h, http.MethodGet, "/reports", sess.AccessToken, nil)
	var page struct {
		Items []models.Report `json:"items"`
		Total int             `json:"total"`
	}
	decodeInto(t, rr, &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected one report, got %+v", page)
	}
	if page.Items[0].FindingsCount != 2 {
		t.Fatalf("findings_count should be derived as 2, got %d", page.Items[0].FindingsCount)
	}
}

func TestDeleteReportCascadesFindingsAndEvidence(t *testing.T) {
	s, h := newTestServer(t)
	sess := registerUser(t, h)
	defID := seedDefinition(t, h, sess.AccessToken, "SSRF", "HIGH")
	reportID := seedReport(t, h, sess.AccessToken, "Acme Corp")

	create := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), sess.AccessToken,
		map[string]any{"definition_id": defID})
	var f findingView
	decodeInto(t, create, &f)

	ev := uploadTestEvidence(t, h, sess.AccessToken, f.ID, "Request capture")
	blobPath := filepath.Join(s.evidenceDir, ev.FileRef)
	if _, err := os.Stat(blobPath); err != nil {
		t.Fatalf("evidence blob should exist before delete: %v", err)
	}

	del := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/reports/%d", reportID), sess.AccessToken, nil)
	if del.Code != http.StatusOK {
		t.Fatalf("delete report: expected 200, got %d: %s", del.Code, del.Body.String())
	}

	if rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/reports/%d", reportID), sess.AccessToken, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("report should be gone, got %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/findings/%d/evidence", f.ID), sess.AccessToken, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("finding should be gone, got %d", rr.Code)
	}
	if _, err := os.Stat(blobPath); !os.IsNotExist(err) {
		t.Fatalf("evidence blob should be removed, stat err=%v", err)
	}

	// Referenced catalog definitions survive report deletion.
	if rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/vulnerabilities/%d", defID), sess.AccessToken, nil); rr.Code != http.StatusOK {
		t.Fatalf("definition must outlive the report, got %d", rr.Code)
	}
}

// uploadTestEvidence posts a small multipart attachment.
func uploadTestEvidence(t *testing.T, h http.Handler, token string, findingID int64, title string) models.Evidence {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", title); err != nil {
		t.Fatalf("writing title field: %v", err)
	}
	part, err := mw.CreateFormFile("file", "capture.txt")
	if err != nil {
		t.Fatalf("creating file part: %v", err)
	}
	if _, err := io.WriteString(part, "GET /admin HTTP/1.1"); err != nil {
		t.Fatalf("writing file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/findings/%d/evidence", findingID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload evidence: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var ev models.Evidence
	decodeInto(t, rr, &ev)
	return ev
}
