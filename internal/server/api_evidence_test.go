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

func newTestFinding(t *testing.T, h http.Handler, token string) int64 {
	t.Helper()
	defID := seedDefinition(t, h, token, "Directory Listing", "LOW")
	reportID := seedReport(t, h, token, "Acme Corp")
	rr := doJSON(t, h, http.MethodPost, fmt.Sprintf("/reports/%d/findings", reportID), token,
		map[string]any{"definition_id": defID})
	var f findingView
	decodeInto(t, rr, &f)
	return f.ID
}

func TestUploadEvidenceRequiresTitleAndFile(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	findingID := newTestFinding(t, h, sess.AccessToken)

	// Title missing.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "shot.png")
	_, _ = io.WriteString(part, "png-bytes")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/findings/%d/evidence", findingID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing title: expected 400, got %d", rr.Code)
	}

	// File missing.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Screenshot")
	_ = mw.Close()
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/findings/%d/evidence", findingID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", rr.Code)
	}
}

func TestEvidenceListedInInsertionOrder(t *testing.T) {
	_, h := newTestServer(t)
	sess := registerUser(t, h)
	findingID := newTestFinding(t, h, sess.AccessToken)

	titles := []string{"First capture", "Second capture", "Third capture"}
	for _, title := range titles {
		uploadTestEvidence(t, h, sess.AccessToken, findingID, title)
	}

	rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/findings/%d/evidence", findingID), sess.AccessToken, nil)
	var listing struct {
		Items []models.Evidence `json:"items"`
	}
	decodeInto(t, rr, &listing)
	if len(listing.Items) != len(titles) {
		t.Fatalf("expected %d items, got %d", len(titles), len(listing.Items))
	}
	for i, ev := range listing.Items {
		if ev.Title != titles[i] {
			t.Fatalf("insertion order broken at %d: got %q, want %q", i, ev.Title, titles[i])
		}
	}
}

func TestDeleteEvidenceRemovesBlob(t *testing.T) {
	s, h := newTestServer(t)
	sess := registerUser(t, h)
	findingID := newTestFinding(t, h, sess.AccessToken)

	ev := uploadTestEvidence(t, h, sess.AccessToken, findingID, "Burp export")
	blobPath := filepath.Join(s.evidenceDir, ev.FileRef)
	if _, err := os.Stat(blobPath); err != nil {
		t.Fatalf("blob should exist after upload: %v", err)
	}

	rr := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/evidence/%d", ev.ID), sess.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, err := os.Stat(blobPath); !os.IsNotExist(err) {
		t.Fatalf("blob should be removed, stat err=%v", err)
	}
}
