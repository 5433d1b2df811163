package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantagesec/reportkit/models"
)

// maxEvidenceSize caps a single uploaded attachment at 32 MiB.
const maxEvidenceSize = 32 << 20

const evidenceColumns = `id, finding_id, title, file_ref, description, created_at`

func (s *Server) findingExists(r *http.Request, id int64) bool {
	var cnt countRow
	err := s.db.Get(r.Context(), &cnt, `SELECT COUNT(*) AS n FROM findings WHERE id = ?`, id)
	return err == nil && cnt.N > 0
}

// handleListEvidence returns a finding's attachments in insertion order.
func (s *Server) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	findingID, err := pathID(r, "fid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.findingExists(r, findingID) {
		writeError(w, http.StatusNotFound, "finding not found")
		return
	}

	var items []models.Evidence
	err = s.db.Select(r.Context(), &items, `SELECT `+evidenceColumns+` FROM evidence WHERE finding_id = ? ORDER BY id`, findingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing evidence")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// handleUploadEvidence accepts a multipart form with a required title and
// file part plus an optional description. The stored blob name is generated
// server side; the client-supplied filename only contributes its extension.
func (s *Server) handleUploadEvidence(w http.ResponseWriter, r *http.Request) {
	findingID, err := pathID(r, "fid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.findingExists(r, findingID) {
		writeError(w, http.StatusNotFound, "finding not found")
		return
	}

	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if len(ext) > 16 {
		ext = ""
	}
	fileRef := uuid.NewString() + ext
	destPath, err := validateSafePath(s.evidenceDir, fileRef)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	dest, err := os.Create(destPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storing evidence file")
		return
	}
	if _, err := io.Copy(dest, io.LimitReader(file, maxEvidenceSize)); err != nil {
		dest.Close()
		_ = os.Remove(destPath)
		writeError(w, http.StatusInternalServerError, "storing evidence file")
		return
	}
	if err := dest.Close(); err != nil {
		_ = os.Remove(destPath)
		writeError(w, http.StatusInternalServerError, "storing evidence file")
		return
	}

	ev := models.Evidence{
		FindingID:   findingID,
		Title:       title,
		FileRef:     fileRef,
		Description: strings.TrimSpace(r.FormValue("description")),
		CreatedAt:   time.Now().UTC(),
	}
	id, err := s.db.Insert(r.Context(), "evidence", &ev)
	if err != nil {
		_ = os.Remove(destPath)
		writeError(w, http.StatusInternalServerError, "creating evidence record")
		return
	}
	ev.ID = id
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleDeleteEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	var ev models.Evidence
	if err := s.db.Get(ctx, &ev, `SELECT `+evidenceColumns+` FROM evidence WHERE id = ?`, id); err != nil {
		writeError(w, http.StatusNotFound, "evidence not found")
		return
	}

	s.removeEvidenceBlob(ev.FileRef)
	if err := s.db.Exec(ctx, `DELETE FROM evidence WHERE id = ?`, id); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting evidence")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}
