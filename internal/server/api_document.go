package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vantagesec/reportkit/internal/document"
	"github.com/vantagesec/reportkit/models"
)

// handleExportDocument renders the report with all findings resolved at
// request time. With ?download=1 the response carries an attachment
// disposition naming the suggested file.
func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, ok := s.getReportRow(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	ctx := r.Context()
	var findings []models.Finding
	if err := s.db.Select(ctx, &findings, `SELECT `+findingColumns+` FROM findings WHERE report_id = ? ORDER BY id`, id); err != nil {
		writeError(w, http.StatusInternalServerError, "loading findings")
		return
	}

	in := document.Input{Report: row.toModel(len(findings))}
	for _, f := range findings {
		view := s.resolveFinding(r, f)
		var evidence []models.Evidence
		_ = s.db.Select(ctx, &evidence, `SELECT `+evidenceColumns+` FROM evidence WHERE finding_id = ? ORDER BY id`, f.ID)
		in.Findings = append(in.Findings, document.Item{
			Resolved:          view.Resolved,
			AffectedURL:       f.AffectedURL,
			RemediationStatus: f.RemediationStatus,
			Evidence:          evidence,
		})
	}

	data, err := s.renderer.Render(in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rendering document")
		return
	}

	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", s.renderer.Filename(in)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
