package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/vantagesec/reportkit/models"
)

const findingColumns = `id, report_id, definition_id, affected_url, override_title,
	override_severity, override_description, override_impact, override_remediation,
	remediation_status, created_at`

// findingView pairs the raw finding with its resolved content so clients
// never have to re-implement the fallback rules.
type findingView struct {
	models.Finding
	Resolved models.ResolvedFinding `json:"resolved"`
}

type findingCreateRequest struct {
	DefinitionID        *int64 `json:"definition_id"`
	AffectedURL         string `json:"affected_url"`
	OverrideTitle       string `json:"override_title"`
	OverrideSeverity    string `json:"override_severity"`
	OverrideDescription string `json:"override_description"`
	OverrideImpact      string `json:"override_impact"`
	OverrideRemediation string `json:"override_remediation"`
}

type findingUpdateRequest struct {
	AffectedURL         *string `json:"affected_url,omitempty"`
	OverrideTitle       *string `json:"override_title,omitempty"`
	OverrideSeverity    *string `json:"override_severity,omitempty"`
	OverrideDescription *string `json:"override_description,omitempty"`
	OverrideImpact      *string `json:"override_impact,omitempty"`
	OverrideRemediation *string `json:"override_remediation,omitempty"`
}

// resolveFinding loads the referenced definition (if any) and computes the
// finding's effective content.
func (s *Server) resolveFinding(r *http.Request, f models.Finding) findingView {
	var def *models.Definition
	if f.DefinitionID != nil {
		var d models.Definition
		if err := s.db.Get(r.Context(), &d, `SELECT `+definitionColumns+` FROM definitions WHERE id = ?`, *f.DefinitionID); err == nil {
			def = &d
		}
	}
	return findingView{Finding: f, Resolved: models.Resolve(f, def)}
}

func (s *Server) getFindingRow(r *http.Request, reportID, findingID int64) (models.Finding, bool) {
	var f models.Finding
	err := s.db.Get(r.Context(), &f, `SELECT `+findingColumns+` FROM findings WHERE id = ? AND report_id = ?`,
		findingID, reportID)
	return f, err == nil
}

// --- Handlers ---

func (s *Server) handleListFindings(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := s.getReportRow(r, reportID); !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	var findings []models.Finding
	err = s.db.Select(r.Context(), &findings, `SELECT `+findingColumns+` FROM findings WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing findings")
		return
	}

	items := make([]findingView, 0, len(findings))
	for _, f := range findings {
		items = append(items, s.resolveFinding(r, f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// handleCreateFinding attaches a finding to a report. Catalog-backed
// findings are idempotent per (report, definition): posting the same
// definition twice returns the existing row instead of duplicating it.
func (s *Server) handleCreateFinding(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := s.getReportRow(r, reportID); !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	var req findingCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if req.DefinitionID != nil {
		var def models.Definition
		if err := s.db.Get(ctx, &def, `SELECT `+definitionColumns+` FROM definitions WHERE id = ?`, *req.DefinitionID); err != nil {
			writeError(w, http.StatusNotFound, "definition not found")
			return
		}
		var existing models.Finding
		err := s.db.Get(ctx, &existing, `SELECT `+findingColumns+` FROM findings WHERE report_id = ? AND definition_id = ?`,
			reportID, *req.DefinitionID)
		if err == nil {
			writeJSON(w, http.StatusOK, s.resolveFinding(r, existing))
			return
		}
	} else {
		// A custom finding has nothing to fall back on, so every content
		// field must be supplied up front.
		missing := map[string]string{
			"override_title":       req.OverrideTitle,
			"override_severity":    req.OverrideSeverity,
			"override_description": req.OverrideDescription,
			"override_impact":      req.OverrideImpact,
			"override_remediation": req.OverrideRemediation,
		}
		for field, val := range missing {
			if strings.TrimSpace(val) == "" {
				writeError(w, http.StatusBadRequest, field+" is required for a custom finding")
				return
			}
		}
	}

	if req.OverrideSeverity != "" {
		sev := models.NormalizeSeverity(req.OverrideSeverity)
		if !sev.Valid() {
			writeError(w, http.StatusBadRequest, "override_severity must be CRITICAL, HIGH, MEDIUM or LOW")
			return
		}
		req.OverrideSeverity = string(sev)
	}

	f := models.Finding{
		ReportID:            reportID,
		DefinitionID:        req.DefinitionID,
		AffectedURL:         strings.TrimSpace(req.AffectedURL),
		OverrideTitle:       req.OverrideTitle,
		OverrideSeverity:    req.OverrideSeverity,
		OverrideDescription: req.OverrideDescription,
		OverrideImpact:      req.OverrideImpact,
		OverrideRemediation: req.OverrideRemediation,
		RemediationStatus:   models.RemediationPending,
		CreatedAt:           time.Now().UTC(),
	}
	id, err := s.db.Insert(ctx, "findings", &f)
	if err != nil {
		// The unique (report_id, definition_id) index backstops the check
		// above under concurrent inserts.
		if req.DefinitionID != nil {
			var existing models.Finding
			if err2 := s.db.Get(ctx, &existing, `SELECT `+findingColumns+` FROM findings WHERE report_id = ? AND definition_id = ?`,
				reportID, *req.DefinitionID); err2 == nil {
				writeJSON(w, http.StatusOK, s.resolveFinding(r, existing))
				return
			}
		}
		writeError(w, http.StatusInternalServerError, "creating finding")
		return
	}
	f.ID = id
	writeJSON(w, http.StatusCreated, s.resolveFinding(r, f))
}

func (s *Server) handleGetFinding(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	findingID, err := pathID(r, "fid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, ok := s.getFindingRow(r, reportID, findingID)
	if !ok {
		writeError(w, http.StatusNotFound, "finding not found")
		return
	}
	writeJSON(w, http.StatusOK, s.resolveFinding(r, f))
}

func (s *Server) handleUpdateFinding(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	findingID, err := pathID(r, "fid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, ok := s.getFindingRow(r, reportID, findingID)
	if !ok {
		writeError(w, http.StatusNotFound, "finding not found")
		return
	}

	var req findingUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.AffectedURL != nil {
		f.AffectedURL = strings.TrimSpace(*req.AffectedURL)
	}
	if req.OverrideTitle != nil {
		f.OverrideTitle = *req.OverrideTitle
	}
	if req.OverrideSeverity != nil {
		if *req.OverrideSeverity == "" {
			// Clearing the override restores the definition's default.
			f.OverrideSeverity = ""
		} else {
			sev := models.NormalizeSeverity(*req.OverrideSeverity)
			if !sev.Valid() {
				writeError(w, http.StatusBadRequest, "override_severity must be CRITICAL, HIGH, MEDIUM or LOW")
				return
			}
			f.OverrideSeverity = string(sev)
		}
	}
	if req.OverrideDescription != nil {
		f.OverrideDescription = *req.OverrideDescription
	}
	if req.OverrideImpact != nil {
		f.OverrideImpact = *req.OverrideImpact
	}
	if req.OverrideRemediation != nil {
		f.OverrideRemediation = *req.OverrideRemediation
	}

	if f.IsCustom() {
		for field, val := range map[string]string{
			"override_title":       f.OverrideTitle,
			"override_severity":    f.OverrideSeverity,
			"override_description": f.OverrideDescription,
			"override_impact":      f.OverrideImpact,
			"override_remediation": f.OverrideRemediation,
		} {
			if strings.TrimSpace(val) == "" {
				writeError(w, http.StatusBadRequest, field+" cannot be cleared on a custom finding")
				return
			}
		}
	}

	if err := s.db.Update(r.Context(), "findings", &f, "id = ?", f.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "updating finding")
		return
	}
	writeJSON(w, http.StatusOK, s.resolveFinding(r, f))
}

func (s *Server) handleDeleteFinding(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	findingID, err := pathID(r, "fid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, ok := s.getFindingRow(r, reportID, findingID)
	if !ok {
		writeError(w, http.StatusNotFound, "finding not found")
		return
	}

	ctx := r.Context()
	var blobs []struct {
		FileRef string `db:"file_ref"`
	}
	_ = s.db.Select(ctx, &blobs, `SELECT file_ref FROM evidence WHERE finding_id = ?`, f.ID)
	for _, b := range blobs {
		s.removeEvidenceBlob(b.FileRef)
	}
	if err := s.db.Exec(ctx, `DELETE FROM evidence WHERE finding_id = ?`, f.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting finding evidence")
		return
	}
	if err := s.db.Exec(ctx, `DELETE FROM findings WHERE id = ?`, f.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting finding")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": f.ID})
}

// handleSetRemediation flips or sets a finding's remediation status without
// requiring the report scope in the path. Used by the tracker view, where
// findings are listed across reports.
func (s *Server) handleSetRemediation(w http.ResponseWriter, r *http.Request) {
	findingID, err := pathID(r, "fid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		RemediationStatus string `json:"remediation_status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := models.RemediationStatus(req.RemediationStatus)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "remediation_status must be Pending or Patched")
		return
	}

	ctx := r.Context()
	var f models.Finding
	if err := s.db.Get(ctx, &f, `SELECT `+findingColumns+` FROM findings WHERE id = ?`, findingID); err != nil {
		writeError(w, http.StatusNotFound, "finding not found")
		return
	}
	f.RemediationStatus = status
	if err := s.db.Update(ctx, "findings", &f, "id = ?", f.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "updating remediation status")
		return
	}
	writeJSON(w, http.StatusOK, s.resolveFinding(r, f))
}
