package server

import (
	"net/http"
	"strings"

	"github.com/vantagesec/reportkit/models"
)

const definitionColumns = `id, category_id, title, source_type, external_ref,
	default_severity, description, impact, remediation`

type definitionCreateRequest struct {
	CategoryID      *int64 `json:"category_id"`
	Title           string `json:"title"`
	SourceType      string `json:"source_type"`
	ExternalRef     string `json:"external_ref"`
	DefaultSeverity string `json:"default_severity"`
	Description     string `json:"description"`
	Impact          string `json:"impact"`
	Remediation     string `json:"remediation"`
}

type definitionUpdateRequest struct {
	CategoryID      *int64  `json:"category_id,omitempty"`
	ClearCategory   bool    `json:"clear_category,omitempty"`
	Title           *string `json:"title,omitempty"`
	SourceType      *string `json:"source_type,omitempty"`
	ExternalRef     *string `json:"external_ref,omitempty"`
	DefaultSeverity *string `json:"default_severity,omitempty"`
	Description     *string `json:"description,omitempty"`
	Impact          *string `json:"impact,omitempty"`
	Remediation     *string `json:"remediation,omitempty"`
}

func (s *Server) categoryExists(r *http.Request, id int64) bool {
	var cnt countRow
	err := s.db.Get(r.Context(), &cnt, `SELECT COUNT(*) AS n FROM categories WHERE id = ?`, id)
	return err == nil && cnt.N > 0
}

// --- Definitions ---

func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	var defs []models.Definition
	err := s.db.Select(r.Context(), &defs, `SELECT `+definitionColumns+` FROM definitions ORDER BY title`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing definitions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": defs, "total": len(defs)})
}

func (s *Server) handleCreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req definitionCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	sev := models.NormalizeSeverity(req.DefaultSeverity)
	if !sev.Valid() {
		writeError(w, http.StatusBadRequest, "default_severity must be CRITICAL, HIGH, MEDIUM or LOW")
		return
	}
	if req.CategoryID != nil && !s.categoryExists(r, *req.CategoryID) {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if req.SourceType == "" {
		req.SourceType = "Custom"
	}

	def := models.Definition{
		CategoryID:      req.CategoryID,
		Title:           req.Title,
		SourceType:      req.SourceType,
		ExternalRef:     strings.TrimSpace(req.ExternalRef),
		DefaultSeverity: sev,
		Description:     req.Description,
		Impact:          req.Impact,
		Remediation:     req.Remediation,
	}
	id, err := s.db.Insert(r.Context(), "definitions", &def)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "creating definition")
		return
	}
	def.ID = id
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var def models.Definition
	if err := s.db.Get(r.Context(), &def, `SELECT `+definitionColumns+` FROM definitions WHERE id = ?`, id); err != nil {
		writeError(w, http.StatusNotFound, "definition not found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleUpdateDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var def models.Definition
	if err := s.db.Get(r.Context(), &def, `SELECT `+definitionColumns+` FROM definitions WHERE id = ?`, id); err != nil {
		writeError(w, http.StatusNotFound, "definition not found")
		return
	}

	var req definitionUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.ClearCategory {
		def.CategoryID = nil
	} else if req.CategoryID != nil {
		if !s.categoryExists(r, *req.CategoryID) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		def.CategoryID = req.CategoryID
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		def.Title = strings.TrimSpace(*req.Title)
	}
	if req.SourceType != nil {
		def.SourceType = *req.SourceType
	}
	if req.ExternalRef != nil {
		def.ExternalRef = strings.TrimSpace(*req.ExternalRef)
	}
	if req.DefaultSeverity != nil {
		sev := models.NormalizeSeverity(*req.DefaultSeverity)
		if !sev.Valid() {
			writeError(w, http.StatusBadRequest, "default_severity must be CRITICAL, HIGH, MEDIUM or LOW")
			return
		}
		def.DefaultSeverity = sev
	}
	if req.Description != nil {
		def.Description = *req.Description
	}
	if req.Impact != nil {
		def.Impact = *req.Impact
	}
	if req.Remediation != nil {
		def.Remediation = *req.Remediation
	}

	// Definition edits are visible to every referencing finding on its next
	// resolution; nothing is copied into findings at reference time.
	if err := s.db.Update(r.Context(), "definitions", &def, "id = ?", id); err != nil {
		writeError(w, http.StatusInternalServerError, "updating definition")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleDeleteDefinition refuses to delete a definition that findings still
// reference. Deleting it would silently hollow out those findings' resolved
// content.
func (s *Server) handleDeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	var cnt countRow
	if err := s.db.Get(ctx, &cnt, `SELECT COUNT(*) AS n FROM definitions WHERE id = ?`, id); err != nil || cnt.N == 0 {
		writeError(w, http.StatusNotFound, "definition not found")
		return
	}
	var refs countRow
	if err := s.db.Get(ctx, &refs, `SELECT COUNT(*) AS n FROM findings WHERE definition_id = ?`, id); err == nil && refs.N > 0 {
		writeError(w, http.StatusConflict, "definition is referenced by existing findings")
		return
	}

	if err := s.db.Exec(ctx, `DELETE FROM definitions WHERE id = ?`, id); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting definition")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// --- Categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var cats []models.Category
	err := s.db.Select(r.Context(), &cats, `SELECT id, code, name FROM categories ORDER BY name`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats, "total": len(cats)})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "code and name are required")
		return
	}

	ctx := r.Context()
	var dup countRow
	if err := s.db.Get(ctx, &dup, `SELECT COUNT(*) AS n FROM categories WHERE code = ?`, req.Code); err == nil && dup.N > 0 {
		writeError(w, http.StatusConflict, "category code already exists")
		return
	}

	cat := models.Category{Code: req.Code, Name: req.Name}
	id, err := s.db.Insert(ctx, "categories", &cat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "creating category")
		return
	}
	cat.ID = id
	writeJSON(w, http.StatusCreated, cat)
}

// handleDeleteCategory removes a grouping. Member definitions are ungrouped,
// not deleted; the schema's ON DELETE SET NULL does the detach.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	if !s.categoryExists(r, id) {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	// Detach explicitly as well, so the behavior does not depend on the
	// driver having foreign keys enabled.
	if err := s.db.Exec(ctx, `UPDATE definitions SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		writeError(w, http.StatusInternalServerError, "ungrouping definitions")
		return
	}
	if err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}
