package server

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vantagesec/reportkit/models"
)

// --- Row/request types ---

// reportRow is the storage shape of a report; targets and tools are JSON
// arrays in TEXT columns.
type reportRow struct {
	ID              int64     `db:"id"`
	ClientName      string    `db:"client_name"`
	ApplicationName string    `db:"application_name"`
	AssessmentType  string    `db:"assessment_type"`
	Targets         string    `db:"targets"`
	ToolsUsed       string    `db:"tools_used"`
	TestLocation    string    `db:"test_location"`
	StartDate       string    `db:"start_date"`
	EndDate         string    `db:"end_date"`
	PreparedBy      string    `db:"prepared_by"`
	ReviewedBy      string    `db:"reviewed_by"`
	ApprovedBy      string    `db:"approved_by"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

const reportColumns = `id, client_name, application_name, assessment_type, targets, tools_used,
	test_location, start_date, end_date, prepared_by, reviewed_by, approved_by, status, created_at`

func (r reportRow) toModel(findingsCount int) models.Report {
	return models.Report{
		ID:              r.ID,
		ClientName:      r.ClientName,
		ApplicationName: r.ApplicationName,
		AssessmentType:  models.AssessmentType(r.AssessmentType),
		Targets:         models.DecodeStringList(r.Targets),
		ToolsUsed:       models.DecodeStringList(r.ToolsUsed),
		TestLocation:    models.TestLocation(r.TestLocation),
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		PreparedBy:      r.PreparedBy,
		ReviewedBy:      r.ReviewedBy,
		ApprovedBy:      r.ApprovedBy,
		Status:          models.ReportStatus(r.Status),
		FindingsCount:   findingsCount,
		CreatedAt:       r.CreatedAt,
	}
}

type reportCreateRequest struct {
	ClientName      string   `json:"client_name"`
	ApplicationName string   `json:"application_name"`
	AssessmentType  string   `json:"assessment_type"`
	Targets         []string `json:"targets"`
	ToolsUsed       []string `json:"tools_used"`
	TestLocation    string   `json:"test_location"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	PreparedBy      string   `json:"prepared_by"`
	ReviewedBy      string   `json:"reviewed_by"`
	ApprovedBy      string   `json:"approved_by"`
}

type reportUpdateRequest struct {
	ClientName      *string   `json:"client_name,omitempty"`
	ApplicationName *string   `json:"application_name,omitempty"`
	AssessmentType  *string   `json:"assessment_type,omitempty"`
	Targets         *[]string `json:"targets,omitempty"`
	ToolsUsed       *[]string `json:"tools_used,omitempty"`
	TestLocation    *string   `json:"test_location,omitempty"`
	StartDate       *string   `json:"start_date,omitempty"`
	EndDate         *string   `json:"end_date,omitempty"`
	PreparedBy      *string   `json:"prepared_by,omitempty"`
	ReviewedBy      *string   `json:"reviewed_by,omitempty"`
	ApprovedBy      *string   `json:"approved_by,omitempty"`
	Status          *string   `json:"status,omitempty"`
}

// dropEmpty filters blank entries while preserving order. The composer lets
// assessors leave target/tool rows empty; they are discarded at submission.
func dropEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			out = append(out, strings.TrimSpace(it))
		}
	}
	return out
}

// --- Handlers ---

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pg := parsePaginationParams(r, 25, 500)

	var cnt countRow
	if err := s.db.Get(ctx, &cnt, `SELECT COUNT(*) AS n FROM reports`); err != nil {
		writeError(w, http.StatusInternalServerError, "counting reports")
		return
	}

	var rows []reportRow
	err := s.db.Select(ctx, &rows, `SELECT `+reportColumns+` FROM reports ORDER BY id DESC LIMIT ? OFFSET ?`,
		pg.PageSize, pg.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing reports")
		return
	}

	// findings_count is derived on every read, never stored.
	type reportCount struct {
		ReportID int64 `db:"report_id"`
		N        int   `db:"n"`
	}
	var counts []reportCount
	_ = s.db.Select(ctx, &counts, `SELECT report_id, COUNT(*) AS n FROM findings GROUP BY report_id`)
	byReport := make(map[int64]int, len(counts))
	for _, c := range counts {
		byReport[c.ReportID] = c.N
	}

	items := make([]models.Report, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel(byReport[row.ID]))
	}
	totalPages := 1
	if cnt.N > 0 {
		totalPages = (cnt.N + pg.PageSize - 1) / pg.PageSize
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       items,
		"total":       cnt.N,
		"page":        pg.Page,
		"page_size":   pg.PageSize,
		"total_pages": totalPages,
	})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ApplicationName = strings.TrimSpace(req.ApplicationName)
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "client_name is required")
		return
	}
	if req.ApplicationName == "" {
		writeError(w, http.StatusBadRequest, "application_name is required")
		return
	}
	if !models.AssessmentType(req.AssessmentType).Valid() {
		writeError(w, http.StatusBadRequest, "assessment_type must be Internal or External")
		return
	}
	if !models.TestLocation(req.TestLocation).Valid() {
		writeError(w, http.StatusBadRequest, "test_location must be On-site or Off-site")
		return
	}

	row := reportRow{
		ClientName:      req.ClientName,
		ApplicationName: req.ApplicationName,
		AssessmentType:  req.AssessmentType,
		Targets:         models.EncodeStringList(dropEmpty(req.Targets)),
		ToolsUsed:       models.EncodeStringList(dropEmpty(req.ToolsUsed)),
		TestLocation:    req.TestLocation,
		StartDate:       strings.TrimSpace(req.StartDate),
		EndDate:         strings.TrimSpace(req.EndDate),
		PreparedBy:      strings.TrimSpace(req.PreparedBy),
		ReviewedBy:      strings.TrimSpace(req.ReviewedBy),
		ApprovedBy:      strings.TrimSpace(req.ApprovedBy),
		Status:          string(models.ReportDraft),
		CreatedAt:       time.Now().UTC(),
	}
	id, err := s.db.Insert(r.Context(), "reports", &row)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "creating report")
		return
	}
	row.ID = id
	writeJSON(w, http.StatusCreated, row.toModel(0))
}

func (s *Server) getReportRow(r *http.Request, id int64) (reportRow, bool) {
	var row reportRow
	err := s.db.Get(r.Context(), &row, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	return row, err == nil
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
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
	var cnt countRow
	_ = s.db.Get(r.Context(), &cnt, `SELECT COUNT(*) AS n FROM findings WHERE report_id = ?`, id)
	writeJSON(w, http.StatusOK, row.toModel(cnt.N))
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
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

	var req reportUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.ClientName != nil {
		if strings.TrimSpace(*req.ClientName) == "" {
			writeError(w, http.StatusBadRequest, "client_name cannot be empty")
			return
		}
		row.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.ApplicationName != nil {
		if strings.TrimSpace(*req.ApplicationName) == "" {
			writeError(w, http.StatusBadRequest, "application_name cannot be empty")
			return
		}
		row.ApplicationName = strings.TrimSpace(*req.ApplicationName)
	}
	if req.AssessmentType != nil {
		if !models.AssessmentType(*req.AssessmentType).Valid() {
			writeError(w, http.StatusBadRequest, "assessment_type must be Internal or External")
			return
		}
		row.AssessmentType = *req.AssessmentType
	}
	if req.TestLocation != nil {
		if !models.TestLocation(*req.TestLocation).Valid() {
			writeError(w, http.StatusBadRequest, "test_location must be On-site or Off-site")
			return
		}
		row.TestLocation = *req.TestLocation
	}
	if req.Status != nil {
		// Lifecycle status is a deliberately non-guarded enum: any valid
		// value may replace any other.
		if !models.ReportStatus(*req.Status).Valid() {
			writeError(w, http.StatusBadRequest, "status must be Draft, In Progress, Completed or Verified")
			return
		}
		row.Status = *req.Status
	}
	if req.Targets != nil {
		row.Targets = models.EncodeStringList(dropEmpty(*req.Targets))
	}
	if req.ToolsUsed != nil {
		row.ToolsUsed = models.EncodeStringList(dropEmpty(*req.ToolsUsed))
	}
	if req.StartDate != nil {
		row.StartDate = strings.TrimSpace(*req.StartDate)
	}
	if req.EndDate != nil {
		row.EndDate = strings.TrimSpace(*req.EndDate)
	}
	if req.PreparedBy != nil {
		row.PreparedBy = strings.TrimSpace(*req.PreparedBy)
	}
	if req.ReviewedBy != nil {
		row.ReviewedBy = strings.TrimSpace(*req.ReviewedBy)
	}
	if req.ApprovedBy != nil {
		row.ApprovedBy = strings.TrimSpace(*req.ApprovedBy)
	}

	if err := s.db.Update(r.Context(), "reports", &row, "id = ?", id); err != nil {
		writeError(w, http.StatusInternalServerError, "updating report")
		return
	}
	var cnt countRow
	_ = s.db.Get(r.Context(), &cnt, `SELECT COUNT(*) AS n FROM findings WHERE report_id = ?`, id)
	writeJSON(w, http.StatusOK, row.toModel(cnt.N))
}

// handleDeleteReport cascades: evidence blobs and rows go first, then
// findings, then the report itself.
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	if _, ok := s.getReportRow(r, id); !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	var blobs []struct {
		FileRef string `db:"file_ref"`
	}
	_ = s.db.Select(ctx, &blobs, `SELECT e.file_ref FROM evidence e
		JOIN findings f ON f.id = e.finding_id WHERE f.report_id = ?`, id)
	for _, b := range blobs {
		s.removeEvidenceBlob(b.FileRef)
	}

	steps := []string{
		`DELETE FROM evidence WHERE finding_id IN (SELECT id FROM findings WHERE report_id = ?)`,
		`DELETE FROM findings WHERE report_id = ?`,
		`DELETE FROM reports WHERE id = ?`,
	}
	for _, q := range steps {
		if err := s.db.Exec(ctx, q, id); err != nil {
			writeError(w, http.StatusInternalServerError, "deleting report")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// removeEvidenceBlob deletes a stored evidence file, tolerating refs that
// are already gone.
func (s *Server) removeEvidenceBlob(fileRef string) {
	if fileRef == "" || s.evidenceDir == "" {
		return
	}
	path, err := validateSafePath(s.evidenceDir, fileRef)
	if err != nil {
		return
	}
	_ = os.Remove(path)
}
