package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vantagesec/reportkit/models"
)

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// --- Response types ---

// User is the server's public view of an account.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is returned by register, login and refresh.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// FindingView is a finding plus its resolved content as computed server side.
type FindingView struct {
	models.Finding
	Resolved models.ResolvedFinding `json:"resolved"`
}

// ReportPage is one page of the reports listing.
type ReportPage struct {
	Items      []models.Report `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

type listEnvelope[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// --- Session ---

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*SessionResponse, error) {
	payload := map[string]string{"email": email, "password": password, "full_name": fullName}
	return c.startSession(ctx, "/auth/register", payload)
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	return c.startSession(ctx, "/auth/login", payload)
}

func (c *Client) startSession(ctx context.Context, path string, payload any) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	err := c.tokens.Set(TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Reports ---

type ReportCreate struct {
	ClientName      string   `json:"client_name"`
	ApplicationName string   `json:"application_name"`
	AssessmentType  string   `json:"assessment_type"`
	Targets         []string `json:"targets"`
	ToolsUsed       []string `json:"tools_used"`
	TestLocation    string   `json:"test_location"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	PreparedBy      string   `json:"prepared_by,omitempty"`
	ReviewedBy      string   `json:"reviewed_by,omitempty"`
	ApprovedBy      string   `json:"approved_by,omitempty"`
}

func (c *Client) ListReports(ctx context.Context, page, pageSize int) (*ReportPage, error) {
	path := "/reports"
	if page > 0 {
		path = pathf("/reports?page=%d&page_size=%d", page, pageSize)
	}
	var out ReportPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReport(ctx context.Context, req ReportCreate) (*models.Report, error) {
	var out models.Report
	if err := c.do(ctx, http.MethodPost, "/reports", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	var out models.Report
	if err := c.do(ctx, http.MethodGet, pathf("/reports/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReport applies a partial patch; only the keys present in fields are
// touched server side.
func (c *Client) UpdateReport(ctx context.Context, id int64, fields map[string]any) (*models.Report, error) {
	var out models.Report
	if err := c.do(ctx, http.MethodPatch, pathf("/reports/%d", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/reports/%d", id), nil, nil)
}

// SetReportStatus moves the report to any valid lifecycle status.
func (c *Client) SetReportStatus(ctx context.Context, id int64, status models.ReportStatus) (*models.Report, error) {
	return c.UpdateReport(ctx, id, map[string]any{"status": string(status)})
}

// --- Findings ---

type FindingCreate struct {
	DefinitionID        *int64 `json:"definition_id"`
	AffectedURL         string `json:"affected_url,omitempty"`
	OverrideTitle       string `json:"override_title,omitempty"`
	OverrideSeverity    string `json:"override_severity,omitempty"`
	OverrideDescription string `json:"override_description,omitempty"`
	OverrideImpact      string `json:"override_impact,omitempty"`
	OverrideRemediation string `json:"override_remediation,omitempty"`
}

func (c *Client) ListFindings(ctx context.Context, reportID int64) ([]FindingView, error) {
	var out listEnvelope[FindingView]
	if err := c.do(ctx, http.MethodGet, pathf("/reports/%d/findings", reportID), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) CreateFinding(ctx context.Context, reportID int64, req FindingCreate) (*FindingView, error) {
	var out FindingView
	if err := c.do(ctx, http.MethodPost, pathf("/reports/%d/findings", reportID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFinding(ctx context.Context, reportID, findingID int64) (*FindingView, error) {
	var out FindingView
	if err := c.do(ctx, http.MethodGet, pathf("/reports/%d/findings/%d", reportID, findingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateFinding(ctx context.Context, reportID, findingID int64, fields map[string]any) (*FindingView, error) {
	var out FindingView
	if err := c.do(ctx, http.MethodPatch, pathf("/reports/%d/findings/%d", reportID, findingID), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFinding(ctx context.Context, reportID, findingID int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/reports/%d/findings/%d", reportID, findingID), nil, nil)
}

// SetRemediation sets a finding's remediation status by its bare id.
func (c *Client) SetRemediation(ctx context.Context, findingID int64, status models.RemediationStatus) (*FindingView, error) {
	var out FindingView
	payload := map[string]string{"remediation_status": string(status)}
	if err := c.do(ctx, http.MethodPatch, pathf("/findings/%d", findingID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleRemediation reads the finding's current status and flips it. The
// toggle round-trips: applying it twice restores the original status.
func (c *Client) ToggleRemediation(ctx context.Context, reportID, findingID int64) (*FindingView, error) {
	current, err := c.GetFinding(ctx, reportID, findingID)
	if err != nil {
		return nil, err
	}
	return c.SetRemediation(ctx, findingID, current.RemediationStatus.Toggle())
}
