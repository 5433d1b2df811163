package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vantagesec/reportkit/internal/database"
	"github.com/vantagesec/reportkit/models"
)

// trackedFinding is one finding with its owning client and resolved content,
// ready for display.
type trackedFinding struct {
	ID                int64
	ReportID          int64
	ClientName        string
	Title             string
	Severity          models.SeverityLevel
	AffectedURL       string
	RemediationStatus models.RemediationStatus
}

// loadTrackedFindings reads raw finding rows plus the catalog and resolves
// each finding through models.Resolve, so the tracker shows exactly what the
// server and document renderer show.
func loadTrackedFindings(ctx context.Context, db database.DB) ([]trackedFinding, error) {
	type findingRow struct {
		ID                  int64  `db:"id"`
		ReportID            int64  `db:"report_id"`
		DefinitionID        *int64 `db:"definition_id"`
		AffectedURL         string `db:"affected_url"`
		OverrideTitle       string `db:"override_title"`
		OverrideSeverity    string `db:"override_severity"`
		OverrideDescription string `db:"override_description"`
		OverrideImpact      string `db:"override_impact"`
		OverrideRemediation string `db:"override_remediation"`
		RemediationStatus   string `db:"remediation_status"`
		ClientName          string `db:"client_name"`
	}
	var rows []findingRow
	err := db.Select(ctx, &rows, `
		SELECT f.id, f.report_id, f.definition_id, f.affected_url,
		       f.override_title, f.override_severity, f.override_description,
		       f.override_impact, f.override_remediation,
		       f.remediation_status, r.client_name
		FROM findings f
		JOIN reports r ON r.id = f.report_id
		ORDER BY f.remediation_status DESC, f.id LIMIT 500`)
	if err != nil {
		return nil, err
	}

	var defs []models.Definition
	err = db.Select(ctx, &defs, `
		SELECT id, category_id, title, source_type, external_ref,
		       default_severity, description, impact, remediation
		FROM definitions`)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Definition, len(defs))
	for i := range defs {
		byID[defs[i].ID] = &defs[i]
	}

	out := make([]trackedFinding, 0, len(rows))
	for _, row := range rows {
		f := models.Finding{
			DefinitionID:        row.DefinitionID,
			OverrideTitle:       row.OverrideTitle,
			OverrideSeverity:    row.OverrideSeverity,
			OverrideDescription: row.OverrideDescription,
			OverrideImpact:      row.OverrideImpact,
			OverrideRemediation: row.OverrideRemediation,
		}
		var def *models.Definition
		if row.DefinitionID != nil {
			def = byID[*row.DefinitionID]
		}
		res := models.Resolve(f, def)
		out = append(out, trackedFinding{
			ID:                row.ID,
			ReportID:          row.ReportID,
			ClientName:        row.ClientName,
			Title:             res.Title,
			Severity:          res.Severity,
			AffectedURL:       row.AffectedURL,
			RemediationStatus: models.RemediationStatus(row.RemediationStatus),
		})
	}
	return out, nil
}

// TrackerModel is the cross-report remediation tracker. Space toggles the
// selected finding between Pending and Patched.
type TrackerModel struct {
	db          database.DB
	findings    []trackedFinding
	width       int
	height      int
	cursor      int
	pendingOnly bool
	loading     bool
}

type trackerLoadedMsg struct {
	findings []trackedFinding
}

// NewTrackerModel creates a TrackerModel.
func NewTrackerModel(db database.DB) TrackerModel {
	return TrackerModel{db: db, loading: true}
}

func (m TrackerModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m TrackerModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		findings, _ := loadTrackedFindings(context.Background(), m.db)
		return trackerLoadedMsg{findings: findings}
	}
}

func (m TrackerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case trackerLoadedMsg:
		m.findings = msg.findings
		m.loading = false
		return m, tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
			return m.loadCmd()()
		})

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.visible())-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "p":
			m.pendingOnly = !m.pendingOnly
			m.cursor = 0
		case " ", "enter":
			return m, m.toggleCmd()
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}
	return m, nil
}

// toggleCmd flips the selected finding's remediation status and reloads.
func (m TrackerModel) toggleCmd() tea.Cmd {
	visible := m.visible()
	if m.cursor >= len(visible) {
		return nil
	}
	target := visible[m.cursor]
	return func() tea.Msg {
		next := target.RemediationStatus.Toggle()
		_ = m.db.Exec(context.Background(),
			`UPDATE findings SET remediation_status = ? WHERE id = ?`, string(next), target.ID)
		return m.loadCmd()()
	}
}

func (m TrackerModel) visible() []trackedFinding {
	if !m.pendingOnly {
		return m.findings
	}
	var out []trackedFinding
	for _, f := range m.findings {
		if f.RemediationStatus == models.RemediationPending {
			out = append(out, f)
		}
	}
	return out
}

func (m *TrackerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m TrackerModel) View() string {
	if m.loading && len(m.findings) == 0 {
		return panelStyle.Width(max(20, m.width-2)).Render("Loading findings...")
	}

	visible := m.visible()
	pending := 0
	for _, f := range m.findings {
		if f.RemediationStatus == models.RemediationPending {
			pending++
		}
	}

	header := fmt.Sprintf("Remediation (%d pending / %d total)", pending, len(m.findings))
	if m.pendingOnly {
		header += "  [pending only]"
	}

	rows := ""
	limit := m.height - 8
	if limit < 5 {
		limit = 5
	}
	for i, f := range visible {
		if i >= limit {
			break
		}
		mark := highStyle.Render("○")
		if f.RemediationStatus == models.RemediationPatched {
			mark = okStyle.Render("●")
		}
		line := fmt.Sprintf(" %s %s %-42s %-18s #%d %s",
			mark,
			severityStyle(f.Severity).Render(fmt.Sprintf("%-8s", f.Severity)),
			truncate(f.Title, 42),
			truncate(f.AffectedURL, 18),
			f.ReportID,
			dimStyle.Render(truncate(f.ClientName, 16)),
		)
		if i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		rows += line + "\n"
	}
	if len(visible) == 0 {
		rows = dimStyle.Render(" Nothing to remediate.") + "\n"
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		panelHeaderStyle.Render(header),
		"",
		rows,
		dimStyle.Render("j/k move  space toggle  p pending only  r reload"),
	)
	return panelStyle.Width(max(20, m.width-2)).Render(body)
}
