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

// reportRow is the subset of report columns the list view needs.
type reportRow struct {
	ID              int64  `db:"id"`
	ClientName      string `db:"client_name"`
	ApplicationName string `db:"application_name"`
	Status          string `db:"status"`
	StartDate       string `db:"start_date"`
	EndDate         string `db:"end_date"`
}

// ReportsModel lists reports with their findings counts.
type ReportsModel struct {
	db      database.DB
	reports []reportRow
	counts  map[int64]int
	width   int
	height  int
	cursor  int
	loading bool
}

type reportsLoadedMsg struct {
	reports []reportRow
	counts  map[int64]int
}

// NewReportsModel creates a ReportsModel.
func NewReportsModel(db database.DB) ReportsModel {
	return ReportsModel{db: db, loading: true}
}

func (m ReportsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ReportsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var reports []reportRow
		_ = m.db.Select(ctx, &reports,
			`SELECT id, client_name, application_name, status, start_date, end_date
			 FROM reports ORDER BY id DESC LIMIT 200`)

		type countRow struct {
			ReportID int64 `db:"report_id"`
			N        int   `db:"n"`
		}
		var rows []countRow
		_ = m.db.Select(ctx, &rows, `SELECT report_id, COUNT(*) AS n FROM findings GROUP BY report_id`)
		counts := make(map[int64]int, len(rows))
		for _, r := range rows {
			counts[r.ReportID] = r.N
		}
		return reportsLoadedMsg{reports: reports, counts: counts}
	}
}

func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadedMsg:
		m.reports = msg.reports
		m.counts = msg.counts
		m.loading = false
		return m, tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
			return m.loadCmd()()
		})

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.reports)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m *ReportsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m ReportsModel) View() string {
	if m.loading && len(m.reports) == 0 {
		return panelStyle.Width(max(20, m.width-2)).Render("Loading reports...")
	}
	if len(m.reports) == 0 {
		return panelStyle.Width(max(20, m.width-2)).Render(
			dimStyle.Render("No reports yet. Create one with 'reportkit compose'."))
	}

	rows := ""
	limit := m.height - 8
	if limit < 5 {
		limit = 5
	}
	for i, r := range m.reports {
		if i >= limit {
			break
		}
		line := fmt.Sprintf(" #%-4d %-20s %-26s %-12s %3d findings  %s",
			r.ID,
			truncate(r.ClientName, 20),
			truncate(r.ApplicationName, 26),
			r.Status,
			m.counts[r.ID],
			dimStyle.Render(r.StartDate+" → "+r.EndDate),
		)
		if i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		rows += statusColor(r.Status).Render("") + line + "\n"
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		panelHeaderStyle.Render(fmt.Sprintf("Reports (%d)", len(m.reports))),
		"",
		rows,
		dimStyle.Render("j/k move  r reload"),
	)
	return panelStyle.Width(max(20, m.width-2)).Render(body)
}

func statusColor(status string) lipgloss.Style {
	switch models.ReportStatus(status) {
	case models.ReportVerified:
		return okStyle
	case models.ReportCompleted:
		return mediumStyle
	case models.ReportInProgress:
		return highStyle
	default:
		return lowStyle
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
