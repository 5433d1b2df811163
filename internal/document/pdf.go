package document

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/vantagesec/reportkit/models"
)

// pdfSeverityColors maps normalized severity to an RGB accent.
var pdfSeverityColors = map[models.SeverityLevel][]int{
	models.SeverityCritical: {220, 38, 38},
	models.SeverityHigh:     {234, 88, 12},
	models.SeverityMedium:   {202, 138, 4},
	models.SeverityLow:      {22, 163, 74},
}

// PDFRenderer renders the assessment report as a PDF document.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (p *PDFRenderer) ContentType() string { return "application/pdf" }

// Filename builds a stable name from the client and application, e.g.
// "acme-corp-billing-portal-report.pdf".
func (p *PDFRenderer) Filename(in Input) string {
	slugify := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		var b strings.Builder
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
			case r == ' ' || r == '-' || r == '_':
				b.WriteRune('-')
			}
		}
		return strings.Trim(b.String(), "-")
	}
	parts := []string{slugify(in.Report.ClientName), slugify(in.Report.ApplicationName), "report"}
	cleaned := parts[:0]
	for _, p := range parts {
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "-") + ".pdf"
}

// Render lays out the cover page, an engagement summary, a severity overview
// table, and one section per finding ordered by severity weight.
func (p *PDFRenderer) Render(in Input) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)

	p.addCover(pdf, in)
	p.addSummary(pdf, in)

	items := make([]Item, len(in.Findings))
	copy(items, in.Findings)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Resolved.Severity.Weight() > items[j].Resolved.Severity.Weight()
	})
	for i, it := range items {
		p.addFinding(pdf, i+1, it)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PDFRenderer) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(30, 41, 59)
	x, y := pdf.GetXY()
	pageW, _ := pdf.GetPageSize()
	pdf.Line(x, y, pageW-15, y)
	pdf.Ln(4)
}

func (p *PDFRenderer) addCover(pdf *gofpdf.Fpdf, in Input) {
	pdf.AddPage()
	pdf.Ln(50)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(30, 41, 59)
	pdf.MultiCell(0, 12, "Penetration Test Report", "", "C", false)
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 16)
	pdf.MultiCell(0, 9, in.Report.ApplicationName, "", "C", false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 8, "Prepared for "+in.Report.ClientName, "", "C", false)
	pdf.Ln(20)

	rows := [][2]string{
		{"Assessment Type", string(in.Report.AssessmentType)},
		{"Test Location", string(in.Report.TestLocation)},
		{"Engagement Window", in.Report.StartDate + " to " + in.Report.EndDate},
		{"Status", string(in.Report.Status)},
		{"Prepared By", in.Report.PreparedBy},
		{"Reviewed By", in.Report.ReviewedBy},
		{"Approved By", in.Report.ApprovedBy},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" || strings.TrimSpace(row[1]) == "to" {
			continue
		}
		pdf.SetTextColor(30, 41, 59)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(60, 8, row[0], "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 8, "  "+row[1], "", 1, "L", false, 0, "")
	}
}

func (p *PDFRenderer) addSummary(pdf *gofpdf.Fpdf, in Input) {
	pdf.AddPage()
	p.addSectionHeader(pdf, "Engagement Summary")

	if len(in.Report.Targets) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, "In-scope targets", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		for _, t := range in.Report.Targets {
			pdf.CellFormat(0, 6, "  - "+t, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
	if len(in.Report.ToolsUsed) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, "Tooling", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 6, strings.Join(in.Report.ToolsUsed, ", "), "", "L", false)
		pdf.Ln(3)
	}

	// Severity overview.
	counts := map[models.SeverityLevel]int{}
	for _, it := range in.Findings {
		counts[it.Resolved.Severity]++
	}
	order := []models.SeverityLevel{
		models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow,
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(40, 8, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Findings", "1", 1, "C", true, 0, "")
	for _, sev := range order {
		c := pdfSeverityColors[sev]
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(c[0], c[1], c[2])
		pdf.CellFormat(40, 7, string(sev), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", counts[sev]), "1", 1, "C", false, 0, "")
	}
}

func (p *PDFRenderer) addFinding(pdf *gofpdf.Fpdf, n int, it Item) {
	pdf.AddPage()
	p.addSectionHeader(pdf, fmt.Sprintf("Finding %d: %s", n, it.Resolved.Title))

	c, ok := pdfSeverityColors[it.Resolved.Severity]
	if !ok {
		c = []int{128, 128, 128}
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(c[0], c[1], c[2])
	pdf.CellFormat(0, 7, string(it.Resolved.Severity), "", 1, "L", false, 0, "")

	meta := [][2]string{
		{"Affected URL", it.AffectedURL},
		{"Remediation Status", string(it.RemediationStatus)},
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	for _, m := range meta {
		if m[1] == "" {
			continue
		}
		pdf.CellFormat(0, 6, m[0]+": "+m[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	sections := [][2]string{
		{"Description", it.Resolved.Description},
		{"Impact", it.Resolved.Impact},
		{"Remediation", it.Resolved.Remediation},
	}
	for _, sec := range sections {
		if strings.TrimSpace(sec[1]) == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, sec[0], "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, sec[1], "", "L", false)
		pdf.Ln(2)
	}

	if len(it.Evidence) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, "Evidence", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		for _, ev := range it.Evidence {
			line := "  - " + ev.Title
			if ev.Description != "" {
				line += ": " + ev.Description
			}
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}
}
