// Package document renders a report and its resolved findings into a
// client-deliverable file.
package document

import "github.com/vantagesec/reportkit/models"

// Item is one finding as it appears in the rendered document: the resolved
// content plus the per-instance fields that have no catalog fallback.
type Item struct {
	Resolved          models.ResolvedFinding
	AffectedURL       string
	RemediationStatus models.RemediationStatus
	Evidence          []models.Evidence
}

// Input is everything a renderer needs. Findings arrive pre-resolved so the
// renderer never touches the catalog.
type Input struct {
	Report   models.Report
	Findings []Item
}

// Renderer turns an Input into file bytes. Filename is the suggested
// client-side name, ContentType the MIME type to serve it under.
type Renderer interface {
	Render(in Input) ([]byte, error)
	Filename(in Input) string
	ContentType() string
}
