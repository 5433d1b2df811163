// Package editor implements the shared content editor used for both a
// finding's per-report overrides and a catalog definition's defaults. The
// same five fields are edited in both contexts; only the patch payload and
// the empty-field semantics differ.
package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/models"
)

// Context selects what the editor is pointed at.
type Context int

const (
	// ContextFindingOverride edits a finding's override fields. An empty
	// field means "fall back to the definition" and is sent as an empty
	// string to clear the override.
	ContextFindingOverride Context = iota

	// ContextCatalogDefinition edits a definition's default content. Title
	// and severity are mandatory; edits show through to every referencing
	// finding on its next resolution.
	ContextCatalogDefinition
)

// Form holds the editable fields plus enough identity to apply the patch.
type Form struct {
	Context Context

	ReportID     int64 // finding context
	FindingID    int64 // finding context
	DefinitionID int64 // definition context
	IsCustom     bool  // finding context: no definition to fall back to

	Title       string
	Severity    string
	Description string
	Impact      string
	Remediation string
}

// FromFinding pre-fills a form with the finding's current override values,
// not the resolved ones, so an untouched field stays a fallback.
func FromFinding(reportID int64, f client.FindingView) *Form {
	return &Form{
		Context:      ContextFindingOverride,
		ReportID:     reportID,
		FindingID:    f.ID,
		IsCustom:     f.IsCustom(),
		Title:        f.OverrideTitle,
		Severity:     f.OverrideSeverity,
		Description:  f.OverrideDescription,
		Impact:       f.OverrideImpact,
		Remediation:  f.OverrideRemediation,
	}
}

// FromDefinition pre-fills a form with the definition's current defaults.
func FromDefinition(def models.Definition) *Form {
	return &Form{
		Context:      ContextCatalogDefinition,
		DefinitionID: def.ID,
		Title:        def.Title,
		Severity:     string(def.DefaultSeverity),
		Description:  def.Description,
		Impact:       def.Impact,
		Remediation:  def.Remediation,
	}
}

// Validate checks the form against its context's rules.
func (f *Form) Validate() error {
	if f.Severity != "" && !models.NormalizeSeverity(f.Severity).Valid() {
		return fmt.Errorf("severity must be CRITICAL, HIGH, MEDIUM or LOW")
	}
	switch f.Context {
	case ContextCatalogDefinition:
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("title is required")
		}
		if f.Severity == "" {
			return fmt.Errorf("severity is required")
		}
	case ContextFindingOverride:
		if f.IsCustom {
			for name, val := range map[string]string{
				"title":       f.Title,
				"severity":    f.Severity,
				"description": f.Description,
				"impact":      f.Impact,
				"remediation": f.Remediation,
			} {
				if strings.TrimSpace(val) == "" {
					return fmt.Errorf("%s cannot be empty on a custom finding", name)
				}
			}
		}
	}
	return nil
}

// Payload builds the PATCH body for the form's context. Finding overrides
// go out under override_* keys; definition edits use bare keys.
func (f *Form) Payload() map[string]any {
	if f.Context == ContextCatalogDefinition {
		return map[string]any{
			"title":            f.Title,
			"default_severity": f.Severity,
			"description":      f.Description,
			"impact":           f.Impact,
			"remediation":      f.Remediation,
		}
	}
	return map[string]any{
		"override_title":       f.Title,
		"override_severity":    f.Severity,
		"override_description": f.Description,
		"override_impact":      f.Impact,
		"override_remediation": f.Remediation,
	}
}

// Apply validates and sends the patch to whichever resource the form edits.
func (f *Form) Apply(ctx context.Context, api *client.Client) error {
	if err := f.Validate(); err != nil {
		return err
	}
	switch f.Context {
	case ContextCatalogDefinition:
		_, err := api.UpdateDefinition(ctx, f.DefinitionID, f.Payload())
		return err
	case ContextFindingOverride:
		_, err := api.UpdateFinding(ctx, f.ReportID, f.FindingID, f.Payload())
		return err
	}
	return fmt.Errorf("unknown editor context")
}
