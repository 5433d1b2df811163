package models

import "time"

// RemediationStatus tracks whether a finding's underlying issue has been
// fixed, independent of the owning report's lifecycle.
type RemediationStatus string

const (
	RemediationPending RemediationStatus = "Pending"
	RemediationPatched RemediationStatus = "Patched"
)

func (s RemediationStatus) Valid() bool {
	return s == RemediationPending || s == RemediationPatched
}

// Toggle returns the opposite status. Applying it twice in sequence returns
// the original value.
func (s RemediationStatus) Toggle() RemediationStatus {
	if s == RemediationPatched {
		return RemediationPending
	}
	return RemediationPatched
}

// Finding is a per-report vulnerability instance. DefinitionID references a
// shared catalog Definition; when nil the finding is fully custom and every
// override field must be populated. Override fields are nullable — an empty
// string means "fall back to the definition".
type Finding struct {
	ID                  int64             `json:"id"                   db:"id"`
	ReportID            int64             `json:"report_id"            db:"report_id"`
	DefinitionID        *int64            `json:"definition_id"        db:"definition_id"`
	AffectedURL         string            `json:"affected_url"         db:"affected_url"`
	OverrideTitle       string            `json:"override_title"       db:"override_title"`
	OverrideSeverity    string            `json:"override_severity"    db:"override_severity"`
	OverrideDescription string            `json:"override_description" db:"override_description"`
	OverrideImpact      string            `json:"override_impact"      db:"override_impact"`
	OverrideRemediation string            `json:"override_remediation" db:"override_remediation"`
	RemediationStatus   RemediationStatus `json:"remediation_status"   db:"remediation_status"`
	CreatedAt           time.Time         `json:"created_at"           db:"created_at"`
}

// IsCustom reports whether the finding has no backing catalog definition.
func (f Finding) IsCustom() bool {
	return f.DefinitionID == nil
}

// ResolvedFinding is the authoritative content of a finding after per-field
// fallback against its catalog definition.
type ResolvedFinding struct {
	Title       string        `json:"title"`
	Severity    SeverityLevel `json:"severity"`
	Description string        `json:"description"`
	Impact      string        `json:"impact"`
	Remediation string        `json:"remediation"`
}

// Resolve computes a finding's final content: each field independently takes
// the override when non-empty, else the definition's value when a definition
// is referenced, else stays empty. Pure and deterministic — safe to call on
// every render, so definition edits show through on the next resolution
// unless overridden.
func Resolve(f Finding, def *Definition) ResolvedFinding {
	pick := func(override, fallback string) string {
		if override != "" {
			return override
		}
		return fallback
	}
	var title, sev, desc, impact, remed string
	if def != nil {
		title = def.Title
		sev = string(def.DefaultSeverity)
		desc = def.Description
		impact = def.Impact
		remed = def.Remediation
	}
	return ResolvedFinding{
		Title:       pick(f.OverrideTitle, title),
		Severity:    NormalizeSeverity(pick(f.OverrideSeverity, sev)),
		Description: pick(f.OverrideDescription, desc),
		Impact:      pick(f.OverrideImpact, impact),
		Remediation: pick(f.OverrideRemediation, remed),
	}
}
