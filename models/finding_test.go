package models

import "testing"

func sampleDefinition() *Definition {
	return &Definition{
		ID:              7,
		Title:           "SQL Injection",
		SourceType:      "OWASP",
		DefaultSeverity: SeverityHigh,
		Description:     "Unsanitised input reaches a SQL interpreter.",
		Impact:          "Full database compromise.",
		Remediation:     "Use parameterised queries.",
	}
}

func TestResolveFallsBackPerField(t *testing.T) {
	defID := int64(7)
	f := Finding{
		ReportID:     1,
		DefinitionID: &defID,
		// Only the title is overridden; everything else falls back.
		OverrideTitle: "SQL Injection in /login",
	}
	r := Resolve(f, sampleDefinition())

	if r.Title != "SQL Injection in /login" {
		t.Errorf("title: got %q", r.Title)
	}
	if r.Severity != SeverityHigh {
		t.Errorf("severity: got %q, want fallback HIGH", r.Severity)
	}
	if r.Description != "Unsanitised input reaches a SQL interpreter." {
		t.Errorf("description: got %q", r.Description)
	}
	if r.Impact != "Full database compromise." {
		t.Errorf("impact: got %q", r.Impact)
	}
	if r.Remediation != "Use parameterised queries." {
		t.Errorf("remediation: got %q", r.Remediation)
	}
}

func TestResolveOverridesWinFieldByField(t *testing.T) {
	defID := int64(7)
	f := Finding{
		DefinitionID:        &defID,
		OverrideSeverity:    "critical", // case-normalised on resolution
		OverrideRemediation: "Apply the vendor hotfix.",
	}
	r := Resolve(f, sampleDefinition())

	if r.Severity != SeverityCritical {
		t.Errorf("severity: got %q, want CRITICAL", r.Severity)
	}
	if r.Remediation != "Apply the vendor hotfix." {
		t.Errorf("remediation: got %q", r.Remediation)
	}
	if r.Title != "SQL Injection" {
		t.Errorf("title should fall back to definition, got %q", r.Title)
	}
}

func TestResolveCustomFindingHasNoFallback(t *testing.T) {
	f := Finding{
		OverrideTitle:       "Hardcoded credentials",
		OverrideSeverity:    "Medium",
		OverrideDescription: "Credentials embedded in the mobile binary.",
		OverrideImpact:      "Account takeover.",
		OverrideRemediation: "Move secrets to a vault.",
	}
	r := Resolve(f, nil)

	if r.Title != f.OverrideTitle || r.Description != f.OverrideDescription ||
		r.Impact != f.OverrideImpact || r.Remediation != f.OverrideRemediation {
		t.Errorf("custom finding fields must equal overrides verbatim: %+v", r)
	}
	if r.Severity != SeverityMedium {
		t.Errorf("severity: got %q, want MEDIUM", r.Severity)
	}
}

func TestResolveReflectsDefinitionEdits(t *testing.T) {
	defID := int64(7)
	f := Finding{DefinitionID: &defID}
	def := sampleDefinition()

	before := Resolve(f, def)
	def.DefaultSeverity = SeverityCritical
	after := Resolve(f, def)

	if before.Severity != SeverityHigh || after.Severity != SeverityCritical {
		t.Errorf("resolution must not cache: before=%q after=%q", before.Severity, after.Severity)
	}
}

func TestRemediationToggleRoundTrips(t *testing.T) {
	s := RemediationPending
	if s.Toggle() != RemediationPatched {
		t.Fatalf("Pending should toggle to Patched")
	}
	if s.Toggle().Toggle() != RemediationPending {
		t.Fatalf("double toggle must return the original status")
	}
}

func TestNormalizeSeverity(t *testing.T) {
	if NormalizeSeverity(" high ") != SeverityHigh {
		t.Errorf("expected trimmed uppercase HIGH")
	}
	if !SeverityLevel("critical").Valid() {
		t.Errorf("validity check must be case-insensitive")
	}
	if SeverityLevel("SEVERE").Valid() {
		t.Errorf("unknown level must not validate")
	}
}

func TestStringListRoundTrip(t *testing.T) {
	in := []string{"https://a.test", "https://b.test"}
	if got := DecodeStringList(EncodeStringList(in)); len(got) != 2 || got[0] != in[0] || got[1] != in[1] {
		t.Errorf("round trip mismatch: %v", got)
	}
	if EncodeStringList(nil) != "[]" {
		t.Errorf("nil list must encode as []")
	}
	if DecodeStringList("") != nil {
		t.Errorf("empty column must decode to nil")
	}
}
