package editor

import (
	"strings"
	"testing"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/models"
)

func TestFromFindingPrefillsOverridesNotResolvedValues(t *testing.T) {
	defID := int64(7)
	view := client.FindingView{
		Finding: models.Finding{
			ID:            3,
			ReportID:      42,
			DefinitionID:  &defID,
			OverrideTitle: "SQLi in search",
		},
		Resolved: models.ResolvedFinding{
			Title:       "SQLi in search",
			Severity:    models.SeverityCritical,
			Description: "From the definition",
		},
	}

	f := FromFinding(42, view)
	if f.Title != "SQLi in search" {
		t.Fatalf("override title should prefill, got %q", f.Title)
	}
	if f.Severity != "" || f.Description != "" {
		t.Fatalf("resolved values must not leak into the form: severity=%q description=%q", f.Severity, f.Description)
	}
	if f.IsCustom {
		t.Fatal("a definition-backed finding is not custom")
	}
}

func TestValidatePerContext(t *testing.T) {
	def := &Form{Context: ContextCatalogDefinition, Severity: "HIGH"}
	if err := def.Validate(); err == nil || !strings.Contains(err.Error(), "title") {
		t.Fatalf("definition without title should fail, got %v", err)
	}
	def.Title = "SSRF"
	def.Severity = ""
	if err := def.Validate(); err == nil || !strings.Contains(err.Error(), "severity") {
		t.Fatalf("definition without severity should fail, got %v", err)
	}
	def.Severity = "high"
	if err := def.Validate(); err != nil {
		t.Fatalf("lowercase severity normalizes fine, got %v", err)
	}
	def.Severity = "SEVERE"
	if err := def.Validate(); err == nil {
		t.Fatal("unknown severity should fail")
	}

	// Overrides on a definition-backed finding may be empty: empty means
	// fall back.
	backed := &Form{Context: ContextFindingOverride}
	if err := backed.Validate(); err != nil {
		t.Fatalf("empty overrides are valid on a backed finding, got %v", err)
	}

	custom := &Form{
		Context:     ContextFindingOverride,
		IsCustom:    true,
		Title:       "Bespoke",
		Severity:    "LOW",
		Description: "d",
		Impact:      "i",
	}
	if err := custom.Validate(); err == nil || !strings.Contains(err.Error(), "remediation") {
		t.Fatalf("custom finding with an empty field should name it, got %v", err)
	}
	custom.Remediation = "r"
	if err := custom.Validate(); err != nil {
		t.Fatalf("complete custom finding should validate, got %v", err)
	}
}

func TestPayloadKeysFollowContext(t *testing.T) {
	f := &Form{
		Context:     ContextFindingOverride,
		Title:       "T",
		Severity:    "HIGH",
		Description: "",
	}
	p := f.Payload()
	if _, ok := p["override_title"]; !ok {
		t.Fatal("finding payload uses override_ keys")
	}
	if v, ok := p["override_description"]; !ok || v != "" {
		t.Fatal("empty overrides are sent to clear the field")
	}
	if _, ok := p["title"]; ok {
		t.Fatal("finding payload must not carry bare keys")
	}

	f.Context = ContextCatalogDefinition
	p = f.Payload()
	if _, ok := p["default_severity"]; !ok {
		t.Fatal("definition payload uses default_severity")
	}
	if _, ok := p["override_title"]; ok {
		t.Fatal("definition payload must not carry override_ keys")
	}
}
