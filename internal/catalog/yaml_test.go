package catalog

import (
	"strings"
	"testing"

	"github.com/vantagesec/reportkit/models"
)

func TestExportParseRoundTrip(t *testing.T) {
	cats, defs := sampleCatalog()

	data, err := Export(cats, defs)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(b.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(b.Categories))
	}
	// Export follows Grouped's ordering, so Broken Access Control first.
	if b.Categories[0].Code != "A01" || b.Categories[1].Code != "A03" {
		t.Fatalf("category order wrong: %q, %q", b.Categories[0].Code, b.Categories[1].Code)
	}
	if len(b.Categories[1].Definitions) != 2 {
		t.Fatalf("Injection should export 2 definitions, got %d", len(b.Categories[1].Definitions))
	}
	if len(b.Ungrouped) != 1 || b.Ungrouped[0].Title != "Weak TLS Configuration" {
		t.Fatalf("ungrouped export wrong: %+v", b.Ungrouped)
	}
	if got := b.Categories[1].Definitions[0].DefaultSeverity; got != string(models.SeverityCritical) {
		t.Fatalf("severity should round-trip, got %q", got)
	}
}

func TestParseRejectsInvalidBundles(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "category without code",
			yaml: "categories:\n  - name: Injection\n",
			want: "missing code",
		},
		{
			name: "definition without title",
			yaml: "ungrouped:\n  - default_severity: HIGH\n",
			want: "missing title",
		},
		{
			name: "bad severity",
			yaml: "ungrouped:\n  - title: Something\n    default_severity: SEVERE\n",
			want: "invalid severity",
		},
		{
			name: "not yaml",
			yaml: "{{{",
			want: "parsing catalog yaml",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseNormalizableSeverityAccepted(t *testing.T) {
	b, err := Parse([]byte("ungrouped:\n  - title: Open Redirect\n    default_severity: low\n"))
	if err != nil {
		t.Fatalf("lowercase severity should parse: %v", err)
	}
	if len(b.Ungrouped) != 1 {
		t.Fatalf("expected one definition, got %d", len(b.Ungrouped))
	}
}
