package cmd

import (
	"github.com/charmbracelet/huh"

	"github.com/vantagesec/reportkit/internal/editor"
	"github.com/vantagesec/reportkit/models"
)

// runEditorForm presents the shared five-field editor. For finding
// overrides the resolved values appear as placeholders so the assessor sees
// what an empty field will fall back to.
func runEditorForm(form *editor.Form, resolved models.ResolvedFinding) error {
	titleInput := huh.NewInput().Title("Title").Value(&form.Title)
	sevInput := huh.NewInput().Title("Severity").
		Description("CRITICAL, HIGH, MEDIUM or LOW.").Value(&form.Severity)
	descInput := huh.NewText().Title("Description").Value(&form.Description)
	impactInput := huh.NewText().Title("Impact").Value(&form.Impact)
	remedInput := huh.NewText().Title("Remediation").Value(&form.Remediation)

	if form.Context == editor.ContextFindingOverride && !form.IsCustom {
		titleInput = titleInput.Placeholder(resolved.Title).
			Description("Empty falls back to the catalog definition.")
		sevInput = sevInput.Placeholder(string(resolved.Severity))
		descInput = descInput.Placeholder(resolved.Description)
		impactInput = impactInput.Placeholder(resolved.Impact)
		remedInput = remedInput.Placeholder(resolved.Remediation)
	}

	f := huh.NewForm(huh.NewGroup(titleInput, sevInput, descInput, impactInput, remedInput))
	if err := f.Run(); err != nil {
		return err
	}
	return form.Validate()
}
