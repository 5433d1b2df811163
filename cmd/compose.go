package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/internal/composer"
	"github.com/vantagesec/reportkit/models"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Interactive wizard that creates a report",
	Long: `Walks through report creation in four steps:

  1. Organization   pick an existing client or enter a new one
  2. Application    name, assessment type, targets and tooling
  3. Schedule       test location plus start and end dates
  4. Findings       select catalog entries to seed as findings

Each step offers "Back"; going back never loses entered data. On submit the
report is created as a Draft and the selected findings are seeded
concurrently; a definition that fails to seed is reported individually and
can be retried by re-adding it.`,
	RunE: runCompose,
}

// newClientSentinel marks "enter a new organization" in the picker.
const newClientSentinel = "__new__"

// Step navigation choices.
const (
	navContinue = "continue"
	navBack     = "back"
)

func runCompose(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	api, err := apiClient()
	if err != nil {
		return err
	}
	if !api.LoggedIn() {
		return fmt.Errorf("not logged in — run 'reportkit login' first")
	}

	st := composer.New()

	fmt.Println()
	fmt.Println(headerStyle.Render("  reportkit — new report"))

	for {
		var back bool
		switch st.Step() {
		case composer.StepOrganization:
			err = composeOrganization(ctx, api, st)
		case composer.StepApplication:
			back, err = composeApplication(st)
		case composer.StepSchedule:
			back, err = composeSchedule(st)
		case composer.StepFindings:
			back, err = composeFindings(ctx, api, st)
		}
		if err != nil {
			return err
		}
		if back {
			st.Back()
			continue
		}

		if st.AtEnd() {
			break
		}
		if ok, reason := st.CanAdvance(); !ok {
			fmt.Println(warnStyle.Render("  " + reason))
			continue
		}
		st.Advance()
	}

	outcome, err := composer.Submit(ctx, api, st)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("Report #%d created for %s (%s).",
		outcome.Report.ID, outcome.Report.ClientName, outcome.Report.Status)))
	if len(outcome.Seeded) > 0 {
		fmt.Printf("Seeded %d of %d findings.\n", outcome.Created, len(outcome.Seeded))
		for _, res := range outcome.Seeded {
			if res.Err != nil {
				fmt.Println(warnStyle.Render(fmt.Sprintf("  definition %d: %v", res.DefinitionID, res.Err)))
			}
		}
	}
	return nil
}

// navSelect is the per-step navigation field. continueLabel names the
// forward action ("Continue", "Create report").
func navSelect(continueLabel string, nav *string) *huh.Select[string] {
	return huh.NewSelect[string]().
		Options(
			huh.NewOption(continueLabel, navContinue),
			huh.NewOption("Back", navBack),
		).
		Value(nav)
}

// composeOrganization runs step 1: existing client or new name, mutually
// exclusive. The first step has nowhere to go back to.
func composeOrganization(ctx context.Context, api *client.Client, st *composer.State) error {
	fmt.Println(headerStyle.Render("  Step 1/4 · Organization"))

	known, err := knownClients(ctx, api)
	if err != nil {
		return err
	}

	choice := st.ExistingClient
	if choice == "" && st.NewClient != "" {
		choice = newClientSentinel
	}
	opts := make([]huh.Option[string], 0, len(known)+1)
	for _, name := range known {
		opts = append(opts, huh.NewOption(name, name))
	}
	opts = append(opts, huh.NewOption("New organization...", newClientSentinel))

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Client organization").
			Options(opts...).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return err
	}

	if choice == newClientSentinel {
		name := st.NewClient
		entry := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Organization name").Value(&name),
		))
		if err := entry.Run(); err != nil {
			return err
		}
		st.EnterNewClient(name)
	} else {
		st.SelectExistingClient(choice)
	}
	return nil
}

// knownClients collects distinct client names from existing reports.
func knownClients(ctx context.Context, api *client.Client) ([]string, error) {
	page, err := api.ListReports(ctx, 1, 500)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	seen := map[string]bool{}
	var names []string
	for _, r := range page.Items {
		if !seen[r.ClientName] {
			seen[r.ClientName] = true
			names = append(names, r.ClientName)
		}
	}
	return names, nil
}

func composeApplication(st *composer.State) (bool, error) {
	fmt.Println(headerStyle.Render("  Step 2/4 · Application"))

	if st.AssessmentType == "" {
		st.AssessmentType = string(models.AssessmentExternal)
	}
	targets := strings.Join(st.Targets, ", ")
	tools := strings.Join(st.ToolsUsed, ", ")
	nav := navContinue

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Application name").
			Value(&st.ApplicationName),
		huh.NewSelect[string]().
			Title("Assessment type").
			Options(
				huh.NewOption("External", string(models.AssessmentExternal)),
				huh.NewOption("Internal", string(models.AssessmentInternal)),
			).
			Value(&st.AssessmentType),
		huh.NewInput().
			Title("Targets").
			Description("Comma separated URLs or hosts in scope.").
			Value(&targets),
		huh.NewInput().
			Title("Tools used").
			Description("Comma separated, e.g. Burp Suite, nmap, sqlmap.").
			Value(&tools),
		navSelect("Continue", &nav),
	))
	if err := form.Run(); err != nil {
		return false, err
	}

	// Entered values are kept even when going back.
	st.Targets = splitCommaList(targets)
	st.ToolsUsed = splitCommaList(tools)
	return nav == navBack, nil
}

func composeSchedule(st *composer.State) (bool, error) {
	fmt.Println(headerStyle.Render("  Step 3/4 · Schedule"))

	if st.TestLocation == "" {
		st.TestLocation = string(models.LocationOffSite)
	}
	nav := navContinue
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Test location").
			Options(
				huh.NewOption("Off-site", string(models.LocationOffSite)),
				huh.NewOption("On-site", string(models.LocationOnSite)),
			).
			Value(&st.TestLocation),
		huh.NewInput().
			Title("Start date").
			Placeholder("YYYY-MM-DD").
			Value(&st.StartDate),
		huh.NewInput().
			Title("End date").
			Placeholder("YYYY-MM-DD").
			Value(&st.EndDate),
		navSelect("Continue", &nav),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return nav == navBack, nil
}

// composeFindings runs step 4: multi-select catalog definitions to seed.
func composeFindings(ctx context.Context, api *client.Client, st *composer.State) (bool, error) {
	fmt.Println(headerStyle.Render("  Step 4/4 · Findings"))

	defs, err := api.ListDefinitions(ctx)
	if err != nil {
		return false, fmt.Errorf("loading catalog: %w", err)
	}

	nav := navContinue
	fields := []huh.Field{}
	selected := st.SelectedDefinitions
	if len(defs) == 0 {
		fmt.Println(dimStyle.Render("  Catalog is empty — the report will start without findings."))
	} else {
		opts := make([]huh.Option[int64], 0, len(defs))
		for _, def := range defs {
			label := fmt.Sprintf("[%s] %s", def.DefaultSeverity, def.Title)
			opts = append(opts, huh.NewOption(label, def.ID))
		}
		fields = append(fields, huh.NewMultiSelect[int64]().
			Title("Seed findings from the catalog").
			Description("Space toggles, enter confirms. Duplicates are collapsed server side.").
			Options(opts...).
			Value(&selected))
	}
	fields = append(fields, navSelect("Create report", &nav))

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return false, err
	}
	st.SelectedDefinitions = selected
	return nav == navBack, nil
}

func splitCommaList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
