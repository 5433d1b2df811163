package composer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/models"
)

// placeholderURL seeds findings when no target was entered; assessors fill
// in the real location during editing.
const placeholderURL = "TBD"

// seedConcurrency bounds how many findings are created in parallel.
const seedConcurrency = 4

// SeedResult records the outcome of seeding one selected definition.
type SeedResult struct {
	DefinitionID int64
	Finding      *client.FindingView
	Err          error
}

// Outcome is what Submit produced: the new report plus one result per
// selected definition, in selection order.
type Outcome struct {
	Report  *models.Report
	Seeded  []SeedResult
	Failed  int
	Created int
}

// Submit creates the report and seeds the selected catalog definitions as
// findings. Seeding is concurrent but all-settled: one failed definition
// never aborts the rest, and each result is reported individually. The
// server deduplicates per (report, definition), so retrying a partially
// failed submit is safe.
func Submit(ctx context.Context, api *client.Client, st *State) (*Outcome, error) {
	if st.ClientName() == "" {
		return nil, fmt.Errorf("no organization selected")
	}
	if strings.TrimSpace(st.ApplicationName) == "" {
		return nil, fmt.Errorf("application name is required")
	}

	report, err := api.CreateReport(ctx, client.ReportCreate{
		ClientName:      st.ClientName(),
		ApplicationName: strings.TrimSpace(st.ApplicationName),
		AssessmentType:  st.AssessmentType,
		Targets:         st.Targets,
		ToolsUsed:       st.ToolsUsed,
		TestLocation:    st.TestLocation,
		StartDate:       st.StartDate,
		EndDate:         st.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}

	affectedURL := placeholderURL
	for _, t := range st.Targets {
		if strings.TrimSpace(t) != "" {
			affectedURL = strings.TrimSpace(t)
			break
		}
	}

	out := &Outcome{
		Report: report,
		Seeded: make([]SeedResult, len(st.SelectedDefinitions)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for i, defID := range st.SelectedDefinitions {
		g.Go(func() error {
			view, err := api.CreateFinding(gctx, report.ID, client.FindingCreate{
				DefinitionID: &defID,
				AffectedURL:  affectedURL,
			})
			// Errors are recorded per item, never returned, so every
			// definition gets its attempt.
			out.Seeded[i] = SeedResult{DefinitionID: defID, Finding: view, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range out.Seeded {
		if res.Err != nil {
			out.Failed++
		} else {
			out.Created++
		}
	}
	return out, nil
}
