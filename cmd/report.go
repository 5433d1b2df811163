package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantagesec/reportkit/internal/editor"
	"github.com/vantagesec/reportkit/models"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List, inspect and export reports",
}

var reportListPage int

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}

		page, err := api.ListReports(ctx, reportListPage, 25)
		if err != nil {
			return err
		}
		if page.Total == 0 {
			fmt.Println("No reports yet — run 'reportkit compose' to create one.")
			return nil
		}
		for _, r := range page.Items {
			fmt.Printf("#%-4d %-24s %-28s %-12s %d findings\n",
				r.ID, r.ClientName, r.ApplicationName, r.Status, r.FindingsCount)
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("page %d/%d · %d total", page.Page, page.TotalPages, page.Total)))
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one report with its findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		r, err := api.GetReport(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s — %s\n", r.ID, r.ClientName, r.ApplicationName)
		fmt.Printf("  %s assessment, %s, %s to %s\n", r.AssessmentType, r.TestLocation, r.StartDate, r.EndDate)
		fmt.Printf("  Status: %s\n", r.Status)
		if len(r.Targets) > 0 {
			fmt.Printf("  Targets: %v\n", r.Targets)
		}

		findings, err := api.ListFindings(ctx, id)
		if err != nil {
			return err
		}
		if len(findings) == 0 {
			fmt.Println("  No findings.")
			return nil
		}
		fmt.Println()
		for _, f := range findings {
			fmt.Printf("  [%d] %-8s %-40s %s\n",
				f.ID, f.Resolved.Severity, f.Resolved.Title, f.RemediationStatus)
		}
		return nil
	},
}

var reportStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set a report's lifecycle status",
	Long: `Moves a report to Draft, "In Progress", Completed or Verified. Any valid
status may follow any other; re-testing commonly moves Verified back to
Draft.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		r, err := api.SetReportStatus(ctx, id, models.ReportStatus(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("Report #%d is now %s.\n", r.ID, r.Status)
		return nil
	},
}

var reportToggleCmd = &cobra.Command{
	Use:   "toggle <report-id> <finding-id>",
	Short: "Toggle a finding between Pending and Patched",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		reportID, err := parseID(args[0])
		if err != nil {
			return err
		}
		findingID, err := parseID(args[1])
		if err != nil {
			return err
		}
		f, err := api.ToggleRemediation(ctx, reportID, findingID)
		if err != nil {
			return err
		}
		fmt.Printf("Finding %d (%s) is now %s.\n", f.ID, f.Resolved.Title, f.RemediationStatus)
		return nil
	},
}

var reportEditCmd = &cobra.Command{
	Use:   "edit <report-id> <finding-id>",
	Short: "Edit a finding's overrides",
	Long: `Opens the override editor for one finding. Fields left empty fall back to
the catalog definition; custom findings must keep every field filled.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		reportID, err := parseID(args[0])
		if err != nil {
			return err
		}
		findingID, err := parseID(args[1])
		if err != nil {
			return err
		}
		f, err := api.GetFinding(ctx, reportID, findingID)
		if err != nil {
			return err
		}

		form := editor.FromFinding(reportID, *f)
		if err := runEditorForm(form, f.Resolved); err != nil {
			return err
		}
		if err := form.Apply(ctx, api); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Finding updated."))
		return nil
	},
}

var reportDownloadDir string

var reportDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Render and download the report document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		path, err := api.DownloadDocument(ctx, id, reportDownloadDir)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Saved " + path))
		return nil
	},
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a report and everything it owns",
	Long: `Deletes the report, its findings and their evidence files. Catalog
definitions referenced by the findings are untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := api.DeleteReport(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Report #%d deleted.\n", id)
		return nil
	},
}

func init() {
	reportListCmd.Flags().IntVar(&reportListPage, "page", 1, "page number")
	reportDownloadCmd.Flags().StringVar(&reportDownloadDir, "dir", ".", "directory to save the document in")
	reportCmd.AddCommand(
		reportListCmd,
		reportShowCmd,
		reportStatusCmd,
		reportToggleCmd,
		reportEditCmd,
		reportDownloadCmd,
		reportDeleteCmd,
	)
}

func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
