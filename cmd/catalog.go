package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vantagesec/reportkit/internal/catalog"
	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/internal/editor"
	"github.com/vantagesec/reportkit/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the vulnerability catalog",
	Long: `The catalog holds reusable vulnerability definitions grouped into
categories. Findings reference definitions and inherit their content;
editing a definition updates every report that has not overridden the
edited field.`,
}

var catalogSearchQuery string

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog grouped by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}

		defs, err := api.ListDefinitions(ctx)
		if err != nil {
			return err
		}
		cats, err := api.ListCategories(ctx)
		if err != nil {
			return err
		}

		groups := catalog.Search(cats, defs, catalogSearchQuery)
		if len(groups) == 0 {
			fmt.Println("No matching catalog entries.")
			return nil
		}
		for _, g := range groups {
			fmt.Println(headerStyle.Render("  " + g.Name()))
			for _, def := range g.Definitions {
				ref := def.SourceType
				if def.ExternalRef != "" {
					ref += " " + def.ExternalRef
				}
				fmt.Printf("    [%d] %-8s %-44s %s\n", def.ID, def.DefaultSeverity, def.Title, dimStyle.Render(ref))
			}
		}
		return nil
	},
}

var catalogAddCategoryID int64

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a definition to the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}

		form := &editor.Form{Context: editor.ContextCatalogDefinition}
		if err := runEditorForm(form, models.ResolvedFinding{}); err != nil {
			return err
		}

		req := client.DefinitionCreate{
			Title:           form.Title,
			DefaultSeverity: form.Severity,
			Description:     form.Description,
			Impact:          form.Impact,
			Remediation:     form.Remediation,
		}
		if catalogAddCategoryID > 0 {
			req.CategoryID = &catalogAddCategoryID
		}
		def, err := api.CreateDefinition(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Definition #%d created.", def.ID)))
		return nil
	},
}

var catalogEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a definition's default content",
	Long: `Edits show through to every finding that references this definition and
has not overridden the edited field.`,
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
		def, err := api.GetDefinition(ctx, id)
		if err != nil {
			return err
		}

		form := editor.FromDefinition(*def)
		if err := runEditorForm(form, models.ResolvedFinding{}); err != nil {
			return err
		}
		if err := form.Apply(ctx, api); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Definition updated."))
		return nil
	},
}

var catalogRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a definition",
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
		if err := api.DeleteDefinition(ctx, id); err != nil {
			if client.IsConflict(err) {
				return fmt.Errorf("definition %d is still referenced by findings — remove those findings first", id)
			}
			return err
		}
		fmt.Printf("Definition #%d deleted.\n", id)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage catalog categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <code> <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		cat, err := api.CreateCategory(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Category #%d (%s) created.\n", cat.ID, cat.Code)
		return nil
	},
}

var categoryRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a category, leaving its definitions ungrouped",
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
		if err := api.DeleteCategory(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Category #%d deleted; its definitions are now ungrouped.\n", id)
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the catalog to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		defs, err := api.ListDefinitions(ctx)
		if err != nil {
			return err
		}
		cats, err := api.ListCategories(ctx)
		if err != nil {
			return err
		}
		data, err := catalog.Export(cats, defs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Exported %d definitions to %s.", len(defs), args[0])))
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import catalog entries from a YAML file",
	Long: `Merges a YAML catalog into this installation. Categories are matched by
code; definitions whose title already exists are skipped, never duplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		api, err := apiClient()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		bundle, err := catalog.Parse(data)
		if err != nil {
			return err
		}
		stats, err := catalog.Import(ctx, api, bundle)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf(
			"Imported %d definitions and %d categories (%d skipped as duplicates).",
			stats.DefinitionsCreated, stats.CategoriesCreated, stats.Skipped)))
		return nil
	},
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogSearchQuery, "search", "",
		"case-insensitive filter over titles, descriptions and sources")
	catalogAddCmd.Flags().Int64Var(&catalogAddCategoryID, "category", 0,
		"category id to file the definition under")
	categoryCmd.AddCommand(categoryAddCmd, categoryRmCmd)
	catalogCmd.AddCommand(
		catalogListCmd,
		catalogAddCmd,
		catalogEditCmd,
		catalogRmCmd,
		categoryCmd,
		catalogExportCmd,
		catalogImportCmd,
	)
}
