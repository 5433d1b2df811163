package catalog

import (
	"context"
	"fmt"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/models"
)

// yamlDefinition is the exchange shape of one catalog entry.
type yamlDefinition struct {
	Title           string `yaml:"title"`
	SourceType      string `yaml:"source_type,omitempty"`
	ExternalRef     string `yaml:"external_ref,omitempty"`
	DefaultSeverity string `yaml:"default_severity"`
	Description     string `yaml:"description,omitempty"`
	Impact          string `yaml:"impact,omitempty"`
	Remediation     string `yaml:"remediation,omitempty"`
}

type yamlCategory struct {
	Code        string           `yaml:"code"`
	Name        string           `yaml:"name"`
	Definitions []yamlDefinition `yaml:"definitions,omitempty"`
}

// Bundle is a portable catalog snapshot.
type Bundle struct {
	Categories []yamlCategory   `yaml:"categories,omitempty"`
	Ungrouped  []yamlDefinition `yaml:"ungrouped,omitempty"`
}

func toYAMLDefinition(def models.Definition) yamlDefinition {
	return yamlDefinition{
		Title:           def.Title,
		SourceType:      def.SourceType,
		ExternalRef:     def.ExternalRef,
		DefaultSeverity: string(def.DefaultSeverity),
		Description:     def.Description,
		Impact:          def.Impact,
		Remediation:     def.Remediation,
	}
}

// Export serializes the catalog grouped by category.
func Export(cats []models.Category, defs []models.Definition) ([]byte, error) {
	var b Bundle
	for _, g := range Grouped(cats, defs) {
		if g.Category == nil {
			for _, def := range g.Definitions {
				b.Ungrouped = append(b.Ungrouped, toYAMLDefinition(def))
			}
			continue
		}
		yc := yamlCategory{Code: g.Category.Code, Name: g.Category.Name}
		for _, def := range g.Definitions {
			yc.Definitions = append(yc.Definitions, toYAMLDefinition(def))
		}
		b.Categories = append(b.Categories, yc)
	}
	return yaml.Marshal(&b)
}

// Parse decodes a catalog bundle and rejects entries missing required
// fields before anything is sent to the server.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}
	check := func(def yamlDefinition, where string) error {
		if strings.TrimSpace(def.Title) == "" {
			return fmt.Errorf("%s: definition missing title", where)
		}
		if !models.NormalizeSeverity(def.DefaultSeverity).Valid() {
			return fmt.Errorf("%s: definition %q has invalid severity %q", where, def.Title, def.DefaultSeverity)
		}
		return nil
	}
	for _, c := range b.Categories {
		if strings.TrimSpace(c.Code) == "" || strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category missing code or name")
		}
		for _, def := range c.Definitions {
			if err := check(def, "category "+c.Code); err != nil {
				return nil, err
			}
		}
	}
	for _, def := range b.Ungrouped {
		if err := check(def, "ungrouped"); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

// ImportStats summarizes what an import did.
type ImportStats struct {
	CategoriesCreated  int
	DefinitionsCreated int
	Skipped            int
}

// Import pushes a bundle to the server. Existing categories are matched by
// code and reused; definitions whose title already exists (case-insensitive)
// are skipped rather than duplicated.
func Import(ctx context.Context, api *client.Client, b *Bundle) (*ImportStats, error) {
	stats := &ImportStats{}

	existingCats, err := api.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	catByCode := make(map[string]int64, len(existingCats))
	for _, c := range existingCats {
		catByCode[strings.ToLower(c.Code)] = c.ID
	}

	existingDefs, err := api.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing definitions: %w", err)
	}
	seenTitle := make(map[string]bool, len(existingDefs))
	for _, d := range existingDefs {
		seenTitle[strings.ToLower(d.Title)] = true
	}

	createDef := func(def yamlDefinition, categoryID *int64) error {
		key := strings.ToLower(def.Title)
		if seenTitle[key] {
			stats.Skipped++
			return nil
		}
		_, err := api.CreateDefinition(ctx, client.DefinitionCreate{
			CategoryID:      categoryID,
			Title:           def.Title,
			SourceType:      def.SourceType,
			ExternalRef:     def.ExternalRef,
			DefaultSeverity: def.DefaultSeverity,
			Description:     def.Description,
			Impact:          def.Impact,
			Remediation:     def.Remediation,
		})
		if err != nil {
			return fmt.Errorf("creating definition %q: %w", def.Title, err)
		}
		seenTitle[key] = true
		stats.DefinitionsCreated++
		return nil
	}

	for _, c := range b.Categories {
		id, ok := catByCode[strings.ToLower(c.Code)]
		if !ok {
			created, err := api.CreateCategory(ctx, c.Code, c.Name)
			if err != nil {
				return stats, fmt.Errorf("creating category %q: %w", c.Code, err)
			}
			id = created.ID
			catByCode[strings.ToLower(c.Code)] = id
			stats.CategoriesCreated++
		}
		for _, def := range c.Definitions {
			if err := createDef(def, &id); err != nil {
				return stats, err
			}
		}
	}
	for _, def := range b.Ungrouped {
		if err := createDef(def, nil); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
