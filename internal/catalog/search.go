// Package catalog provides client-side views of the vulnerability catalog:
// grouped listing, search, and YAML import/export for moving a catalog
// between installations.
package catalog

import (
	"sort"
	"strings"

	"github.com/vantagesec/reportkit/models"
)

// Group is one category with its member definitions. A nil Category holds
// the ungrouped definitions.
type Group struct {
	Category    *models.Category
	Definitions []models.Definition
}

// Name returns the display name of the group.
func (g Group) Name() string {
	if g.Category == nil {
		return "Ungrouped"
	}
	return g.Category.Name
}

// Grouped arranges definitions under their categories, sorted by category
// name with the ungrouped bucket last.
func Grouped(cats []models.Category, defs []models.Definition) []Group {
	byID := make(map[int64]*Group, len(cats))
	groups := make([]Group, 0, len(cats)+1)
	for i := range cats {
		groups = append(groups, Group{Category: &cats[i]})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Category.Name < groups[j].Category.Name
	})
	for i := range groups {
		byID[groups[i].Category.ID] = &groups[i]
	}

	var ungrouped Group
	for _, def := range defs {
		if def.CategoryID != nil {
			if g, ok := byID[*def.CategoryID]; ok {
				g.Definitions = append(g.Definitions, def)
				continue
			}
		}
		ungrouped.Definitions = append(ungrouped.Definitions, def)
	}
	if len(ungrouped.Definitions) > 0 {
		groups = append(groups, ungrouped)
	}
	return groups
}

// matches reports whether a definition matches the query across its
// searchable text fields.
func matches(def models.Definition, query string) bool {
	for _, field := range []string{def.Title, def.Description, def.SourceType} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Search filters the grouped catalog by a case-insensitive substring. A
// category whose name matches keeps all of its definitions; otherwise the
// category survives only if at least one member matches, trimmed to the
// matching members. An empty query returns everything.
func Search(cats []models.Category, defs []models.Definition, query string) []Group {
	groups := Grouped(cats, defs)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return groups
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Category != nil && strings.Contains(strings.ToLower(g.Category.Name), query) {
			out = append(out, g)
			continue
		}
		var kept []models.Definition
		for _, def := range g.Definitions {
			if matches(def, query) {
				kept = append(kept, def)
			}
		}
		if len(kept) > 0 {
			out = append(out, Group{Category: g.Category, Definitions: kept})
		}
	}
	return out
}
