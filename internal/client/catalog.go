package client

import (
	"context"
	"net/http"

	"github.com/vantagesec/reportkit/models"
)

// DefinitionCreate mirrors the server's definition creation payload.
type DefinitionCreate struct {
	CategoryID      *int64 `json:"category_id"`
	Title           string `json:"title"`
	SourceType      string `json:"source_type,omitempty"`
	ExternalRef     string `json:"external_ref,omitempty"`
	DefaultSeverity string `json:"default_severity"`
	Description     string `json:"description,omitempty"`
	Impact          string `json:"impact,omitempty"`
	Remediation     string `json:"remediation,omitempty"`
}

// ListDefinitions returns the catalog, served from the local cache when it
// is still fresh.
func (c *Client) ListDefinitions(ctx context.Context) ([]models.Definition, error) {
	if defs, ok := c.cache.GetDefinitions(); ok {
		return defs, nil
	}
	var out listEnvelope[models.Definition]
	if err := c.do(ctx, http.MethodGet, "/vulnerabilities", nil, &out); err != nil {
		return nil, err
	}
	c.cache.SetDefinitions(out.Items)
	return out.Items, nil
}

func (c *Client) GetDefinition(ctx context.Context, id int64) (*models.Definition, error) {
	var out models.Definition
	if err := c.do(ctx, http.MethodGet, pathf("/vulnerabilities/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDefinition(ctx context.Context, req DefinitionCreate) (*models.Definition, error) {
	var out models.Definition
	if err := c.do(ctx, http.MethodPost, "/vulnerabilities", req, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate()
	return &out, nil
}

func (c *Client) UpdateDefinition(ctx context.Context, id int64, fields map[string]any) (*models.Definition, error) {
	var out models.Definition
	if err := c.do(ctx, http.MethodPatch, pathf("/vulnerabilities/%d", id), fields, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate()
	return &out, nil
}

// DeleteDefinition removes a catalog entry. Returns a conflict error when
// findings still reference it; check with IsConflict.
func (c *Client) DeleteDefinition(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, pathf("/vulnerabilities/%d", id), nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate()
	return nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	if cats, ok := c.cache.GetCategories(); ok {
		return cats, nil
	}
	var out listEnvelope[models.Category]
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	c.cache.SetCategories(out.Items)
	return out.Items, nil
}

func (c *Client) CreateCategory(ctx context.Context, code, name string) (*models.Category, error) {
	var out models.Category
	payload := map[string]string{"code": code, "name": name}
	if err := c.do(ctx, http.MethodPost, "/categories", payload, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate()
	return &out, nil
}

// DeleteCategory removes a grouping; its definitions survive ungrouped.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, pathf("/categories/%d", id), nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate()
	return nil
}
