package client

import (
	"sync"
	"time"

	"github.com/vantagesec/reportkit/models"
)

// catalogCache holds the catalog listings for a short TTL. The catalog
// changes rarely relative to how often the composer and editor read it, so
// reads are served locally and every catalog mutation invalidates the whole
// cache.
type catalogCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	fetchedAt time.Time

	definitions []models.Definition
	categories  []models.Category
	hasDefs     bool
	hasCats     bool
}

func newCatalogCache(ttl time.Duration) *catalogCache {
	return &catalogCache{ttl: ttl}
}

// fresh reports whether cached entries are still servable. A non-positive
// TTL keeps entries until a mutation invalidates them.
func (cc *catalogCache) fresh() bool {
	if cc.fetchedAt.IsZero() {
		return false
	}
	return cc.ttl <= 0 || time.Since(cc.fetchedAt) < cc.ttl
}

func (cc *catalogCache) GetDefinitions() ([]models.Definition, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.hasDefs || !cc.fresh() {
		return nil, false
	}
	out := make([]models.Definition, len(cc.definitions))
	copy(out, cc.definitions)
	return out, true
}

func (cc *catalogCache) SetDefinitions(defs []models.Definition) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.definitions = defs
	cc.hasDefs = true
	cc.fetchedAt = time.Now()
}

func (cc *catalogCache) GetCategories() ([]models.Category, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.hasCats || !cc.fresh() {
		return nil, false
	}
	out := make([]models.Category, len(cc.categories))
	copy(out, cc.categories)
	return out, true
}

func (cc *catalogCache) SetCategories(cats []models.Category) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.categories = cats
	cc.hasCats = true
	cc.fetchedAt = time.Now()
}

// Invalidate drops everything. Called after any catalog mutation and on
// logout.
func (cc *catalogCache) Invalidate() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.definitions = nil
	cc.categories = nil
	cc.hasDefs = false
	cc.hasCats = false
	cc.fetchedAt = time.Time{}
}
