// Package memory provides in-process stores used for local development and
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/pizzeria/internal/domain/catalog"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository keeps pizzas in insertion order.
type CatalogRepository struct {
	mu    sync.RWMutex
	items []catalog.Item
}

// NewCatalogRepository returns a repository seeded with items.
func NewCatalogRepository(items ...catalog.Item) *CatalogRepository {
	r := &CatalogRepository{}
	for _, item := range items {
		r.items = append(r.items, cloneItem(item))
	}
	return r
}

// List returns every pizza.
func (r *CatalogRepository) List(_ context.Context) ([]catalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Item, len(r.items))
	for i, item := range r.items {
		out[i] = cloneItem(item)
	}
	return out, nil
}

// Get returns the pizza with the given id.
func (r *CatalogRepository) Get(_ context.Context, id string) (*catalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id)
	if i < 0 {
		return nil, catalog.ErrNotFound
	}
	item := cloneItem(r.items[i])
	return &item, nil
}

// Create appends a pizza.
func (r *CatalogRepository) Create(_ context.Context, item *catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, cloneItem(*item))
	return nil
}

// Update replaces the pizza with the same id.
func (r *CatalogRepository) Update(_ context.Context, item *catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(item.ID)
	if i < 0 {
		return catalog.ErrNotFound
	}
	r.items[i] = cloneItem(*item)
	return nil
}

// Delete removes the pizza with the given id.
func (r *CatalogRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return catalog.ErrNotFound
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return nil
}

func (r *CatalogRepository) index(id string) int {
	for i, item := range r.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func cloneItem(item catalog.Item) catalog.Item {
	prices := make(catalog.Prices, len(item.Prices))
	for size, p := range item.Prices {
		prices[size] = p
	}
	item.Prices = prices
	return item
}
