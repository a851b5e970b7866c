// Package mirror keeps a local copy of the catalog list and the pending delete confirmation.
package mirror

import (
	"context"
	"slices"
	"sync"

	"productos_catalog/structs"
	"productos_catalog/structs/tables"

	"github.com/MonkyMars/gecho"
)

// CatalogAPI is the remote catalog the mirror follows
type CatalogAPI interface {
	List(ctx context.Context) ([]tables.Product, error)
	Create(ctx context.Context, req *structs.ProductRequest) error
	Update(ctx context.Context, id int64, req *structs.ProductRequest) error
	Delete(ctx context.Context, id int64) error
}

// Catalog mirrors the remote product list. Mutations never touch the snapshot directly; each
// one is followed by a full refresh.
type Catalog struct {
	api    CatalogAPI
	logger *gecho.Logger

	mu        sync.Mutex
	products  []tables.Product
	pending   *tables.Product
	listeners map[int]func([]tables.Product)
	nextID    int
}

func NewCatalog(api CatalogAPI, logger *gecho.Logger) *Catalog {
	return &Catalog{
		api:       api,
		logger:    logger,
		products:  []tables.Product{},
		listeners: make(map[int]func([]tables.Product)),
	}
}

// Snapshot returns a copy of the current list
func (c *Catalog) Snapshot() []tables.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.products)
}

// Subscribe registers fn for every new snapshot and returns a func that removes it
func (c *Catalog) Subscribe(fn func([]tables.Product)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Refresh replaces the snapshot with the remote list. On failure the snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) {
	products, err := c.api.List(ctx)
	if err != nil {
		c.logger.Error("Failed to fetch products", gecho.Field("error", err))
		return
	}
	if products == nil {
		products = []tables.Product{}
	}

	c.mu.Lock()
	c.products = products
	listeners := make([]func([]tables.Product), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(slices.Clone(products))
	}
}

func (c *Catalog) Create(ctx context.Context, req *structs.ProductRequest) {
	if err := c.api.Create(ctx, req); err != nil {
		c.logger.Error("Failed to add product", gecho.Field("error", err))
	}
	c.Refresh(ctx)
}

func (c *Catalog) Edit(ctx context.Context, id int64, req *structs.ProductRequest) {
	if err := c.api.Update(ctx, id, req); err != nil {
		c.logger.Error("Failed to edit product", gecho.Field("error", err), gecho.Field("product_id", id))
	}
	c.Refresh(ctx)
}

func (c *Catalog) Delete(ctx context.Context, id int64) {
	if err := c.api.Delete(ctx, id); err != nil {
		c.logger.Error("Failed to delete product", gecho.Field("error", err), gecho.Field("product_id", id))
	}
	c.Refresh(ctx)
}

// ConfirmDeletion marks p as the product awaiting confirmation, replacing any earlier target
func (c *Catalog) ConfirmDeletion(p tables.Product) {
	c.mu.Lock()
	c.pending = &p
	c.mu.Unlock()
}

// CancelDeletion drops the pending target without deleting it
func (c *Catalog) CancelDeletion() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// Pending returns the product awaiting confirmation, if any
func (c *Catalog) Pending() (tables.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return tables.Product{}, false
	}
	return *c.pending, true
}

// PerformDeletion deletes the pending target and clears it. Without a target it does nothing.
func (c *Catalog) PerformDeletion(ctx context.Context) {
	c.mu.Lock()
	target := c.pending
	c.pending = nil
	c.mu.Unlock()

	if target == nil {
		return
	}
	c.Delete(ctx, target.ID)
}
