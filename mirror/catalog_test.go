package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"

	"productos_catalog/structs"
	"productos_catalog/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	products []tables.Product
	nextID   int64
	listErr  error
	mutErr   error
	deleted  []int64
	lists    int
}

func (f *fakeAPI) List(ctx context.Context) ([]tables.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]tables.Product(nil), f.products...), nil
}

func (f *fakeAPI) Create(ctx context.Context, req *structs.ProductRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	f.nextID++
	f.products = append(f.products, tables.Product{ID: f.nextID, Name: req.ProductName, Number: req.ProductNumber})
	return nil
}

func (f *fakeAPI) Update(ctx context.Context, id int64, req *structs.ProductRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = req.ProductName
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeAPI) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if f.mutErr != nil {
		return f.mutErr
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func newTestCatalog() (*Catalog, *fakeAPI) {
	api := &fakeAPI{}
	return NewCatalog(api, gecho.NewDefaultLogger()), api
}

func TestMutationsRefresh(t *testing.T) {
	c, api := newTestCatalog()
	ctx := context.Background()

	assert.Empty(t, c.Snapshot())

	c.Create(ctx, &structs.ProductRequest{ProductName: "Rose", ProductNumber: "1"})
	require.Len(t, c.Snapshot(), 1)

	c.Edit(ctx, 1, &structs.ProductRequest{ProductName: "Rose v2"})
	assert.Equal(t, "Rose v2", c.Snapshot()[0].Name)

	c.Delete(ctx, 1)
	assert.Empty(t, c.Snapshot())
	assert.Equal(t, 3, api.lists)
}

func TestFailedMutationStillRefreshes(t *testing.T) {
	c, api := newTestCatalog()
	ctx := context.Background()
	c.Create(ctx, &structs.ProductRequest{ProductName: "Rose"})

	api.mutErr = errors.New("server down")
	c.Create(ctx, &structs.ProductRequest{ProductName: "Tulip"})
	assert.Len(t, c.Snapshot(), 1)
	assert.Equal(t, 2, api.lists)
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	c, api := newTestCatalog()
	ctx := context.Background()
	c.Create(ctx, &structs.ProductRequest{ProductName: "Rose"})

	api.listErr = errors.New("timeout")
	c.Refresh(ctx)
	require.Len(t, c.Snapshot(), 1)
	assert.Equal(t, "Rose", c.Snapshot()[0].Name)
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestCatalog()
	ctx := context.Background()

	var seen [][]tables.Product
	unsubscribe := c.Subscribe(func(p []tables.Product) { seen = append(seen, p) })

	c.Create(ctx, &structs.ProductRequest{ProductName: "Rose"})
	require.Len(t, seen, 1)
	assert.Len(t, seen[0], 1)

	// Listeners receive copies
	seen[0][0].Name = "mutated"
	assert.Equal(t, "Rose", c.Snapshot()[0].Name)

	unsubscribe()
	c.Refresh(ctx)
	assert.Len(t, seen, 1)
}

func TestDeletionFlow(t *testing.T) {
	c, api := newTestCatalog()
	ctx := context.Background()
	c.Create(ctx, &structs.ProductRequest{ProductName: "Rose"})
	c.Create(ctx, &structs.ProductRequest{ProductName: "Tulip"})
	snapshot := c.Snapshot()

	_, ok := c.Pending()
	assert.False(t, ok)

	c.PerformDeletion(ctx)
	assert.Empty(t, api.deleted)

	c.ConfirmDeletion(snapshot[0])
	c.CancelDeletion()
	_, ok = c.Pending()
	assert.False(t, ok)
	c.PerformDeletion(ctx)
	assert.Empty(t, api.deleted)

	c.ConfirmDeletion(snapshot[0])
	c.ConfirmDeletion(snapshot[1])
	pending, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, "Tulip", pending.Name)

	c.PerformDeletion(ctx)
	assert.Equal(t, []int64{snapshot[1].ID}, api.deleted)
	_, ok = c.Pending()
	assert.False(t, ok)
	require.Len(t, c.Snapshot(), 1)
	assert.Equal(t, "Rose", c.Snapshot()[0].Name)
}
