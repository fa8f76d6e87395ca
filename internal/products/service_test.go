package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/shared"
)

type fakeRepo struct {
	items  map[int64]Product
	nextID int64
	skus   map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[int64]Product), skus: make(map[string]bool)}
}

func (r *fakeRepo) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListActive(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.items {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.items[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Create(ctx context.Context, product Product, actorID int64) (Product, error) {
	if r.skus[product.SKU] {
		return Product{}, shared.ErrDuplicateSKU
	}
	r.nextID++
	product.ID = r.nextID
	r.items[product.ID] = product
	r.skus[product.SKU] = true
	return product, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int64, product Product) error {
	existing, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	product.SKU = existing.SKU
	product.Quantity = existing.Quantity
	product.IsActive = existing.IsActive
	r.items[id] = product
	return nil
}

func (r *fakeRepo) Deactivate(ctx context.Context, id int64) error {
	p, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = false
	r.items[id] = p
	return nil
}

func TestCreateNormalizesSKUAndDefaultsThreshold(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{SKU: " widget-01 ", Name: "Widget", Quantity: 5}, 1)
	require.NoError(t, err)
	require.Equal(t, "WIDGET-01", created.SKU)
	require.Equal(t, int64(DefaultMinThreshold), created.MinThreshold)
	require.True(t, created.IsActive)

	// Duplicate detection works against the normalized form.
	_, err = svc.Create(ctx, Product{SKU: "Widget-01", Name: "Other"}, 1)
	require.ErrorIs(t, err, shared.ErrDuplicateSKU)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{SKU: "A-1"}, 1)
	require.Error(t, err, "missing name")

	_, err = svc.Create(ctx, Product{SKU: "A-1", Name: "A", CostPrice: -1}, 1)
	require.Error(t, err, "negative cost price")

	_, err = svc.Create(ctx, Product{SKU: "A-1", Name: "A", Quantity: -1}, 1)
	require.Error(t, err, "negative quantity")
}

func TestUpdateDoesNotResurrectDeactivatedProduct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{SKU: "A-1", Name: "Widget", Quantity: 3}, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	// An attribute edit must leave the soft-delete in place.
	created.Name = "Widget v2"
	require.NoError(t, svc.Update(ctx, created.ID, created))

	p, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget v2", p.Name)
	require.False(t, p.IsActive)
}

func TestListLowStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{SKU: "A-1", Name: "A", Quantity: 2, MinThreshold: 5}, 1)
	require.NoError(t, err)
	_, err = svc.Create(ctx, Product{SKU: "B-1", Name: "B", Quantity: 50, MinThreshold: 5}, 1)
	require.NoError(t, err)

	low, err := svc.ListLowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "A-1", low[0].SKU)

	low, err = svc.ListLowStock(ctx, 100)
	require.NoError(t, err)
	require.Len(t, low, 2)

	// Deactivated products drop out of the alert list.
	require.NoError(t, svc.Deactivate(ctx, low[0].ID))
	remaining, err := svc.ListLowStock(ctx, 100)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}
