package products

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]*Product)}
}

func (r *memoryRepo) Get(ctx context.Context, userID, id int64) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return nil, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Product
	for _, p := range r.products {
		if p.UserID == req.UserID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(ctx context.Context, p Product) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = &p
	return p.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, userID, id int64, req UpdateProductRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Taxable != nil {
		p.Taxable = *req.Taxable
	}
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func TestCreateProductDefaultsTaxable(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:  "Consulting",
		Price: decimal.RequireFromString("1500"),
	})
	require.NoError(t, err)
	require.True(t, p.Taxable)
}

func TestCreateProductExplicitNonTaxable(t *testing.T) {
	svc := NewService(newMemoryRepo())

	taxable := false
	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:    "Travel reimbursement",
		Price:   decimal.RequireFromString("2500"),
		Taxable: &taxable,
	})
	require.NoError(t, err)
	require.False(t, p.Taxable)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:  "Bad price",
		Price: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateProductRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:  "Consulting",
		Price: decimal.RequireFromString("1500"),
	})
	require.NoError(t, err)

	bad := decimal.RequireFromString("-5")
	_, err = svc.Update(context.Background(), 1, p.ID, UpdateProductRequest{Price: &bad})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestProductScopedByOwner(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), 1, CreateProductRequest{
		Name:  "Consulting",
		Price: decimal.RequireFromString("1500"),
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, p.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	err = svc.Delete(context.Background(), 2, p.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
