package products

import (
	"context"
	"fmt"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID int64, req CreateProductRequest) (*Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	taxable := true
	if req.Taxable != nil {
		taxable = *req.Taxable
	}
	product := Product{
		UserID:  userID,
		Name:    req.Name,
		Price:   req.Price,
		Taxable: taxable,
	}
	id, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Update(ctx context.Context, userID, id int64, req UpdateProductRequest) (*Product, error) {
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, userID, id, req); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Product, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}
