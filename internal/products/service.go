package products

import (
	"context"
	"errors"
	"strings"
)

// Service coordinates product master data operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, errors.New("products: invalid product id")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product, actorID int64) (Product, error) {
	product.SKU = NormalizeSKU(product.SKU)
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	if product.MinThreshold == 0 {
		product.MinThreshold = DefaultMinThreshold
	}
	product.IsActive = true
	return s.repo.Create(ctx, product, actorID)
}

// Update changes product attributes. The stored SKU, quantity and active
// flag are left untouched regardless of what the caller sends.
func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return errors.New("products: invalid product id")
	}
	if err := s.validate(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("products: invalid product id")
	}
	return s.repo.Deactivate(ctx, id)
}

// ListLowStock filters active products through the pure low-stock
// projection. A positive threshold overrides each product's own.
func (s *Service) ListLowStock(ctx context.Context, threshold int64) ([]Product, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return FilterLowStock(items, threshold), nil
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" && p.ID == 0 {
		return errors.New("products: sku is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("products: name is required")
	}
	if p.CostPrice < 0 || p.SellingPrice < 0 {
		return errors.New("products: prices must be >= 0")
	}
	if p.Quantity < 0 {
		return errors.New("products: quantity must be >= 0")
	}
	if p.MinThreshold < 0 {
		return errors.New("products: min threshold must be >= 0")
	}
	return nil
}
