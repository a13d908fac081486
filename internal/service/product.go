package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const defaultBrand = "Generic"

type ProductService struct {
	productRepo repository.ProductRepository
	cache       *cache.ProductCache
}

func NewProductService(productRepo repository.ProductRepository, productCache *cache.ProductCache) *ProductService {
	return &ProductService{productRepo: productRepo, cache: productCache}
}

func validatePrices(price decimal.Decimal, discount *decimal.Decimal) error {
	if price.IsNegative() || (discount != nil && discount.IsNegative()) {
		return ErrNegativeAmount
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validatePrices(req.Price, req.DiscountPrice); err != nil {
		return nil, err
	}
	brand := req.Brand
	if brand == "" {
		brand = defaultBrand
	}
	product := &model.Product{
		Name:          req.Name,
		Description:   req.Description,
		Brand:         brand,
		ImageURL:      req.ImageURL,
		Price:         req.Price,
		DiscountPrice: nullDecimal(req.DiscountPrice),
		CountInStock:  req.CountInStock,
		Rating:        decimal.Zero,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	if resp, ok := s.cache.Get(ctx, id); ok {
		return resp, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := dto.NewProductResponse(product)
	s.cache.Set(ctx, &resp)
	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	products, total, err := s.productRepo.List(ctx, req.Limit, offset, req.Search, req.Sort, req.Order)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &dto.ProductListResponse{
		Products: dto.NewProductResponses(products),
		Total:    total, Page: req.Page, Limit: req.Limit,
	}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = nullDecimal(req.DiscountPrice)
	}
	if req.CountInStock != nil {
		product.CountInStock = *req.CountInStock
	}
	if err := validatePrices(product.Price, req.DiscountPrice); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.cache.Invalidate(ctx, id)
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// SetStock overwrites countInStock, for restocks and stock takes.
func (s *ProductService) SetStock(ctx context.Context, id uuid.UUID, count int) (*dto.ProductResponse, error) {
	if count < 0 {
		return nil, ErrNegativeStock
	}
	return s.Update(ctx, id, dto.UpdateProductRequest{CountInStock: &count})
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}
