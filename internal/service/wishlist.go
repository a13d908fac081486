package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

// Add puts a product on the user's wishlist and returns the updated list.
func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, productNotFound(productID)
	}

	added, err := s.wishlistRepo.Add(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	if !added {
		return nil, ErrAlreadyInWishlist
	}
	return s.List(ctx, userID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	return s.List(ctx, userID)
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	products, err := s.wishlistRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return products, nil
}
