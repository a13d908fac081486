package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

var errReviewerNotFound = fmt.Errorf("user not found: %w", ErrUnauthorized)

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cache       *cache.ProductCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	productCache *cache.ProductCache,
) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo, userRepo: userRepo, cache: productCache}
}

func (s *ReviewService) requireProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, productNotFound(productID)
	}
	return product, nil
}

// Upsert adds the user's review of a product, or updates it when one exists.
// created reports which of the two happened.
func (s *ReviewService) Upsert(ctx context.Context, productID, userID uuid.UUID, req dto.ReviewRequest) (*model.Review, bool, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, false, fmt.Errorf("rating must be between 1 and 5: %w", ErrInvalidRequest)
	}
	if _, err := s.requireProduct(ctx, productID); err != nil {
		return nil, false, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, false, errReviewerNotFound
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		Name:      user.DisplayName(),
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	created, err := s.reviewRepo.Upsert(ctx, review)
	if err != nil {
		return nil, false, fmt.Errorf("save review: %w", err)
	}
	s.cache.Invalidate(ctx, productID)
	return review, created, nil
}

func (s *ReviewService) List(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	if _, err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, productID, reviewID, requesterID uuid.UUID, isAdmin bool) error {
	review, err := s.reviewRepo.GetByID(ctx, productID, reviewID)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return ErrReviewNotFound
	}
	if !isAdmin && review.UserID != requesterID {
		return ErrReviewAccessDenied
	}
	if err := s.reviewRepo.Delete(ctx, productID, reviewID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}
	s.cache.Invalidate(ctx, productID)
	return nil
}

func (s *ReviewService) Summary(ctx context.Context, productID uuid.UUID) (*model.RatingSummary, error) {
	product, err := s.requireProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	dist, err := s.reviewRepo.Distribution(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	return &model.RatingSummary{Rating: product.Rating, NumReviews: product.NumReviews, Distribution: dist}, nil
}
