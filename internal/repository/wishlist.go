package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type WishlistRepository interface {
	// Add reports false when the product was already on the list.
	Add(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
}

type pgWishlistRepo struct{ pool *pgxpool.Pool }

func NewWishlistRepository(pool *pgxpool.Pool) WishlistRepository {
	return &pgWishlistRepo{pool: pool}
}

func (r *pgWishlistRepo) Add(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items (user_id, product_id, created_at) VALUES ($1, $2, NOW())
		 ON CONFLICT DO NOTHING`, userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgWishlistRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID,
	); err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.brand, p.image_url, p.price, p.discount_price,
		        p.count_in_stock, p.rating, p.num_reviews, p.created_at, p.updated_at
		 FROM wishlist_items w JOIN products p ON p.id = w.product_id
		 WHERE w.user_id = $1 ORDER BY w.created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan wishlist product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
