package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

// ReviewRepository keeps product reviews and the rating/num_reviews columns of
// products in step: every write recomputes the aggregates in the same
// transaction.
type ReviewRepository interface {
	// Upsert creates the user's review of a product or replaces its rating and
	// comment. created reports whether a new review was inserted.
	Upsert(ctx context.Context, review *model.Review) (created bool, err error)
	GetByID(ctx context.Context, productID, reviewID uuid.UUID) (*model.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
	Delete(ctx context.Context, productID, reviewID uuid.UUID) error
	Distribution(ctx context.Context, productID uuid.UUID) (map[int]int, error)
}

type pgReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgReviewRepo{pool: pool}
}

func (r *pgReviewRepo) Upsert(ctx context.Context, review *model.Review) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var created bool
	err = tx.QueryRow(ctx,
		`INSERT INTO product_reviews (id, product_id, user_id, name, rating, comment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 ON CONFLICT (product_id, user_id) DO UPDATE SET
		     rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		 RETURNING id, name, created_at, updated_at, (xmax = 0)`,
		uuid.New(), review.ProductID, review.UserID, review.Name, review.Rating, review.Comment,
	).Scan(&review.ID, &review.Name, &review.CreatedAt, &review.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert review: %w", err)
	}

	if err := refreshRating(ctx, tx, review.ProductID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit review: %w", err)
	}
	return created, nil
}

func (r *pgReviewRepo) GetByID(ctx context.Context, productID, reviewID uuid.UUID) (*model.Review, error) {
	rv := &model.Review{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, user_id, name, rating, comment, created_at, updated_at
		 FROM product_reviews WHERE id = $1 AND product_id = $2`, reviewID, productID,
	).Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, user_id, name, rating, comment, created_at, updated_at
		 FROM product_reviews WHERE product_id = $1 ORDER BY created_at`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *pgReviewRepo) Delete(ctx context.Context, productID, reviewID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `DELETE FROM product_reviews WHERE id = $1 AND product_id = $2`, reviewID, productID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if err := refreshRating(ctx, tx, productID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit review delete: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) Distribution(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rating, COUNT(*) FROM product_reviews WHERE product_id = $1 GROUP BY rating`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("review distribution: %w", err)
	}
	defer rows.Close()

	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		dist[rating] = count
	}
	return dist, rows.Err()
}

func refreshRating(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE products p SET
		     num_reviews = s.n,
		     rating = s.avg,
		     updated_at = NOW()
		 FROM (SELECT COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg
		       FROM product_reviews WHERE product_id = $1) s
		 WHERE p.id = $1`, productID,
	)
	if err != nil {
		return fmt.Errorf("refresh rating: %w", err)
	}
	return nil
}
