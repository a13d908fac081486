package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/model"
)

// CartRepository stores one cart document per user. Save writes the whole
// document, so concurrent writers for the same user are last-write-wins.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	Save(ctx context.Context, cart *model.Cart) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	var (
		couponCode     *string
		couponDiscount decimal.NullDecimal
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, items, coupon_code, coupon_discount, subtotal, total, created_at, updated_at
		 FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.Items, &couponCode, &couponDiscount,
		&cart.Subtotal, &cart.Total, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	if couponCode != nil {
		cart.Coupon = &model.Coupon{Code: *couponCode, DiscountPercent: couponDiscount.Decimal}
	}
	return cart, nil
}

// Save upserts the cart keyed by user. A new cart gets its id here.
func (r *pgCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	items := cart.Items
	if items == nil {
		items = []model.CartItem{}
	}

	var (
		couponCode     *string
		couponDiscount decimal.NullDecimal
	)
	if cart.Coupon != nil {
		couponCode = &cart.Coupon.Code
		couponDiscount = decimal.NewNullDecimal(cart.Coupon.DiscountPercent)
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, items, coupon_code, coupon_discount, subtotal, total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		     items = EXCLUDED.items,
		     coupon_code = EXCLUDED.coupon_code,
		     coupon_discount = EXCLUDED.coupon_discount,
		     subtotal = EXCLUDED.subtotal,
		     total = EXCLUDED.total,
		     updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		cart.ID, cart.UserID, items, couponCode, couponDiscount, cart.Subtotal, cart.Total,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
