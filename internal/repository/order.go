package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/model"
)

type OrderRepository interface {
	// Create inserts a new order. It returns ErrDuplicateClientRef when the
	// user already has an order with the same client ref.
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByClientRef(ctx context.Context, userID uuid.UUID, ref string) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, status model.OrderStatus) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	Stats(ctx context.Context) (*model.OrderStats, error)
	// Update persists the mutable parts of an order: status, tracking and
	// return request.
	Update(ctx context.Context, order *model.Order) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const clientRefIndex = "orders_user_client_ref_key"

const orderColumns = `id, user_id, client_order_ref, items, shipping_address, payment_info,
	subtotal, shipping_price, tax_price, discount, total_price, status, tracking, return_request,
	created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	var ref *string
	err := row.Scan(
		&o.ID, &o.UserID, &ref, &o.Items, &o.ShippingAddress, &o.PaymentInfo,
		&o.Subtotal, &o.ShippingPrice, &o.TaxPrice, &o.Discount, &o.TotalPrice, &o.Status,
		&o.Tracking, &o.ReturnRequest, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if ref != nil {
		o.ClientOrderRef = *ref
	}
	return nil
}

func nullableRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, client_order_ref, items, shipping_address, payment_info,
		     subtotal, shipping_price, tax_price, discount, total_price, status, tracking, return_request,
		     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.UserID, nullableRef(order.ClientOrderRef), order.Items, order.ShippingAddress,
		order.PaymentInfo, order.Subtotal, order.ShippingPrice, order.TaxPrice, order.Discount,
		order.TotalPrice, order.Status, order.Tracking, order.ReturnRequest,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, clientRefIndex) {
			return ErrDuplicateClientRef
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) getOne(ctx context.Context, query string, args ...any) (*model.Order, error) {
	order := &model.Order{}
	if err := scanOrder(r.pool.QueryRow(ctx, query, args...), order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *pgOrderRepo) GetByClientRef(ctx context.Context, userID uuid.UUID, ref string) (*model.Order, error) {
	return r.getOne(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND client_order_ref = $2`,
		userID, ref,
	)
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID, status model.OrderStatus) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)
		 ORDER BY created_at DESC`,
		userID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *pgOrderRepo) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.UserID != uuid.Nil {
		add("user_id = $%d", filter.UserID)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepo) Stats(ctx context.Context) (*model.OrderStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total_price), 0) FROM orders GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &model.OrderStats{ByStatus: make(map[model.OrderStatus]int), TotalRevenue: decimal.Zero}
	for rows.Next() {
		var (
			status  model.OrderStatus
			count   int
			revenue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
		stats.TotalRevenue = stats.TotalRevenue.Add(revenue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func (r *pgOrderRepo) Update(ctx context.Context, order *model.Order) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $2, tracking = $3, return_request = $4, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		order.ID, order.Status, order.Tracking, order.ReturnRequest,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}
