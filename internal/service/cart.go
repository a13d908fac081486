package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

var maxDiscount = decimal.NewFromInt(100)

// CartService owns the per-user cart document. Every mutation loads the cart
// (creating it lazily), applies the change, drops lines whose product no
// longer exists, recomputes totals and writes the whole document back.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	coupons     map[string]decimal.Decimal
	log         *slog.Logger
	now         func() time.Time
}

// NewCartService builds a cart service. When coupons is non-empty only the
// listed codes are accepted and their configured percent replaces the one
// sent by the client.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	coupons map[string]int,
	log *slog.Logger,
) *CartService {
	catalog := make(map[string]decimal.Decimal, len(coupons))
	for code, pct := range coupons {
		catalog[normalizeCoupon(code)] = decimal.NewFromInt(int64(pct))
	}
	if log == nil {
		log = slog.Default()
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		coupons:     catalog,
		log:         log,
		now:         time.Now,
	}
}

func normalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetCart returns the caller's cart joined with its products. A user without
// a cart gets an empty one that is not persisted. Lines whose product is gone
// are dropped, and the cart is only written back when that happened.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return emptyResolved(userID), nil
	}

	products, dropped, err := s.sanitize(ctx, cart)
	if err != nil {
		return nil, err
	}
	if dropped {
		cart.Recalculate()
		if err := s.cartRepo.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}
	return &model.ResolvedCart{Cart: cart, Products: products}, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*model.ResolvedCart, error) {
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, productNotFound(req.ProductID)
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	price := product.EffectivePrice()
	if i := cart.FindLine(product.ID, req.SelectedSize, req.SelectedColor); i >= 0 {
		cart.Items[i].Quantity += qty
		cart.Items[i].PriceAtTime = price
	} else {
		cart.Items = append(cart.Items, model.CartItem{
			ID:            uuid.New(),
			ProductID:     product.ID,
			Quantity:      qty,
			SelectedSize:  req.SelectedSize,
			SelectedColor: req.SelectedColor,
			PriceAtTime:   price,
			AddedAt:       s.now(),
		})
	}
	return s.commit(ctx, cart)
}

// UpdateQuantity sets a line's quantity and re-snapshots its price. A line
// whose product was deleted is dropped and reported as missing.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*model.ResolvedCart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	i := cart.LineIndex(lineID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}

	product, err := s.productRepo.GetByID(ctx, cart.Items[i].ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		// the sanitizer drops the dangling line, so it no longer exists
		if _, err := s.commit(ctx, cart); err != nil {
			return nil, err
		}
		return nil, ErrCartItemNotFound
	}

	cart.Items[i].Quantity = quantity
	cart.Items[i].PriceAtTime = product.EffectivePrice()
	return s.commit(ctx, cart)
}

// RemoveItem drops a line. Removing a line that is not in the cart, or from a
// user without a cart, changes nothing.
func (s *CartService) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*model.ResolvedCart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return emptyResolved(userID), nil
	}
	if !cart.RemoveLine(lineID) {
		return s.GetCart(ctx, userID)
	}
	return s.commit(ctx, cart)
}

func (s *CartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, req dto.ApplyCouponRequest) (*model.ResolvedCart, error) {
	code := normalizeCoupon(req.Code)
	if code == "" {
		return nil, fmt.Errorf("coupon code is required: %w", ErrInvalidRequest)
	}

	pct := req.Discount
	if len(s.coupons) > 0 {
		known, ok := s.coupons[code]
		if !ok {
			return nil, ErrUnknownCoupon
		}
		pct = known
	}
	if pct.IsNegative() || pct.GreaterThan(maxDiscount) {
		return nil, ErrInvalidDiscount
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Coupon = &model.Coupon{Code: code, DiscountPercent: pct}
	return s.commit(ctx, cart)
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Coupon = nil
	return s.commit(ctx, cart)
}

// Clear empties the cart, creating it when the user has none yet.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Empty()
	return s.commit(ctx, cart)
}

func emptyResolved(userID uuid.UUID) *model.ResolvedCart {
	return &model.ResolvedCart{Cart: model.NewCart(userID), Products: map[uuid.UUID]model.CartProduct{}}
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		cart = model.NewCart(userID)
	}
	return cart, nil
}

func (s *CartService) commit(ctx context.Context, cart *model.Cart) (*model.ResolvedCart, error) {
	products, _, err := s.sanitize(ctx, cart)
	if err != nil {
		return nil, err
	}
	cart.Recalculate()
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return &model.ResolvedCart{Cart: cart, Products: products}, nil
}

// sanitize resolves every line against the catalog and drops the lines whose
// product no longer exists. It reports whether anything was dropped; totals
// are left for the caller to recompute.
func (s *CartService) sanitize(ctx context.Context, cart *model.Cart) (map[uuid.UUID]model.CartProduct, bool, error) {
	resolved := make(map[uuid.UUID]model.CartProduct, len(cart.Items))
	if len(cart.Items) == 0 {
		return resolved, false, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	seen := make(map[uuid.UUID]bool, len(cart.Items))
	for _, item := range cart.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("resolve cart products: %w", err)
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			s.log.Warn("dropping cart line for missing product",
				"user_id", cart.UserID, "line_id", item.ID, "product_id", item.ProductID)
			continue
		}
		resolved[p.ID] = model.NewCartProduct(p)
		kept = append(kept, item)
	}
	dropped := len(kept) != len(cart.Items)
	cart.Items = kept
	return resolved, dropped, nil
}
