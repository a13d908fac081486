package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
)

// CheckoutService turns the caller's cart into an order and empties the cart
// once the order exists.
type CheckoutService struct {
	carts  *CartService
	orders *OrderService
	log    *slog.Logger
}

func NewCheckoutService(carts *CartService, orders *OrderService, log *slog.Logger) *CheckoutService {
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{carts: carts, orders: orders, log: log}
}

// Checkout places an order for the sanitized cart. When the request carries
// no discount the cart's coupon saving is used. The cart is cleared only when
// a new order was created; a replayed client ref leaves it alone. A failure
// to clear is logged and the order is still returned.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*model.Order, bool, error) {
	rc, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	cart := rc.Cart
	if len(cart.Items) == 0 {
		return nil, false, ErrEmptyCart
	}

	items := make([]dto.OrderItemRequest, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, dto.OrderItemRequest{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			SelectedSize:  line.SelectedSize,
			SelectedColor: line.SelectedColor,
		})
	}

	discount := req.Discount
	if discount == nil && cart.Coupon != nil {
		saving := cart.Subtotal.Sub(cart.Total)
		if saving.GreaterThan(decimal.Zero) {
			discount = &saving
		}
	}

	order, created, err := s.orders.PlaceOrder(ctx, userID, dto.PlaceOrderRequest{
		OrderItems:      items,
		ShippingAddress: req.ShippingAddress,
		PaymentInfo:     req.PaymentInfo,
		ClientOrderRef:  req.ClientOrderRef,
		ShippingPrice:   req.ShippingPrice,
		TaxPrice:        req.TaxPrice,
		Discount:        discount,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		if _, err := s.carts.Clear(ctx, userID); err != nil {
			s.log.Error("clear cart after checkout", "user_id", userID, "order_id", order.ID, "error", err)
		}
	}
	return order, created, nil
}
