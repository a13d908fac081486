package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them, so
// callers classify with errors.Is against the kind. Anything that matches no
// kind is unexpected.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidState   = errors.New("invalid state")
	ErrUnauthorized   = errors.New("unauthorized")
)

var (
	ErrProductNotFound     = fmt.Errorf("product not found: %w", ErrNotFound)
	ErrCartNotFound        = fmt.Errorf("cart not found: %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrCartItemNotFound    = fmt.Errorf("cart item not found: %w", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("order not found: %w", ErrNotFound)
	ErrReviewNotFound      = fmt.Errorf("review not found: %w", ErrNotFound)
	ErrInvalidQuantity     = fmt.Errorf("quantity must be at least 1: %w", ErrInvalidRequest)
	ErrInvalidDiscount     = fmt.Errorf("discount must be between 0 and 100: %w", ErrInvalidRequest)
	ErrUnknownCoupon       = fmt.Errorf("unknown coupon code: %w", ErrInvalidRequest)
	ErrEmptyOrder          = fmt.Errorf("no order items: %w", ErrInvalidRequest)
	ErrEmptyCart           = fmt.Errorf("cart is empty: %w", ErrInvalidRequest)
	ErrNegativeAmount      = fmt.Errorf("amounts must not be negative: %w", ErrInvalidRequest)
	ErrNegativeStock       = fmt.Errorf("stock must not be negative: %w", ErrInvalidRequest)
	ErrInvalidStatus       = fmt.Errorf("invalid order status: %w", ErrInvalidRequest)
	ErrNoReturnRequest     = fmt.Errorf("no return request for this order: %w", ErrInvalidRequest)
	ErrInvalidReturnAction = fmt.Errorf("action must be approve or deny: %w", ErrInvalidRequest)
	ErrAlreadyInWishlist   = fmt.Errorf("product already in wishlist: %w", ErrInvalidRequest)
	ErrUserAlreadyExists   = fmt.Errorf("user already exists: %w", ErrInvalidRequest)
	ErrOrderAccessDenied   = fmt.Errorf("not authorized to access this order: %w", ErrForbidden)
	ErrReviewAccessDenied  = fmt.Errorf("not authorized to delete this review: %w", ErrForbidden)
	ErrOrderNotCancellable = fmt.Errorf("order cannot be cancelled in its current status: %w", ErrInvalidState)
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
)

// productNotFound names the missing product so the client can drop it.
func productNotFound(id fmt.Stringer) error {
	return fmt.Errorf("product %s: %w", id, ErrProductNotFound)
}
