package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Cart is the per-user cart document. Subtotal and Total are a projection of
// Items and Coupon and are rewritten by Recalculate before every save.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	Coupon    *Coupon
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a cart line. Items are stored inside the cart document, hence
// the json tags.
type CartItem struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selected_size,omitempty"`
	SelectedColor string          `json:"selected_color,omitempty"`
	PriceAtTime   decimal.Decimal `json:"price_at_time"`
	AddedAt       time.Time       `json:"added_at"`
}

type Coupon struct {
	Code            string
	DiscountPercent decimal.Decimal
}

// NewCart returns an unsaved, empty cart for the user.
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// FindLine returns the index of the line matching product, size and color,
// or -1.
func (c *Cart) FindLine(productID uuid.UUID, size, color string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.SelectedSize == size && item.SelectedColor == color {
			return i
		}
	}
	return -1
}

// LineIndex returns the index of the line with the given id, or -1.
func (c *Cart) LineIndex(lineID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == lineID {
			return i
		}
	}
	return -1
}

// RemoveLine drops the line with the given id and reports whether it existed.
func (c *Cart) RemoveLine(lineID uuid.UUID) bool {
	i := c.LineIndex(lineID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Empty removes every line and the coupon and zeroes the totals.
func (c *Cart) Empty() {
	c.Items = []CartItem{}
	c.Coupon = nil
	c.Subtotal = decimal.Zero
	c.Total = decimal.Zero
}

// Recalculate rewrites Subtotal and Total from Items and Coupon.
func (c *Cart) Recalculate() {
	c.Subtotal, c.Total = CartTotals(c.Items, c.Coupon)
}

// CartTotals computes subtotal and total for a set of lines and an optional
// coupon:
//
//	subtotal = sum(priceAtTime * quantity)
//	total    = max(0, subtotal - subtotal*discount/100)
//
// Both results are rounded half-even to two places; line amounts are not
// rounded individually. The discount applies to the rounded subtotal.
func CartTotals(items []CartItem, coupon *Coupon) (subtotal, total decimal.Decimal) {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	subtotal = sum.RoundBank(2)
	net := subtotal
	if coupon != nil {
		net = subtotal.Sub(subtotal.Mul(coupon.DiscountPercent).Div(hundred))
	}
	if net.IsNegative() {
		net = decimal.Zero
	}
	return subtotal, net.RoundBank(2)
}

// CartProduct is the subset of product fields shown next to a cart line.
type CartProduct struct {
	ID            uuid.UUID
	Name          string
	ImageURL      string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
}

// ResolvedCart is a cart whose lines have been joined with their products.
// Every line in Cart.Items has an entry in Products.
type ResolvedCart struct {
	Cart     *Cart
	Products map[uuid.UUID]CartProduct
}

func NewCartProduct(p *Product) CartProduct {
	return CartProduct{
		ID:            p.ID,
		Name:          p.Name,
		ImageURL:      p.ImageURL,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
	}
}
