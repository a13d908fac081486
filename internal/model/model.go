package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	// LastLoginAt is nil until the first successful login.
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName is the name shown on reviews and profiles.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Brand         string
	ImageURL      string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	CountInStock  int
	Rating        decimal.Decimal
	NumReviews    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice is the sale price when one is set, otherwise the base price.
// A zero or negative sale price counts as unset.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

type Review struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	UserID    uuid.UUID
	Name      string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingSummary is the rating distribution of a product, keyed by star count.
type RatingSummary struct {
	Rating       decimal.Decimal
	NumReviews   int
	Distribution map[int]int
}
