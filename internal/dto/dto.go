package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
}

// MessageResponse is the body of every error and of bare acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

// --- Product ---

type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description" binding:"required"`
	Brand         string           `json:"brand"`
	ImageURL      string           `json:"imageUrl"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	CountInStock  int              `json:"countInStock" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Brand         *string          `json:"brand"`
	ImageURL      *string          `json:"imageUrl"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	CountInStock  *int             `json:"countInStock" binding:"omitempty,min=0"`
}

type SetStockRequest struct {
	CountInStock *int `json:"countInStock" binding:"required,min=0"`
}

type StockResponse struct {
	Message string          `json:"message"`
	Product ProductResponse `json:"product"`
}

type ListProductsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Sort   string `form:"sort,default=created_at" binding:"oneof=name price created_at rating"`
	Order  string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Brand          string           `json:"brand"`
	ImageURL       string           `json:"imageUrl"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discountPrice,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effectivePrice"`
	CountInStock   int              `json:"countInStock"`
	Rating         decimal.Decimal  `json:"rating"`
	NumReviews     int              `json:"numReviews"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID     uuid.UUID `json:"productId" binding:"required"`
	Quantity      int       `json:"quantity"`
	SelectedSize  string    `json:"selectedSize"`
	SelectedColor string    `json:"selectedColor"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code     string          `json:"code" binding:"required"`
	Discount decimal.Decimal `json:"discount"`
}

type CartResponse struct {
	ID        uuid.UUID          `json:"id"`
	Items     []CartItemResponse `json:"items"`
	Coupon    *CouponResponse    `json:"coupon"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	Total     decimal.Decimal    `json:"total"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type CartItemResponse struct {
	ID            uuid.UUID           `json:"id"`
	Product       CartProductResponse `json:"product"`
	Quantity      int                 `json:"quantity"`
	SelectedSize  string              `json:"selectedSize,omitempty"`
	SelectedColor string              `json:"selectedColor,omitempty"`
	PriceAtTime   decimal.Decimal     `json:"priceAtTime"`
	AddedAt       time.Time           `json:"addedAt"`
}

type CartProductResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	ImageURL      string           `json:"imageUrl"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}

type CouponResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// --- Order ---

type OrderItemRequest struct {
	ProductID     uuid.UUID `json:"productId" binding:"required"`
	Quantity      int       `json:"quantity"`
	SelectedSize  string    `json:"selectedSize"`
	SelectedColor string    `json:"selectedColor"`
}

type AddressRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

type PaymentInfoRequest struct {
	Method        string     `json:"method"`
	TransactionID string     `json:"transactionId"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paidAt"`
}

// PlaceOrderRequest carries client-side prices for parity with the storefront
// client. Only shipping, tax and discount are used; TotalPrice is ignored.
type PlaceOrderRequest struct {
	OrderItems      []OrderItemRequest  `json:"orderItems" binding:"dive"`
	ShippingAddress AddressRequest      `json:"shippingAddress" binding:"required"`
	PaymentInfo     *PaymentInfoRequest `json:"paymentInfo"`
	ClientOrderRef  string              `json:"clientOrderRef"`
	ShippingPrice   *decimal.Decimal    `json:"shippingPrice"`
	TaxPrice        *decimal.Decimal    `json:"taxPrice"`
	Discount        *decimal.Decimal    `json:"discount"`
	TotalPrice      *decimal.Decimal    `json:"totalPrice"`
}

type CheckoutRequest struct {
	ShippingAddress AddressRequest      `json:"shippingAddress" binding:"required"`
	PaymentInfo     *PaymentInfoRequest `json:"paymentInfo"`
	ClientOrderRef  string              `json:"clientOrderRef"`
	ShippingPrice   *decimal.Decimal    `json:"shippingPrice"`
	TaxPrice        *decimal.Decimal    `json:"taxPrice"`
	Discount        *decimal.Decimal    `json:"discount"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateTrackingRequest struct {
	Courier           *string    `json:"courier"`
	TrackingNumber    *string    `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

type ReturnItemRequest struct {
	OrderItemID uuid.UUID `json:"orderItemId" binding:"required"`
	Quantity    int       `json:"quantity" binding:"min=1"`
}

type RequestReturnRequest struct {
	Reason string              `json:"reason"`
	Items  []ReturnItemRequest `json:"items" binding:"dive"`
}

type ResolveReturnRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

type ListOrdersRequest struct {
	Status    string    `form:"status"`
	User      string    `form:"user"`
	StartDate time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate   time.Time `form:"endDate" time_format:"2006-01-02"`
	Page      int       `form:"page,default=1" binding:"min=1"`
	Limit     int       `form:"limit,default=20" binding:"min=1,max=100"`
}

type OrderItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"productId"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	PriceAtTime   decimal.Decimal `json:"priceAtTime"`
}

type AddressResponse struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

type PaymentInfoResponse struct {
	Method        string     `json:"method"`
	TransactionID string     `json:"transactionId,omitempty"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type TrackingResponse struct {
	Courier           string     `json:"courier,omitempty"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

type ReturnItemResponse struct {
	OrderItemID uuid.UUID `json:"orderItemId"`
	Quantity    int       `json:"quantity"`
}

type ReturnRequestResponse struct {
	Status      string               `json:"status"`
	Reason      string               `json:"reason"`
	Items       []ReturnItemResponse `json:"items"`
	AdminNote   string               `json:"adminNote,omitempty"`
	RequestedAt time.Time            `json:"requestedAt"`
	ProcessedAt *time.Time           `json:"processedAt,omitempty"`
}

type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"userId"`
	ClientOrderRef  string                 `json:"clientOrderRef,omitempty"`
	OrderItems      []OrderItemResponse    `json:"orderItems"`
	ShippingAddress AddressResponse        `json:"shippingAddress"`
	PaymentInfo     PaymentInfoResponse    `json:"paymentInfo"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice"`
	TaxPrice        decimal.Decimal        `json:"taxPrice"`
	Discount        decimal.Decimal        `json:"discount"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
	Status          string                 `json:"status"`
	Tracking        TrackingResponse       `json:"tracking"`
	ReturnRequest   *ReturnRequestResponse `json:"returnRequest,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type OrderStatsResponse struct {
	TotalOrders  int             `json:"totalOrders"`
	ByStatus     map[string]int  `json:"byStatus"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type CancelOrderResponse struct {
	Message string        `json:"message"`
	Order   OrderResponse `json:"order"`
}

type ReturnResponse struct {
	Message       string                `json:"message"`
	ReturnRequest ReturnRequestResponse `json:"returnRequest"`
}

// --- Review ---

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RatingSummaryResponse struct {
	Rating       decimal.Decimal `json:"rating"`
	NumReviews   int             `json:"numReviews"`
	Distribution map[int]int     `json:"distribution"`
}
