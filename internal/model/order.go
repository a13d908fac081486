package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusReturned   OrderStatus = "Returned"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

func (s OrderStatus) Valid() bool {
	for _, st := range orderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Cancellable reports whether an owner may still cancel an order in this status.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "Requested"
	ReturnStatusApproved  ReturnStatus = "Approved"
	ReturnStatusDenied    ReturnStatus = "Denied"
	ReturnStatusProcessed ReturnStatus = "Processed"
)

const (
	DefaultSize          = "M"
	DefaultColor         = "Default"
	DefaultCountry       = "India"
	DefaultPaymentMethod = "Mock Payment"
	DefaultReturnReason  = "Not specified"

	PaymentStatusPending   = "Pending"
	PaymentStatusCompleted = "Completed"
)

// Order is priced once, at creation. Only Status, Tracking and ReturnRequest
// change afterwards.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ClientOrderRef  string
	Items           []OrderItem
	ShippingAddress Address
	PaymentInfo     PaymentInfo
	Subtotal        decimal.Decimal
	ShippingPrice   decimal.Decimal
	TaxPrice        decimal.Decimal
	Discount        decimal.Decimal
	TotalPrice      decimal.Decimal
	Status          OrderStatus
	Tracking        Tracking
	ReturnRequest   *ReturnRequest
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selected_size"`
	SelectedColor string          `json:"selected_color"`
	PriceAtTime   decimal.Decimal `json:"price_at_time"`
}

type Address struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

type PaymentInfo struct {
	Method        string     `json:"method"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Completed reports whether the payment status is "completed", ignoring case.
func (p PaymentInfo) Completed() bool {
	return strings.EqualFold(p.Status, PaymentStatusCompleted)
}

type Tracking struct {
	Courier           string     `json:"courier,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

type ReturnRequest struct {
	Status      ReturnStatus `json:"status"`
	Reason      string       `json:"reason"`
	Items       []ReturnItem `json:"items"`
	AdminNote   string       `json:"admin_note,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

type ReturnItem struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int       `json:"quantity"`
}

// SetStatus sets the status without checking the transition and stamps the
// shipping timestamps.
func (o *Order) SetStatus(status OrderStatus, now time.Time) {
	o.Status = status
	switch status {
	case OrderStatusShipped:
		o.Tracking.ShippedAt = &now
	case OrderStatusDelivered:
		o.Tracking.DeliveredAt = &now
	}
}

type OrderFilter struct {
	Status OrderStatus
	UserID uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type OrderStats struct {
	TotalOrders  int
	ByStatus     map[OrderStatus]int
	TotalRevenue decimal.Decimal
}

const (
	OrderEventPlaced    = "order.placed"
	OrderEventCancelled = "order.cancelled"
)

// OrderMessage is the broker payload for order lifecycle events.
type OrderMessage struct {
	Event   string      `json:"event"`
	OrderID uuid.UUID   `json:"order_id"`
	UserID  uuid.UUID   `json:"user_id"`
	Items   []StockLine `json:"items"`
}

type StockLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func NewOrderMessage(event string, o *Order) OrderMessage {
	lines := make([]StockLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return OrderMessage{Event: event, OrderID: o.ID, UserID: o.UserID, Items: lines}
}
