package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range OrderStatuses() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("pending").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatus_Cancellable(t *testing.T) {
	want := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
		OrderStatusReturned:   false,
	}
	for s, ok := range want {
		assert.Equal(t, ok, s.Cancellable(), s)
	}
}

func TestOrder_SetStatusStampsTracking(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o := &Order{Status: OrderStatusProcessing}

	o.SetStatus(OrderStatusShipped, now)
	require.NotNil(t, o.Tracking.ShippedAt)
	assert.Equal(t, now, *o.Tracking.ShippedAt)
	assert.Nil(t, o.Tracking.DeliveredAt)

	o.SetStatus(OrderStatusDelivered, now.Add(time.Hour))
	require.NotNil(t, o.Tracking.DeliveredAt)
	assert.Equal(t, now.Add(time.Hour), *o.Tracking.DeliveredAt)

	// backwards transitions are accepted as-is
	o.SetStatus(OrderStatusPending, now)
	assert.Equal(t, OrderStatusPending, o.Status)
}

func TestPaymentInfo_Completed(t *testing.T) {
	assert.True(t, PaymentInfo{Status: "completed"}.Completed())
	assert.True(t, PaymentInfo{Status: "COMPLETED"}.Completed())
	assert.False(t, PaymentInfo{Status: "Pending"}.Completed())
	assert.False(t, PaymentInfo{}.Completed())
}

func TestNewOrderMessage(t *testing.T) {
	o := &Order{
		ID: uuid.New(), UserID: uuid.New(),
		Items: []OrderItem{{ProductID: uuid.New(), Quantity: 2}, {ProductID: uuid.New(), Quantity: 1}},
	}
	msg := NewOrderMessage(OrderEventPlaced, o)
	assert.Equal(t, OrderEventPlaced, msg.Event)
	assert.Equal(t, o.ID, msg.OrderID)
	require.Len(t, msg.Items, 2)
	assert.Equal(t, 2, msg.Items[0].Quantity)
}
