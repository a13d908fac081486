package service

import (
	"context"
	"errors"
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

// EventPublisher delivers order lifecycle events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, msg model.OrderMessage) error
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   EventPublisher
	log         *slog.Logger
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher EventPublisher,
	log *slog.Logger,
) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// PlaceOrder prices the requested lines from the catalog and stores the order.
// Client-sent line prices and totalPrice are never trusted. When the user
// already has an order under req.ClientOrderRef that order is returned as is
// and created is false. The cart is not touched.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req dto.PlaceOrderRequest) (*model.Order, bool, error) {
	if len(req.OrderItems) == 0 {
		return nil, false, ErrEmptyOrder
	}
	for _, item := range req.OrderItems {
		if item.Quantity < 0 {
			return nil, false, ErrInvalidQuantity
		}
	}
	// amounts are stored at two decimals, so the total is computed from the
	// stored values
	shipping, tax, discount := orZero(req.ShippingPrice), orZero(req.TaxPrice), orZero(req.Discount)
	if shipping.IsNegative() || tax.IsNegative() || discount.IsNegative() {
		return nil, false, ErrNegativeAmount
	}

	ref := strings.TrimSpace(req.ClientOrderRef)
	if ref != "" {
		existing, err := s.orderRepo.GetByClientRef(ctx, userID, ref)
		if err != nil {
			return nil, false, fmt.Errorf("get order by client ref: %w", err)
		}
		if existing != nil {
			s.log.Info("replaying order for client ref", "user_id", userID, "order_id", existing.ID, "client_order_ref", ref)
			return existing, false, nil
		}
	}

	ids := make([]uuid.UUID, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("get products: %w", err)
	}

	items := make([]model.OrderItem, 0, len(req.OrderItems))
	subtotal := decimal.Zero
	for _, line := range req.OrderItems {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, false, productNotFound(line.ProductID)
		}
		item := model.OrderItem{
			ID:            uuid.New(),
			ProductID:     product.ID,
			Quantity:      line.Quantity,
			SelectedSize:  line.SelectedSize,
			SelectedColor: line.SelectedColor,
			PriceAtTime:   product.EffectivePrice(),
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		if item.SelectedSize == "" {
			item.SelectedSize = model.DefaultSize
		}
		if item.SelectedColor == "" {
			item.SelectedColor = model.DefaultColor
		}
		subtotal = subtotal.Add(item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, item)
	}

	subtotal = subtotal.RoundBank(2)
	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	payment := s.paymentInfo(req.PaymentInfo)
	status := model.OrderStatusPending
	if payment.Completed() {
		status = model.OrderStatusProcessing
	}

	order := &model.Order{
		UserID:          userID,
		ClientOrderRef:  ref,
		Items:           items,
		ShippingAddress: toAddress(req.ShippingAddress),
		PaymentInfo:     payment,
		Subtotal:        subtotal,
		ShippingPrice:   shipping,
		TaxPrice:        tax,
		Discount:        discount,
		TotalPrice:      total,
		Status:          status,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateClientRef) {
			return s.replayConflict(ctx, userID, ref)
		}
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, model.OrderEventPlaced, order)
	return order, true, nil
}

// replayConflict resolves a lost insert race on the client ref index by
// returning the order that won it.
func (s *OrderService) replayConflict(ctx context.Context, userID uuid.UUID, ref string) (*model.Order, bool, error) {
	existing, err := s.orderRepo.GetByClientRef(ctx, userID, ref)
	if err != nil {
		return nil, false, fmt.Errorf("get order by client ref: %w", err)
	}
	if existing == nil {
		return nil, false, fmt.Errorf("order for client ref %q vanished after conflict", ref)
	}
	s.log.Info("client ref conflict, returning existing order", "user_id", userID, "order_id", existing.ID, "client_order_ref", ref)
	return existing, false, nil
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return d.RoundBank(2)
}

func toAddress(a dto.AddressRequest) model.Address {
	country := a.Country
	if country == "" {
		country = model.DefaultCountry
	}
	return model.Address{
		FullName:   a.FullName,
		Address:    a.Address,
		City:       a.City,
		State:      a.State,
		Country:    country,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
	}
}

func (s *OrderService) paymentInfo(req *dto.PaymentInfoRequest) model.PaymentInfo {
	if req == nil {
		return model.PaymentInfo{Method: model.DefaultPaymentMethod, Status: model.PaymentStatusPending}
	}
	p := model.PaymentInfo{
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Status:        req.Status,
		PaidAt:        req.PaidAt,
	}
	if p.Method == "" {
		p.Method = model.DefaultPaymentMethod
	}
	if p.Status == "" {
		p.Status = model.PaymentStatusPending
	}
	if p.Completed() && p.PaidAt == nil {
		now := s.now()
		p.PaidAt = &now
	}
	return p
}

func (s *OrderService) publish(ctx context.Context, event string, order *model.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, model.NewOrderMessage(event, order)); err != nil {
		s.log.Error("publish order event", "event", event, "order_id", order.ID, "error", err)
	}
}

func parseStatus(raw string) (model.OrderStatus, error) {
	if raw == "" {
		return "", nil
	}
	status := model.OrderStatus(raw)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, status string) ([]model.Order, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByUserID(ctx, userID, st)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) getOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Get returns an order to its owner or to an admin.
func (s *OrderService) Get(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, req dto.ListOrdersRequest) ([]model.Order, int, error) {
	st, err := parseStatus(req.Status)
	if err != nil {
		return nil, 0, err
	}
	filter := model.OrderFilter{Status: st, Limit: req.Limit, Offset: (req.Page - 1) * req.Limit}
	if req.User != "" {
		uid, err := uuid.Parse(req.User)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid user id: %w", ErrInvalidRequest)
		}
		filter.UserID = uid
	}
	if !req.StartDate.IsZero() {
		from := req.StartDate
		filter.From = &from
	}
	if !req.EndDate.IsZero() {
		// the end date is inclusive
		to := req.EndDate.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) Stats(ctx context.Context) (*model.OrderStats, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

// UpdateStatus sets any valid status without checking the transition.
// Moving an order into Cancelled emits order.cancelled so stock is restored.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*model.Order, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	if st == "" {
		return nil, ErrInvalidStatus
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	wasCancelled := order.Status == model.OrderStatusCancelled
	order.SetStatus(st, s.now())
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if st == model.OrderStatusCancelled && !wasCancelled {
		s.publish(ctx, model.OrderEventCancelled, order)
	}
	return order, nil
}

// UpdateTracking overwrites only the fields present in req.
func (s *OrderService) UpdateTracking(ctx context.Context, orderID uuid.UUID, req dto.UpdateTrackingRequest) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if req.Courier != nil {
		order.Tracking.Courier = *req.Courier
	}
	if req.TrackingNumber != nil {
		order.Tracking.TrackingNumber = *req.TrackingNumber
	}
	if req.EstimatedDelivery != nil {
		est := *req.EstimatedDelivery
		order.Tracking.EstimatedDelivery = &est
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

// Cancel lets the owner cancel an order that has not shipped yet.
func (s *OrderService) Cancel(ctx context.Context, orderID, requesterID uuid.UUID) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, ErrOrderAccessDenied
	}
	if !order.Status.Cancellable() {
		return nil, ErrOrderNotCancellable
	}

	order.SetStatus(model.OrderStatusCancelled, s.now())
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.publish(ctx, model.OrderEventCancelled, order)
	return order, nil
}

// RequestReturn records the owner's return request, replacing any earlier one.
func (s *OrderService) RequestReturn(ctx context.Context, orderID, requesterID uuid.UUID, req dto.RequestReturnRequest) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, ErrOrderAccessDenied
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = model.DefaultReturnReason
	}
	items := make([]model.ReturnItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.ReturnItem{OrderItemID: it.OrderItemID, Quantity: it.Quantity})
	}
	order.ReturnRequest = &model.ReturnRequest{
		Status:      model.ReturnStatusRequested,
		Reason:      reason,
		Items:       items,
		RequestedAt: s.now(),
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

const (
	returnActionApprove = "approve"
	returnActionDeny    = "deny"
)

// ResolveReturn approves or denies a pending return request. Approval marks
// the order Returned.
func (s *OrderService) ResolveReturn(ctx context.Context, orderID uuid.UUID, req dto.ResolveReturnRequest) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ReturnRequest == nil {
		return nil, ErrNoReturnRequest
	}

	now := s.now()
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case returnActionApprove:
		order.ReturnRequest.Status = model.ReturnStatusApproved
		order.SetStatus(model.OrderStatusReturned, now)
	case returnActionDeny:
		order.ReturnRequest.Status = model.ReturnStatusDenied
	default:
		return nil, ErrInvalidReturnAction
	}
	order.ReturnRequest.AdminNote = req.Note
	order.ReturnRequest.ProcessedAt = &now

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}
