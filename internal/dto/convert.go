package dto

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/model"
)

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Brand:          p.Brand,
		ImageURL:       p.ImageURL,
		Price:          p.Price,
		DiscountPrice:  nullDecimalPtr(p.DiscountPrice),
		EffectivePrice: p.EffectivePrice(),
		CountInStock:   p.CountInStock,
		Rating:         p.Rating,
		NumReviews:     p.NumReviews,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func NewProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}

// NewCartResponse renders a resolved cart. Lines are shown with the product
// fields joined by the resolver.
func NewCartResponse(rc *model.ResolvedCart) CartResponse {
	cart := rc.Cart
	resp := CartResponse{
		ID:        cart.ID,
		Items:     make([]CartItemResponse, 0, len(cart.Items)),
		Subtotal:  cart.Subtotal,
		Total:     cart.Total,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		p := rc.Products[item.ProductID]
		resp.Items = append(resp.Items, CartItemResponse{
			ID: item.ID,
			Product: CartProductResponse{
				ID:            p.ID,
				Name:          p.Name,
				ImageURL:      p.ImageURL,
				Price:         p.Price,
				DiscountPrice: nullDecimalPtr(p.DiscountPrice),
			},
			Quantity:      item.Quantity,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			PriceAtTime:   item.PriceAtTime,
			AddedAt:       item.AddedAt,
		})
	}
	if cart.Coupon != nil {
		resp.Coupon = &CouponResponse{Code: cart.Coupon.Code, Discount: cart.Coupon.DiscountPercent}
	}
	return resp
}

func NewReturnRequestResponse(rr *model.ReturnRequest) ReturnRequestResponse {
	items := make([]ReturnItemResponse, 0, len(rr.Items))
	for _, it := range rr.Items {
		items = append(items, ReturnItemResponse{OrderItemID: it.OrderItemID, Quantity: it.Quantity})
	}
	return ReturnRequestResponse{
		Status:      string(rr.Status),
		Reason:      rr.Reason,
		Items:       items,
		AdminNote:   rr.AdminNote,
		RequestedAt: rr.RequestedAt,
		ProcessedAt: rr.ProcessedAt,
	}
}

func NewOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
			PriceAtTime:   it.PriceAtTime,
		})
	}

	resp := OrderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		ClientOrderRef: o.ClientOrderRef,
		OrderItems:     items,
		ShippingAddress: AddressResponse{
			FullName:   o.ShippingAddress.FullName,
			Address:    o.ShippingAddress.Address,
			City:       o.ShippingAddress.City,
			State:      o.ShippingAddress.State,
			Country:    o.ShippingAddress.Country,
			PostalCode: o.ShippingAddress.PostalCode,
			Phone:      o.ShippingAddress.Phone,
		},
		PaymentInfo: PaymentInfoResponse{
			Method:        o.PaymentInfo.Method,
			TransactionID: o.PaymentInfo.TransactionID,
			Status:        o.PaymentInfo.Status,
			PaidAt:        o.PaymentInfo.PaidAt,
		},
		Subtotal:      o.Subtotal,
		ShippingPrice: o.ShippingPrice,
		TaxPrice:      o.TaxPrice,
		Discount:      o.Discount,
		TotalPrice:    o.TotalPrice,
		Status:        string(o.Status),
		Tracking: TrackingResponse{
			Courier:           o.Tracking.Courier,
			TrackingNumber:    o.Tracking.TrackingNumber,
			EstimatedDelivery: o.Tracking.EstimatedDelivery,
			ShippedAt:         o.Tracking.ShippedAt,
			DeliveredAt:       o.Tracking.DeliveredAt,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.ReturnRequest != nil {
		rr := NewReturnRequestResponse(o.ReturnRequest)
		resp.ReturnRequest = &rr
	}
	return resp
}

func NewOrderResponses(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

func NewOrderStatsResponse(s *model.OrderStats) OrderStatsResponse {
	byStatus := make(map[string]int, len(s.ByStatus))
	for _, st := range model.OrderStatuses() {
		byStatus[string(st)] = s.ByStatus[st]
	}
	return OrderStatsResponse{TotalOrders: s.TotalOrders, ByStatus: byStatus, TotalRevenue: s.TotalRevenue}
}

func NewReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Name:      r.Name,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func NewRatingSummaryResponse(s *model.RatingSummary) RatingSummaryResponse {
	return RatingSummaryResponse{Rating: s.Rating, NumReviews: s.NumReviews, Distribution: s.Distribution}
}
