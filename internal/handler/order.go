package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/service"
)

type OrderHandler struct {
	orderService    *service.OrderService
	checkoutService *service.CheckoutService
}

func NewOrderHandler(orderService *service.OrderService, checkoutService *service.CheckoutService) *OrderHandler {
	return &OrderHandler{orderService: orderService, checkoutService: checkoutService}
}

// PlaceOrder answers 201 for a new order and 200 when the client ref matched
// an existing one.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, created, err := h.orderService.PlaceOrder(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(createdOrOK(created), dto.NewOrderResponse(order))
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, created, err := h.checkoutService.Checkout(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(createdOrOK(created), dto.NewOrderResponse(order))
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orderService.ListMine(c.Request.Context(), middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponses(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{
		Orders: dto.NewOrderResponses(orders),
		Total:  total, Page: req.Page, Limit: req.Limit,
	})
}

func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orderService.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderStatsResponse(stats))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *OrderHandler) UpdateTracking(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req dto.UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.UpdateTracking(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{
		Message: "Order cancelled successfully",
		Order:   dto.NewOrderResponse(order),
	})
}

func (h *OrderHandler) RequestReturn(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req dto.RequestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.RequestReturn(c.Request.Context(), id, middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReturnResponse{
		Message:       "Return request submitted",
		ReturnRequest: dto.NewReturnRequestResponse(order.ReturnRequest),
	})
}

func (h *OrderHandler) ResolveReturn(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req dto.ResolveReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.ResolveReturn(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReturnResponse{
		Message:       "Return request " + string(order.ReturnRequest.Status),
		ReturnRequest: dto.NewReturnRequestResponse(order.ReturnRequest),
	})
}
