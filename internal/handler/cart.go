package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// respond runs op for the caller and renders the resulting cart.
func (h *CartHandler) respond(c *gin.Context, op func(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error)) {
	rc, err := op(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(rc))
}

func (h *CartHandler) GetCart(c *gin.Context) {
	h.respond(c, h.cartService.GetCart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.respond(c, func(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
		return h.cartService.AddItem(ctx, userID, req)
	})
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	lineID, ok := parseID(c, "itemId", "cart item")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.respond(c, func(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
		return h.cartService.UpdateQuantity(ctx, userID, lineID, req.Quantity)
	})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	lineID, ok := parseID(c, "itemId", "cart item")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
		return h.cartService.RemoveItem(ctx, userID, lineID)
	})
}

func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req dto.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.respond(c, func(ctx context.Context, userID uuid.UUID) (*model.ResolvedCart, error) {
		return h.cartService.ApplyCoupon(ctx, userID, req)
	})
}

func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	h.respond(c, h.cartService.RemoveCoupon)
}

func (h *CartHandler) Clear(c *gin.Context) {
	h.respond(c, h.cartService.Clear)
}
