package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/service"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) List(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	reviews, err := h.reviewService.List(c.Request.Context(), productID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, dto.NewReviewResponse(&reviews[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) Summary(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	summary, err := h.reviewService.Summary(c.Request.Context(), productID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRatingSummaryResponse(summary))
}

func (h *ReviewHandler) Upsert(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, created, err := h.reviewService.Upsert(c.Request.Context(), productID, middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(createdOrOK(created), dto.NewReviewResponse(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "reviewId", "review")
	if !ok {
		return
	}

	err := h.reviewService.Delete(c.Request.Context(), productID, reviewID, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Review removed"})
}
