package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

// editableProducts lets the admin routes write through the handler stub.
type editableProducts struct {
	*stubProducts
}

func (s editableProducts) Update(_ context.Context, p *model.Product) error {
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s editableProducts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.products, id)
	return nil
}

func newProductEnv(t *testing.T, role string) *orderEnv {
	t.Helper()
	env := newOrderEnv(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": env.userID.String(), "role": role,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	env.token = token

	h := NewProductHandler(service.NewProductService(editableProducts{env.products}, nil))
	env.router = gin.New()
	products := env.router.Group("/api/v1/products")
	products.GET("/:id", h.GetByID)
	admin := products.Group("", middleware.AuthMiddleware(testSecret), middleware.AdminOnly())
	admin.PATCH("/:id/stock", h.SetStock)
	admin.DELETE("/:id", h.Delete)
	return env
}

func TestProductHandler_SetStock(t *testing.T) {
	env := newProductEnv(t, model.RoleAdmin)
	pid := env.addProduct(40)

	w := env.do(http.MethodPatch, "/api/v1/products/"+pid.String()+"/stock", map[string]any{"countInStock": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.StockResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Stock updated", resp.Message)
	assert.Equal(t, 12, resp.Product.CountInStock)
	assert.Equal(t, 12, env.products.products[pid].CountInStock)

	w = env.do(http.MethodPatch, "/api/v1/products/"+pid.String()+"/stock", map[string]any{"countInStock": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPatch, "/api/v1/products/"+pid.String()+"/stock", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 12, env.products.products[pid].CountInStock)

	w = env.do(http.MethodPatch, "/api/v1/products/"+uuid.NewString()+"/stock", map[string]any{"countInStock": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product not found", decodeMessage(t, w))
}

func TestProductHandler_Delete(t *testing.T) {
	env := newProductEnv(t, model.RoleAdmin)
	pid := env.addProduct(40)

	w := env.do(http.MethodDelete, "/api/v1/products/"+pid.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Product deleted successfully", decodeMessage(t, w))
	assert.Empty(t, env.products.products)

	w = env.do(http.MethodDelete, "/api/v1/products/"+pid.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_StockNeedsAdmin(t *testing.T) {
	env := newProductEnv(t, model.RoleCustomer)
	pid := env.addProduct(40)

	w := env.do(http.MethodPatch, "/api/v1/products/"+pid.String()+"/stock", map[string]any{"countInStock": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, env.products.products[pid].CountInStock)
}
