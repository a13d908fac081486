package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/model"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c).String(), "role": GetUserRole(c)})
	})
	r.GET("/admin", AuthMiddleware(testSecret), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, testSecret, jwt.MapClaims{
		"sub": userID.String(), "role": model.RoleCustomer, "exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"valid", valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", jwt.MapClaims{"sub": userID.String()}), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, jwt.MapClaims{
			"sub": userID.String(), "exp": time.Now().Add(-time.Hour).Unix(),
		}), http.StatusUnauthorized},
		{"bad subject", signToken(t, testSecret, jwt.MapClaims{"sub": "nope"}), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(), "/me", tt.token)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), userID.String())
			} else {
				assert.Contains(t, w.Body.String(), `"message"`)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	customer := signToken(t, testSecret, jwt.MapClaims{"sub": uuid.NewString(), "role": model.RoleCustomer})
	admin := signToken(t, testSecret, jwt.MapClaims{"sub": uuid.NewString(), "role": model.RoleAdmin})

	assert.Equal(t, http.StatusForbidden, do(newRouter(), "/admin", customer).Code)
	assert.Equal(t, http.StatusNoContent, do(newRouter(), "/admin", admin).Code)
}
