package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dependency is a backing service checked by /readyz.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	deps []Dependency
}

func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports every dependency and fails on the first one that is down.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{"status": "ok"}
	for _, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			body["status"] = "error"
			body[dep.Name] = "unavailable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body[dep.Name] = "connected"
	}
	c.JSON(http.StatusOK, body)
}
