package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/storefront-api/internal/service"
)

var errorKinds = []struct {
	kind   error
	status int
}{
	{service.ErrInvalidRequest, http.StatusBadRequest},
	{service.ErrInvalidState, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
}

func errorStatus(err error) (int, error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, nil
}

// writeError maps a service error to its status code. The message drops the
// trailing kind so clients see "product <id>: product not found" rather than
// the full chain. Unexpected errors are logged and hidden.
func writeError(c *gin.Context, err error) {
	status, kind := errorStatus(err)
	if kind == nil {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"message": "internal server error"})
		return
	}
	msg := strings.TrimSuffix(err.Error(), ": "+kind.Error())
	c.JSON(status, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		badRequest(c, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// createdOrOK answers 201 for a new resource and 200 for an existing one.
func createdOrOK(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
