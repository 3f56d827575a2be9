// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseDateParam parses a YYYY-MM-DD path parameter.
func (h *BaseHandler) ParseDateParam(c *gin.Context, key string) (*time.Time, error) {
	t, err := types.ParseDate(c.Param(key))
	if err != nil {
		return nil, apperror.NewValidation(err.Error()).WithDetail("field", key)
	}
	return &t, nil
}

// ParseIDParam parses a positive integer path parameter.
func (h *BaseHandler) ParseIDParam(c *gin.Context, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid id").
			WithDetail("field", key).
			WithDetail("value", c.Param(key))
	}
	return id, nil
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
