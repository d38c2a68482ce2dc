// Package handler implements the gin handlers of the dispatch HTTP surface.
package handler

import (
	"github.com/erp/reportdispatch/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends data wrapped in the success envelope
func (h *BaseHandler) Success(c *gin.Context, status int, data any) {
	c.JSON(status, dto.NewSuccessResponse(data))
}

// Fail sends the error shape and records err on the gin context for the request logger
func (h *BaseHandler) Fail(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, dto.NewErrorResponse(message))
}
