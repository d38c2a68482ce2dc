package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	appreport "github.com/erp/reportdispatch/internal/application/report"
	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/erp/reportdispatch/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dispatcher runs dispatch passes and remembers the last summary
type Dispatcher interface {
	RunDispatch(ctx context.Context, now time.Time) (*report.Summary, error)
	LastSummary() (*report.Summary, bool)
}

// DispatchHandler exposes the scheduled-report trigger
type DispatchHandler struct {
	BaseHandler
	dispatcher Dispatcher
	runTimeout time.Duration
	now        func() time.Time
}

// NewDispatchHandler creates a DispatchHandler.
// A run outlives a disconnected caller and is bounded by runTimeout instead.
func NewDispatchHandler(dispatcher Dispatcher, runTimeout time.Duration) *DispatchHandler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &DispatchHandler{
		dispatcher: dispatcher,
		runTimeout: runTimeout,
		now:        time.Now,
	}
}

// Trigger runs one dispatch pass and answers with its summary.
// Registered for GET and POST so plain cron pingers can call it.
func (h *DispatchHandler) Trigger(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.runTimeout)
	defer cancel()

	summary, err := h.dispatcher.RunDispatch(ctx, h.now())
	if err != nil {
		if errors.Is(err, appreport.ErrDispatchInProgress) {
			h.Fail(c, http.StatusConflict, "Dispatch already in progress", err)
			return
		}
		logger.GetGinLogger(c).Error("Scheduled report dispatch failed", zap.Error(err))
		h.Fail(c, http.StatusInternalServerError, err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDispatchSummary(summary))
}

// Status answers with the summary of the most recent run in this process
func (h *DispatchHandler) Status(c *gin.Context) {
	summary, ok := h.dispatcher.LastSummary()
	if !ok {
		h.Fail(c, http.StatusNotFound, "No dispatch run recorded", nil)
		return
	}
	c.JSON(http.StatusOK, dto.NewDispatchSummary(summary))
}
