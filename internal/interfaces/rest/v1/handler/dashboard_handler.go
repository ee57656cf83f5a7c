package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/logger"
)

// DashboardHandler serves the /api/dashboard widgets. Every endpoint accepts
// an optional parking_idx.
type DashboardHandler struct {
	dashboard DashboardStore
	logger    logger.Logger
}

func NewDashboardHandler(dashboard DashboardStore, logger logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger.WithField("handler", "dashboard")}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	respond(c, h.logger, func(ctx context.Context) (any, error) {
		return h.dashboard.Summary(ctx, optionalInt(c, "parking_idx"))
	})
}

func (h *DashboardHandler) ParkingStatus(c *gin.Context) {
	respond(c, h.logger, func(ctx context.Context) (any, error) {
		return h.dashboard.ParkingStatus(ctx, optionalInt(c, "parking_idx"))
	})
}

func (h *DashboardHandler) RecentViolations(c *gin.Context) {
	respond(c, h.logger, func(ctx context.Context) (any, error) {
		return h.dashboard.RecentViolations(ctx, optionalInt(c, "parking_idx"))
	})
}

func (h *DashboardHandler) RecentLogs(c *gin.Context) {
	respond(c, h.logger, func(ctx context.Context) (any, error) {
		return h.dashboard.RecentLogs(ctx, optionalInt(c, "parking_idx"))
	})
}

func (h *DashboardHandler) SummaryByParking(c *gin.Context) {
	respond(c, h.logger, func(ctx context.Context) (any, error) {
		return h.dashboard.SummaryByParking(ctx, optionalInt(c, "parking_idx"))
	})
}

func respond(c *gin.Context, log logger.Logger, fetch func(ctx context.Context) (any, error)) {
	body, err := fetch(c.Request.Context())
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
