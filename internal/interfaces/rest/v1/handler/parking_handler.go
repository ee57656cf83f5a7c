package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/repository"
)

type ParkingHandler struct {
	lots   ParkingStore
	logs   ParkingLogStore
	logger logger.Logger
}

func NewParkingHandler(lots ParkingStore, logs ParkingLogStore, logger logger.Logger) *ParkingHandler {
	return &ParkingHandler{lots: lots, logs: logs, logger: logger.WithField("handler", "parking")}
}

// Lots handles GET /api/parking?district=.
func (h *ParkingHandler) Lots(c *gin.Context) {
	lots, err := h.lots.Lots(c.Request.Context(), strings.TrimSpace(c.Query("district")))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lots)
}

// Logs handles GET /api/parking-logs.
func (h *ParkingHandler) Logs(c *gin.Context) {
	page, err := h.logs.List(c.Request.Context(), repository.ParkingLogFilter{
		Page:       positiveInt(c, "page", 1),
		Limit:      positiveInt(c, "limit", 10),
		ParkingIdx: optionalInt(c, "parking_idx"),
		Search:     strings.TrimSpace(c.Query("search")),
		From:       strings.TrimSpace(c.Query("from")),
		To:         strings.TrimSpace(c.Query("to")),
		Ascending:  ascending(c.Query("sort")),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ascending accepts entry_at:asc or entry_at:desc. Anything else falls back
// to newest first.
func ascending(sort string) bool {
	col, dir, _ := strings.Cut(strings.TrimSpace(sort), ":")
	return col == "entry_at" && strings.EqualFold(dir, "asc")
}
