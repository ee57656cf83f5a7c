package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/logger"
)

type HealthHandler struct {
	db     Pinger
	logger logger.Logger
}

func NewHealthHandler(db Pinger, logger logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger.WithField("handler", "health")}
}

// Database handles GET /health/db.
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.Warnf("Database ping failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"latencyMs": time.Since(start).Milliseconds(),
		"now":       time.Now().UTC().Format(time.RFC3339),
	})
}
