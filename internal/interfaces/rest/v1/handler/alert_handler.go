package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/logger"
)

type AlertHandler struct {
	alerts AlertStore
	logger logger.Logger
}

func NewAlertHandler(alerts AlertStore, logger logger.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger.WithField("handler", "alerts")}
}

// List handles GET /api/alerts?admin_id=&status=unread|all.
func (h *AlertHandler) List(c *gin.Context) {
	adminID := strings.TrimSpace(c.Query("admin_id"))
	if adminID == "" {
		writeError(c, h.logger, badRequest("admin_id is required"))
		return
	}

	alerts, err := h.alerts.List(c.Request.Context(), adminID, c.Query("status") == "unread")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type PatchAlertRequest struct {
	Read         *bool   `json:"read"`
	AdminStatus  *string `json:"admin_status"`
	AdminContent *string `json:"admin_content"`
}

// Patch handles PATCH /api/alerts/:id.
func (h *AlertHandler) Patch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	var req PatchAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, badRequest("invalid request body"))
		return
	}

	patch := domain.AlertPatch{
		Read:         req.Read != nil && *req.Read,
		AdminStatus:  req.AdminStatus,
		AdminContent: req.AdminContent,
	}
	if patch.Empty() {
		writeError(c, h.logger, badRequest("nothing to update"))
		return
	}

	if err := h.alerts.Patch(c.Request.Context(), id, patch); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert updated"})
}
