package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
)

// FeedHandler lets backend producers (the plate reader, batch jobs) push a
// JSON document to every relay client.
type FeedHandler struct {
	hub    Broadcaster
	logger logger.Logger
}

func NewFeedHandler(hubInstance Broadcaster, logger logger.Logger) *FeedHandler {
	return &FeedHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "feed"),
	}
}

// Publish handles POST /api/feed. The body is relayed verbatim.
func (h *FeedHandler) Publish(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || !json.Valid(body) {
		writeError(c, h.logger, badRequest("body must be a single JSON document"))
		return
	}

	message := hub.NewMessage(json.RawMessage(body))
	if err := h.hub.Broadcast(c.Request.Context(), message); err != nil {
		writeError(c, h.logger, err)
		return
	}

	connections := h.hub.ConnectionCount()
	h.logger.Debugf("Feed message %s sent to %d connections", message.ID, connections)

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "sent",
		"message_id":  message.ID,
		"connections": connections,
	})
}
