package sse

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
)

// ServerSentEventHandler serves the receive-only relay mirror at /sse.
type ServerSentEventHandler struct {
	hub        *hub.Hub
	logger     logger.Logger
	sendBuffer int
	keepAlive  time.Duration
}

func NewServerSentEventHandler(hubInstance *hub.Hub, sendBuffer int, keepAlive time.Duration, logger logger.Logger) *ServerSentEventHandler {
	return &ServerSentEventHandler{
		hub:        hubInstance,
		logger:     logger.WithField("handler", "sse"),
		sendBuffer: sendBuffer,
		keepAlive:  keepAlive,
	}
}

// Connect registers the request as an SSE connection and streams relayed
// documents until the client goes away.
func (h *ServerSentEventHandler) Connect(c *gin.Context) {
	if !h.hub.IsRunning() {
		h.logger.Error("Hub is not running")
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "service temporarily unavailable"})
		return
	}

	conn := hub.NewSSEConnection(c.Request.Context(), "sse-"+uuid.NewString(), h.sendBuffer, h.logger)
	if err := h.hub.Accept(conn); err != nil {
		h.logger.Errorf("Failed to register connection: %v", err)
		_ = conn.Close()
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "failed to register connection"})
		return
	}

	h.logger.Infof("SSE connection %s connected and registered", conn.ID())
	if err := conn.Stream(c.Writer, h.keepAlive); err != nil {
		h.logger.Debugf("SSE connection %s ended: %v", conn.ID(), err)
	}
	h.logger.Infof("SSE connection %s disconnected", conn.ID())
}

// GetConnections lists live SSE connections.
func (h *ServerSentEventHandler) GetConnections(c *gin.Context) {
	infos, err := h.hub.Connections(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
		return
	}

	connections := make([]hub.ConnectionInfo, 0, len(infos))
	for _, info := range infos {
		if info.Type == "sse" {
			connections = append(connections, info)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_connections": len(connections),
		"connections":       connections,
		"hub_running":       h.hub.IsRunning(),
	})
}
