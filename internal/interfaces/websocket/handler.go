package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
)

// WebSocketHandler upgrades /ws requests and hands the sockets to the hub.
type WebSocketHandler struct {
	hub      *hub.Hub
	logger   logger.Logger
	opts     hub.WebSocketOptions
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(
	hubInstance *hub.Hub,
	opts hub.WebSocketOptions,
	checkOrigin func(r *http.Request) bool,
	logger logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "websocket"),
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Connect handles WebSocket connection upgrade requests. The connection is
// registered before its pumps start so no inbound frame can reach the hub
// ahead of the registration.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	if !h.hub.IsRunning() {
		h.logger.Error("Hub is not running")
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "service temporarily unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warnf("Failed to upgrade connection: %v", err)
		return
	}

	wsConn := hub.NewWebSocketConnection("ws-"+uuid.NewString(), conn, h.hub, h.opts, h.logger)
	if err := h.hub.Accept(wsConn); err != nil {
		h.logger.Errorf("Failed to register WebSocket connection: %v", err)
		_ = wsConn.Close()
		return
	}
	wsConn.Start()

	h.logger.Infof("WebSocket connection %s connected and registered", wsConn.ID())

	<-wsConn.Context().Done()
	h.logger.Infof("WebSocket connection %s disconnected", wsConn.ID())
}

// GetConnections lists live WebSocket connections.
func (h *WebSocketHandler) GetConnections(c *gin.Context) {
	infos, err := h.hub.Connections(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
		return
	}

	connections := make([]hub.ConnectionInfo, 0, len(infos))
	for _, info := range infos {
		if info.Type == "websocket" {
			connections = append(connections, info)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_connections": len(connections),
		"connections":       connections,
		"hub_running":       h.hub.IsRunning(),
	})
}
