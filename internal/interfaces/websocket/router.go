package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
)

// InitWebSocketRouter registers /ws and the connection listing.
func InitWebSocketRouter(
	logger logger.Logger,
	hubInstance *hub.Hub,
	opts hub.WebSocketOptions,
	checkOrigin func(r *http.Request) bool,
	rg *gin.RouterGroup,
) {
	wsHandler := NewWebSocketHandler(hubInstance, opts, checkOrigin, logger)

	rg.GET("/ws", wsHandler.Connect)

	apiGroup := rg.Group("/api/v1/ws")
	apiGroup.GET("/connections", wsHandler.GetConnections)
}
