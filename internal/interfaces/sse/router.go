package sse

import (
	"time"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
)

func InitSSERouter(logger logger.Logger, hubInstance *hub.Hub, sendBuffer int, keepAlive time.Duration, rg *gin.RouterGroup) {
	sseHandler := NewServerSentEventHandler(hubInstance, sendBuffer, keepAlive, logger)

	rg.GET("/sse", sseHandler.Connect)

	apiGroup := rg.Group("/api/v1/sse")
	apiGroup.GET("/connections", sseHandler.GetConnections)
}
