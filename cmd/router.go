package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/auth"
	"parkwatch/internal/infrastructure/config"
	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/metrics"
	"parkwatch/internal/infrastructure/repository"
	"parkwatch/internal/interfaces/rest/middleware"
	"parkwatch/internal/interfaces/rest/v1/handler"
	"parkwatch/internal/interfaces/sse"
	"parkwatch/internal/interfaces/websocket"
)

type routerDeps struct {
	cfg      *config.Config
	log      logger.Logger
	hub      *hub.Hub
	db       queryService
	tokens   *auth.TokenService
	uploader handler.FrameUploader
	metrics  *metrics.Metrics
}

// queryService is what the router needs from the database pool.
type queryService interface {
	repository.Store
	handler.Pinger
}

func InitRouter(deps routerDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.log))
	router.Use(middleware.Metrics(deps.metrics))
	router.Use(middleware.CORS(deps.cfg.Server.AllowedOrigins))

	rootGroup := router.Group("")

	rootGroup.GET("/metrics", gin.WrapH(deps.metrics.Handler()))

	hubInstance := deps.hub
	rootGroup.GET("/hub/status", func(c *gin.Context) {
		isRunning := hubInstance.IsRunning()
		status := "healthy"
		code := http.StatusOK
		if !isRunning {
			status = "stopped"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":      status,
			"hub_running": isRunning,
			"connections": hubInstance.ConnectionCount(),
		})
	})

	healthHandler := handler.NewHealthHandler(deps.db, deps.log)
	rootGroup.GET("/health/db", healthHandler.Database)

	admins := repository.NewAdminRepository(deps.db)
	alerts := repository.NewAlertRepository(deps.db)
	dashboard := repository.NewDashboardRepository(deps.db)
	lots := repository.NewParkingRepository(deps.db)
	logs := repository.NewParkingLogRepository(deps.db)
	violations := repository.NewViolationRepository(deps.db)
	stats := repository.NewStatsRepository(deps.db)
	vehicles := repository.NewVehicleRepository(deps.db)

	authHandler := handler.NewAuthHandler(admins, deps.tokens, deps.log)
	alertHandler := handler.NewAlertHandler(alerts, deps.log)
	dashboardHandler := handler.NewDashboardHandler(dashboard, deps.log)
	parkingHandler := handler.NewParkingHandler(lots, logs, deps.log)
	violationHandler := handler.NewViolationHandler(violations, deps.log)
	statsHandler := handler.NewStatsHandler(stats, lots, deps.log)
	vehicleHandler := handler.NewVehicleHandler(vehicles, deps.uploader, deps.cfg.Server.MaxUploadBytes, deps.log)
	feedHandler := handler.NewFeedHandler(hubInstance, deps.log)

	apiGroup := rootGroup.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authHandler.Me)

		apiGroup.GET("/alerts", alertHandler.List)
		apiGroup.PATCH("/alerts/:id", alertHandler.Patch)

		dashboardGroup := apiGroup.Group("/dashboard")
		dashboardGroup.GET("/summary", dashboardHandler.Summary)
		dashboardGroup.GET("/parking-status", dashboardHandler.ParkingStatus)
		dashboardGroup.GET("/recent-violations", dashboardHandler.RecentViolations)
		dashboardGroup.GET("/parking-logs", dashboardHandler.RecentLogs)
		dashboardGroup.GET("/summary-by-parking", dashboardHandler.SummaryByParking)

		apiGroup.GET("/parking", parkingHandler.Lots)
		apiGroup.GET("/parking-logs", parkingHandler.Logs)

		apiGroup.GET("/violations", violationHandler.List)
		apiGroup.GET("/violations/:id", violationHandler.Get)

		apiGroup.GET("/stats/:kind", statsHandler.Breakdown)
		apiGroup.GET("/export/csv", statsHandler.ExportCSV)

		apiGroup.POST("/vehicles/upload", vehicleHandler.Upload)
		apiGroup.POST("/feed", feedHandler.Publish)
	}

	sse.InitSSERouter(deps.log, hubInstance, deps.cfg.Hub.SendBuffer, deps.cfg.Hub.SSEKeepAlive, rootGroup)
	websocket.InitWebSocketRouter(
		deps.log,
		hubInstance,
		deps.cfg.Hub.WebSocketOptions(),
		middleware.OriginAllowed(deps.cfg.Server.AllowedOrigins),
		rootGroup,
	)

	return router
}
