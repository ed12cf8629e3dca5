package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumi-launcher/backend/internal/api/handlers"
	"github.com/lumi-launcher/backend/internal/api/middleware"
	"github.com/lumi-launcher/backend/internal/config"
	"github.com/lumi-launcher/backend/internal/server"
	"github.com/lumi-launcher/backend/internal/websocket"
)

// Dependencies are the components the router exposes to the desktop shell.
type Dependencies struct {
	Runtime   handlers.RuntimeChecker
	Scanner   server.InstallationScanner
	Detector  server.RunningStateDetector
	Prober    handlers.BatchProber
	Processes handlers.ProcessController
	Store     handlers.InstallationStore
	Refresher handlers.Refresher
	Hub       *websocket.Hub
	Sessions  middleware.TokenValidator
}

// SetupRouter configures and returns the HTTP router
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.LoopbackOnly())
	router.Use(middleware.OriginGuard(cfg.Security.CORS.AllowedOrigins))
	router.Use(middleware.CORS(cfg.Security.CORS))

	lifecycleHandler := handlers.NewLifecycleHandler(
		deps.Runtime,
		cfg.Runtime.RequiredVersion,
		deps.Scanner,
		deps.Detector,
		deps.Prober,
		deps.Processes,
	)
	installationHandler := handlers.NewInstallationHandler(deps.Store, deps.Prober, deps.Refresher)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(deps.Sessions))
	v1.Use(middleware.RequireJSON())
	{
		v1.GET("/runtime", lifecycleHandler.CheckRuntime)
		v1.POST("/scan", lifecycleHandler.Scan)
		v1.POST("/status", lifecycleHandler.Status)
		v1.POST("/probe", lifecycleHandler.ProbeAll)
		v1.POST("/launch", lifecycleHandler.Launch)
		v1.POST("/terminate", lifecycleHandler.Terminate)

		installations := v1.Group("/installations")
		{
			installations.GET("", installationHandler.List)
			installations.POST("", installationHandler.Add)
			installations.GET("/summary", installationHandler.Summary)
			installations.POST("/refresh", installationHandler.Refresh)
			installations.GET("/:id", installationHandler.Get)
			installations.DELETE("/:id", installationHandler.Remove)
			installations.PUT("/:id/core", installationHandler.SetCore)
		}

		if deps.Hub != nil {
			wsHandler := handlers.NewWebSocketHandler(deps.Hub, cfg.Security.CORS.AllowedOrigins)
			v1.GET("/ws", wsHandler.Handle)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
