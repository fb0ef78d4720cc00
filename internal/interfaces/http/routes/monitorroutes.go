package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/plexpatrol/plexpatrol/internal/interfaces/http/handlers"
)

// MonitorRouteConfig holds dependencies for engine control routes.
type MonitorRouteConfig struct {
	MonitorHandler *handlers.MonitorHandler
}

func SetupMonitorRoutes(api *gin.RouterGroup, cfg *MonitorRouteConfig) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", cfg.MonitorHandler.ListSessions)
		sessions.POST("/:sessionId/stop", cfg.MonitorHandler.StopSession)
	}

	mon := api.Group("/monitor")
	{
		mon.POST("/pause", cfg.MonitorHandler.Pause)
		mon.POST("/resume", cfg.MonitorHandler.Resume)
	}

	api.GET("/events", cfg.MonitorHandler.Events)
}
