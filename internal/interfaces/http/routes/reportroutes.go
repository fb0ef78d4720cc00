package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/plexpatrol/plexpatrol/internal/interfaces/http/handlers"
)

type ReportRouteConfig struct {
	ReportHandler *handlers.ReportHandler
}

func SetupReportRoutes(api *gin.RouterGroup, cfg *ReportRouteConfig) {
	reports := api.Group("/reports")
	{
		reports.GET("/users", cfg.ReportHandler.Users)
		reports.GET("/platforms", cfg.ReportHandler.Platforms)
		reports.GET("/ips", cfg.ReportHandler.IPs)
		reports.GET("/sessions", cfg.ReportHandler.Sessions)
	}
}
