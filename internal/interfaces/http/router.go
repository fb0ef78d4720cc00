// Package http is the operator API of the monitor.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plexpatrol/plexpatrol/internal/interfaces/http/handlers"
	"github.com/plexpatrol/plexpatrol/internal/interfaces/http/middleware"
	"github.com/plexpatrol/plexpatrol/internal/interfaces/http/routes"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// RouterDeps are the collaborators behind the API. Metrics may be nil.
type RouterDeps struct {
	Monitor handlers.MonitorController
	Users   handlers.UserStore
	Reports handlers.ReportStore
	Events  handlers.EventStream
	Metrics http.Handler
	Logger  logger.Interface
}

// Router represents the HTTP router configuration
type Router struct {
	engine         *gin.Engine
	monitorHandler *handlers.MonitorHandler
	userHandler    *handlers.UserHandler
	reportHandler  *handlers.ReportHandler
	metrics        http.Handler
	logger         logger.Interface
}

func NewRouter(deps RouterDeps) *Router {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")
	return &Router{
		engine:         gin.New(),
		monitorHandler: handlers.NewMonitorHandler(deps.Monitor, deps.Events, log),
		userHandler:    handlers.NewUserHandler(deps.Users, log),
		reportHandler:  handlers.NewReportHandler(deps.Reports, log),
		metrics:        deps.Metrics,
		logger:         log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))

	r.engine.GET("/health", r.monitorHandler.Health)
	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics))
	}

	api := r.engine.Group("/api")
	routes.SetupMonitorRoutes(api, &routes.MonitorRouteConfig{MonitorHandler: r.monitorHandler})
	routes.SetupUserRoutes(api, &routes.UserRouteConfig{UserHandler: r.userHandler})
	routes.SetupReportRoutes(api, &routes.ReportRouteConfig{ReportHandler: r.reportHandler})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
