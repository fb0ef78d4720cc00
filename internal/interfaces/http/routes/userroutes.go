package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/plexpatrol/plexpatrol/internal/interfaces/http/handlers"
)

// UserRouteConfig holds dependencies for account policy routes.
type UserRouteConfig struct {
	UserHandler *handlers.UserHandler
}

func SetupUserRoutes(api *gin.RouterGroup, cfg *UserRouteConfig) {
	users := api.Group("/users")
	{
		users.GET("", cfg.UserHandler.ListUsers)
		users.GET("/:id", cfg.UserHandler.GetUser)
		users.PATCH("/:id", cfg.UserHandler.UpdateUser)
		users.DELETE("/:id", cfg.UserHandler.DeleteUser)
	}
}
