package routes

import (
	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
)

func AdminRoutes(r *gin.Engine, d Deps) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(d.JWT), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/buses/nearby", d.Buses.Nearby)
	}
}
