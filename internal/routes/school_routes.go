package routes

import (
	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
)

func SchoolRoutes(r *gin.Engine, d Deps) {
	school := r.Group("/school")
	school.Use(middleware.RequireAuth(d.JWT))
	{
		school.POST("/routes", middleware.RequireRole(models.RoleSchool), d.Routes.CreateRoute)
		school.GET("/routes/:id", middleware.RequireRole(models.RoleSchool, models.RoleAdmin), d.Routes.GetRoute)
		school.POST("/buses", middleware.RequireRole(models.RoleSchool), d.Buses.CreateBus)
		school.PUT("/buses/:id/driver", middleware.RequireRole(models.RoleSchool), d.Buses.AssignDriver)
	}
}
