package routes

import (
	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
)

func DriverRoutes(r *gin.Engine, d Deps) {
	driver := r.Group("/drivers/:id")
	driver.Use(middleware.RequireAuth(d.JWT), middleware.RequireRole(models.RoleDriver, models.RoleAdmin))
	{
		driver.POST("/start-route", d.Drivers.StartRoute)
		driver.POST("/end-route", d.Drivers.EndRoute)
		if d.RateLimiter != nil {
			driver.POST("/update-location", d.RateLimiter.ByUser(), d.Drivers.UpdateLocation)
		} else {
			driver.POST("/update-location", d.Drivers.UpdateLocation)
		}
		driver.POST("/students/:studentId/status", d.Drivers.MarkStudentStatus)
		driver.POST("/stops/:stopId/complete", d.Drivers.MarkStopCompleted)
		driver.GET("/students", d.Drivers.ListStudents)
	}
}
