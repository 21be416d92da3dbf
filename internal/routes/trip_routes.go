package routes

import (
	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
)

func TripRoutes(r *gin.Engine, d Deps) {
	trips := r.Group("/trips")
	trips.Use(middleware.RequireAuth(d.JWT), middleware.RequireRole(models.RoleDriver, models.RoleAdmin))
	{
		trips.POST("", d.Trips.CreateTrip)
		trips.GET("/:id", d.Trips.GetTrip)
		trips.POST("/:id/start", d.Trips.StartTrip)
		trips.POST("/:id/end", d.Trips.EndTrip)
		trips.POST("/:id/students/:studentId", d.Trips.PickStudent)
	}
}

func NotificationRoutes(r *gin.Engine, d Deps) {
	n := r.Group("/notifications")
	n.Use(middleware.RequireAuth(d.JWT))
	{
		n.GET("", d.Notifications.List)
		n.PATCH("/:id/read", d.Notifications.MarkRead)
	}
}
