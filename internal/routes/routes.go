package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"school_bus_tracker/internal/config"
	"school_bus_tracker/internal/controllers"
	"school_bus_tracker/internal/middleware"
)

// Deps carries everything the router hands out to handlers.
type Deps struct {
	JWT         *middleware.JWT
	RateLimiter *middleware.RateLimiter
	CORS        config.CORSConfig
	// RequestLog receives one line per request. Nil disables request logging.
	RequestLog io.Writer

	Auth          *controllers.AuthController
	Drivers       *controllers.DriverController
	Trips         *controllers.TripController
	Notifications *controllers.NotificationController
	Routes        *controllers.RouteController
	Buses         *controllers.BusController
	WebSocket     *controllers.WebSocketController
}

// SetupRouter builds the engine. The caller owns the HTTP server.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.RequestLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.RequestLog),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/health"}),
		))
	}
	r.Use(middleware.CORS(d.CORS))

	r.GET("/health", controllers.Health)

	AuthRoutes(r, d)
	DriverRoutes(r, d)
	TripRoutes(r, d)
	NotificationRoutes(r, d)
	SchoolRoutes(r, d)
	AdminRoutes(r, d)
	WebSocketRoutes(r, d)

	return r
}
