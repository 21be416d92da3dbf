package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/cache"
	"school_bus_tracker/internal/config"
	"school_bus_tracker/internal/controllers"
	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/logger"
	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/realtime"
	"school_bus_tracker/internal/repository"
	"school_bus_tracker/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration.")
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging.")
	}

	if cfg.Environment() == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.Database, logger.NewGormLogger(log))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database.")
	}

	hub := realtime.NewHub(log)
	opts := []fleet.Option{fleet.WithLogger(log)}

	var nearby controllers.NearbyFinder
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, bus location cache disabled.")
		} else {
			defer rdb.Close()
			locations := cache.NewBusLocationCache(rdb, cfg.Redis.GeoKey)
			opts = append(opts, fleet.WithLocationCache(locations))
			nearby = locations
		}
	}

	repos := repository.New(db)
	coord := fleet.NewCoordinator(repos, hub, opts...)

	jwt := middleware.NewJWT(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.LocationPerSecond, cfg.RateLimit.LocationBurst)
	stopJanitor := make(chan struct{})
	go limiter.RunJanitor(time.Minute, stopJanitor)

	schools := repository.NewSchoolRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	driverRepo := repository.NewDriverRepository(db)

	router := routes.SetupRouter(routes.Deps{
		JWT:         jwt,
		RateLimiter: limiter,
		CORS:        cfg.CORS,
		RequestLog:  log.Out,

		Auth:          controllers.NewAuthController(repository.NewUserRepository(db), jwt),
		Drivers:       controllers.NewDriverController(coord),
		Trips:         controllers.NewTripController(coord),
		Notifications: controllers.NewNotificationController(coord),
		Routes:        controllers.NewRouteController(schools, routeRepo),
		Buses:         controllers.NewBusController(schools, repository.NewBusRepository(db), routeRepo, driverRepo, nearby),
		WebSocket:     controllers.NewWebSocketController(hub, jwt, driverRepo, coord, limiter, cfg.CORS.AllowedOrigins),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed.")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	close(stopJanitor)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown.")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exited.")
}
