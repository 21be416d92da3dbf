package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/middleware"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": status < http.StatusBadRequest, "message": message})
}

// statusFor maps coordinator error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, fleet.ErrPreconditionFailed), errors.Is(err, fleet.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope. Server errors are logged; their
// text is still returned so operators can see which recipients were missed.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed.")
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

// respondPartial is used when the state change committed but some
// notifications could not be stored.
func respondPartial(c *gin.Context, err error, data interface{}) {
	logrus.WithError(err).WithField("path", c.FullPath()).Error("Notification fan-out incomplete.")
	c.JSON(statusFor(err), gin.H{"success": false, "message": err.Error(), "data": data})
}

// actor pulls the authenticated caller or aborts with 401.
func actor(c *gin.Context) (fleet.Actor, bool) {
	a, err := middleware.ActorFrom(c)
	if err != nil {
		respondMessage(c, http.StatusUnauthorized, "Authentication required")
		return fleet.Actor{}, false
	}
	return a, true
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
}
