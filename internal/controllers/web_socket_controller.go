package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
	"school_bus_tracker/internal/realtime"
)

// TokenValidator checks the session token passed on the upgrade URL.
type TokenValidator interface {
	ValidateToken(token string) (*middleware.Claims, error)
}

// DriverLookup resolves the driver profile of a connected driver user.
type DriverLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Driver, error)
}

// LocationUpdater is the single operation a driver socket may invoke.
type LocationUpdater interface {
	UpdateLocation(ctx context.Context, actor fleet.Actor, driverID string, point models.GeoPoint) (*fleet.LocationResult, error)
}

// FrameLimiter meters driver location frames per user. It shares its
// buckets with the HTTP location endpoint.
type FrameLimiter interface {
	Allow(key string) bool
}

type WebSocketController struct {
	hub      *realtime.Hub
	tokens   TokenValidator
	drivers  DriverLookup
	location LocationUpdater
	limiter  FrameLimiter
	upgrader websocket.Upgrader
}

// NewWebSocketController builds the /ws/live handler. An empty origin list
// or a "*" entry accepts any origin. A nil limiter leaves frames unmetered.
func NewWebSocketController(hub *realtime.Hub, tokens TokenValidator, drivers DriverLookup, location LocationUpdater, limiter FrameLimiter, allowedOrigins []string) *WebSocketController {
	return &WebSocketController{
		hub:      hub,
		tokens:   tokens,
		drivers:  drivers,
		location: location,
		limiter:  limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// locationFrame is what a driver sends over the socket.
type locationFrame struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type frameReply struct {
	Type    string                `json:"type"`
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    *fleet.LocationResult `json:"data,omitempty"`
}

// Live handles GET /ws/live?token=. Every role receives pushes addressed to
// its user id; drivers may also stream location frames.
func (wc *WebSocketController) Live(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		logrus.Warn("WebSocket connection attempt: Missing token query parameter.")
		respondMessage(c, http.StatusUnauthorized, "missing authentication token")
		return
	}
	claims, err := wc.tokens.ValidateToken(token)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket authentication failed.")
		respondMessage(c, http.StatusUnauthorized, "invalid token")
		return
	}

	var driver *models.Driver
	if claims.Role == models.RoleDriver {
		driver, err = wc.drivers.FindByUserID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, fleet.ErrNotFound) {
				respondMessage(c, http.StatusForbidden, "driver profile not found")
				return
			}
			respondError(c, err)
			return
		}
	}

	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade HTTP to WebSocket.")
		return
	}

	client := wc.hub.Register(claims.UserID, claims.Role, conn)
	fields := logrus.Fields{"user_id": claims.UserID, "role": claims.Role}

	if driver == nil {
		logrus.WithFields(fields).Info("WebSocket connection established (listening).")
		client.ReadPump(func(cl *realtime.Client, _ []byte) {
			logrus.WithFields(fields).Warn("Client sent unexpected message. Ignoring.")
		})
		return
	}

	a := fleet.Actor{UserID: claims.UserID, Role: claims.Role}
	logrus.WithFields(fields).WithField("driver_id", driver.ID).Info("Driver WebSocket connection established.")
	client.ReadPump(func(cl *realtime.Client, msg []byte) {
		cl.Reply(wc.handleDriverFrame(a, driver.ID, msg))
	})
	logrus.WithFields(fields).Info("Driver WebSocket connection closed.")
}

func (wc *WebSocketController) handleDriverFrame(a fleet.Actor, driverID string, msg []byte) frameReply {
	if wc.limiter != nil && !wc.limiter.Allow(a.UserID) {
		logrus.WithField("driver_id", driverID).Warn("Driver location frame rate limited.")
		return frameReply{Type: "location_ack", Message: "rate limit exceeded"}
	}
	var frame locationFrame
	if err := json.Unmarshal(msg, &frame); err != nil || frame.Latitude == nil || frame.Longitude == nil {
		return frameReply{Type: "location_ack", Message: "frame must carry latitude and longitude"}
	}
	res, err := wc.location.UpdateLocation(context.Background(), a, driverID, models.GeoPoint{
		Latitude:  *frame.Latitude,
		Longitude: *frame.Longitude,
	})
	if err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Warn("Rejected driver location frame.")
		return frameReply{Type: "location_ack", Message: err.Error()}
	}
	return frameReply{Type: "location_ack", Success: true, Data: res}
}
