package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_bus_tracker/internal/config"
	"school_bus_tracker/internal/controllers"
	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/fleet/fleettest"
	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
	"school_bus_tracker/internal/realtime"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *middleware.JWT) {
	t.Helper()
	store := fleettest.NewStore()
	busID := "bus-1"
	store.PutBus(models.Bus{Base: models.Base{ID: busID}, BusNumber: "KBX 123A", Capacity: 10, Status: models.BusStatusIdle})
	store.PutDriver(models.Driver{Base: models.Base{ID: "driver-1"}, UserID: "user-driver", BusID: &busID})

	log, _ := test.NewNullLogger()
	coord := fleet.NewCoordinator(store.Repositories(), &fleettest.Pusher{}, fleet.WithLogger(log))
	j := middleware.NewJWT("test-secret", time.Hour)

	limiter := middleware.NewRateLimiter(1, 1)
	r := SetupRouter(Deps{
		JWT:           j,
		RateLimiter:   limiter,
		CORS:          config.CORSConfig{AllowedOrigins: []string{"*"}},
		Drivers:       controllers.NewDriverController(coord),
		Trips:         controllers.NewTripController(coord),
		Notifications: controllers.NewNotificationController(coord),
		Routes:        controllers.NewRouteController(nil, nil),
		Buses:         controllers.NewBusController(nil, nil, nil, nil, nil),
		Auth:          controllers.NewAuthController(nil, j),
		WebSocket:     controllers.NewWebSocketController(realtime.NewHub(log), j, nil, coord, limiter, nil),
	})
	return r, j
}

func request(r http.Handler, method, path, token, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestSetupRouter_Guards(t *testing.T) {
	r, j := newTestRouter(t)
	parent, err := j.GenerateToken("user-p1", models.RoleParent)
	require.NoError(t, err)
	driver, err := j.GenerateToken("user-driver", models.RoleDriver)
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"drivers need a token", http.MethodPost, "/drivers/driver-1/start-route", "", http.StatusUnauthorized},
		{"parents cannot drive", http.MethodPost, "/drivers/driver-1/start-route", parent, http.StatusForbidden},
		{"driver starts own route", http.MethodPost, "/drivers/driver-1/start-route", driver, http.StatusOK},
		{"school endpoints need school role", http.MethodPost, "/school/routes", driver, http.StatusForbidden},
		{"admin endpoints need admin role", http.MethodGet, "/admin/buses/nearby", driver, http.StatusForbidden},
		{"parents read notifications", http.MethodGet, "/notifications", parent, http.StatusOK},
		{"parents cannot create trips", http.MethodPost, "/trips", parent, http.StatusForbidden},
		{"websocket needs a token", http.MethodGet, "/ws/live", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, request(r, tc.method, tc.path, tc.token, ""))
		})
	}
}

func TestSetupRouter_LocationRateLimit(t *testing.T) {
	r, j := newTestRouter(t)
	driver, err := j.GenerateToken("user-driver", models.RoleDriver)
	require.NoError(t, err)

	body := `{"latitude": -1.29, "longitude": 36.82}`
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/drivers/driver-1/update-location", driver, body))
	assert.Equal(t, http.StatusTooManyRequests, request(r, http.MethodPost, "/drivers/driver-1/update-location", driver, body))
}

func TestSetupRouter_LocationRateLimitPerUser(t *testing.T) {
	r, j := newTestRouter(t)
	owner, err := j.GenerateToken("user-driver", models.RoleDriver)
	require.NoError(t, err)
	other, err := j.GenerateToken("user-other", models.RoleDriver)
	require.NoError(t, err)

	body := `{"latitude": -1.29, "longitude": 36.82}`
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodPost, "/drivers/driver-1/update-location", other, body))
	assert.Equal(t, http.StatusTooManyRequests, request(r, http.MethodPost, "/drivers/driver-1/update-location", other, body))
	// The owner's budget is untouched by the other driver's attempts.
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/drivers/driver-1/update-location", owner, body))
}
