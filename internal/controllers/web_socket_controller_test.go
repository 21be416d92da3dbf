package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
	"school_bus_tracker/internal/realtime"
)

func TestWebSocketController_Live(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	hub := realtime.NewHub(log)
	coord := fleet.NewCoordinator(f.store.Repositories(), hub, fleet.WithLogger(log))
	drivers := fakeDrivers{"driver-1": {Base: models.Base{ID: "driver-1"}, UserID: "user-driver"}}

	r := gin.New()
	r.GET("/ws/live", NewWebSocketController(hub, f.jwt, drivers, coord, nil, nil).Live)
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live?token="

	dial := func(token string) *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(base+token, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	_, resp, err := websocket.DefaultDialer.Dial(base+"garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+f.token(t, "user-ghost", models.RoleDriver), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	parent := dial(f.token(t, "user-p1", models.RoleParent))
	require.Eventually(t, func() bool { return hub.Connected("user-p1") == 1 }, 2*time.Second, 10*time.Millisecond)

	driver := dial(f.token(t, "user-driver", models.RoleDriver))
	require.NoError(t, driver.WriteJSON(map[string]float64{"latitude": -1.29, "longitude": 36.82}))

	_ = driver.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack frameReply
	require.NoError(t, driver.ReadJSON(&ack))
	assert.True(t, ack.Success, ack.Message)
	require.NotNil(t, ack.Data)
	assert.Equal(t, "bus-1", ack.Data.BusID)

	_ = parent.SetReadDeadline(time.Now().Add(2 * time.Second))
	var push fleet.LocationPush
	require.NoError(t, parent.ReadJSON(&push))
	assert.Equal(t, fleet.LocationPushType, push.Type)
	assert.Equal(t, "KBX 123A", push.BusNumber)
	assert.Contains(t, string(push.Geometry), "Point")

	require.NoError(t, driver.WriteMessage(websocket.TextMessage, []byte(`{"latitude": 1}`)))
	ack = frameReply{}
	require.NoError(t, driver.ReadJSON(&ack))
	assert.False(t, ack.Success)
	assert.NotEmpty(t, ack.Message)

	assert.Equal(t, models.GeoPoint{Latitude: -1.29, Longitude: 36.82}, f.store.Bus("bus-1").CurrentLocation)
}

func TestWebSocketController_FrameRateLimit(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	hub := realtime.NewHub(log)
	coord := fleet.NewCoordinator(f.store.Repositories(), hub, fleet.WithLogger(log))
	drivers := fakeDrivers{"driver-1": {Base: models.Base{ID: "driver-1"}, UserID: "user-driver"}}
	limiter := middleware.NewRateLimiter(0.001, 1)

	r := gin.New()
	r.GET("/ws/live", NewWebSocketController(hub, f.jwt, drivers, coord, limiter, nil).Live)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live?token=" + f.token(t, "user-driver", models.RoleDriver)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]float64{"latitude": -1.29, "longitude": 36.82}))
	var ack frameReply
	require.NoError(t, conn.ReadJSON(&ack))
	assert.True(t, ack.Success, ack.Message)

	require.NoError(t, conn.WriteJSON(map[string]float64{"latitude": -1.30, "longitude": 36.83}))
	ack = frameReply{}
	require.NoError(t, conn.ReadJSON(&ack))
	assert.False(t, ack.Success)
	assert.Equal(t, "rate limit exceeded", ack.Message)

	// The limited frame never reached the bus.
	assert.Equal(t, models.GeoPoint{Latitude: -1.29, Longitude: 36.82}, f.store.Bus("bus-1").CurrentLocation)
	// The socket shares the HTTP endpoint's bucket.
	assert.False(t, limiter.Allow("user-driver"))
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/live", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, originChecker(nil)(req("https://any.example")))
	assert.True(t, originChecker([]string{"*"})(req("https://any.example")))

	check := originChecker([]string{"https://dashboard.example"})
	assert.True(t, check(req("https://dashboard.example")))
	assert.True(t, check(req("")))
	assert.False(t, check(req("https://evil.example")))
}
