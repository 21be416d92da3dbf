package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/fleet/fleettest"
	"school_bus_tracker/internal/middleware"
	"school_bus_tracker/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.PanicLevel)
}

func ptr(s string) *string { return &s }

// envelope is the decoded response body.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func do(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// fixture is one school with a driver, a two-seat bus on a two-stop route
// and two students. Parent p1 has both children.
type fixture struct {
	store  *fleettest.Store
	pusher *fleettest.Pusher
	coord  *fleet.Coordinator
	jwt    *middleware.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  fleettest.NewStore(),
		pusher: &fleettest.Pusher{},
		jwt:    middleware.NewJWT("test-secret", time.Hour),
	}

	gate := f.store.PutAddress(models.Address{Base: models.Base{ID: "addr-gate"}, Name: "Main Gate", Latitude: -1.2921, Longitude: 36.8219})
	mall := f.store.PutAddress(models.Address{Base: models.Base{ID: "addr-mall"}, Name: "Junction Mall", Latitude: -1.2986, Longitude: 36.7622})
	f.store.PutRoute(models.Route{
		Base:     models.Base{ID: "route-1"},
		Name:     "Morning Loop",
		SchoolID: "school-1",
		Stops: []models.Stop{
			{Base: models.Base{ID: "stop-1"}, Name: "Stop One", Order: 1, AddressID: ptr(mall.ID), Status: models.StopStatusPending},
			{Base: models.Base{ID: "stop-2"}, Name: "School", Order: 2, AddressID: ptr(gate.ID), Status: models.StopStatusPending},
		},
	})
	f.store.PutBus(models.Bus{
		Base:            models.Base{ID: "bus-1"},
		BusNumber:       "KBX 123A",
		Capacity:        2,
		Status:          models.BusStatusIdle,
		StudentsOnBoard: []models.OnboardStudent{},
		SchoolID:        "school-1",
		RouteID:         ptr("route-1"),
	})
	f.store.PutDriver(models.Driver{
		Base:   models.Base{ID: "driver-1"},
		UserID: "user-driver",
		BusID:  ptr("bus-1"),
	})
	p1 := models.Parent{Base: models.Base{ID: "parent-1"}, UserID: "user-p1"}
	f.store.PutStudent(models.Student{
		Base:            models.Base{ID: "student-alice"},
		User:            models.User{Name: "Alice"},
		Parents:         []models.Parent{p1},
		BusID:           ptr("bus-1"),
		PickupAddressID: ptr(gate.ID),
		Status:          models.StudentStatusWaiting,
	})
	f.store.PutStudent(models.Student{
		Base:            models.Base{ID: "student-bob"},
		User:            models.User{Name: "Bob"},
		Parents:         []models.Parent{p1},
		BusID:           ptr("bus-1"),
		PickupAddressID: ptr(mall.ID),
		Status:          models.StudentStatusWaiting,
	})

	f.coord = fleet.NewCoordinator(f.store.Repositories(), f.pusher,
		fleet.WithClock(func() time.Time { return time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC) }))
	return f
}

func (f *fixture) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := f.jwt.GenerateToken(userID, role)
	require.NoError(t, err)
	return tok
}

// router mounts the coordinator-backed handlers behind the real auth
// middleware.
func (f *fixture) router() *gin.Engine {
	r := gin.New()
	authed := r.Group("/", middleware.RequireAuth(f.jwt))

	dc := NewDriverController(f.coord)
	authed.POST("/drivers/:id/start-route", dc.StartRoute)
	authed.POST("/drivers/:id/end-route", dc.EndRoute)
	authed.POST("/drivers/:id/update-location", dc.UpdateLocation)
	authed.POST("/drivers/:id/students/:studentId/status", dc.MarkStudentStatus)
	authed.POST("/drivers/:id/stops/:stopId/complete", dc.MarkStopCompleted)
	authed.GET("/drivers/:id/students", dc.ListStudents)

	tc := NewTripController(f.coord)
	authed.POST("/trips", tc.CreateTrip)
	authed.GET("/trips/:id", tc.GetTrip)
	authed.POST("/trips/:id/start", tc.StartTrip)
	authed.POST("/trips/:id/end", tc.EndTrip)
	authed.POST("/trips/:id/students/:studentId", tc.PickStudent)

	nc := NewNotificationController(f.coord)
	authed.GET("/notifications", nc.List)
	authed.PATCH("/notifications/:id/read", nc.MarkRead)
	return r
}
