package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_bus_tracker/internal/models"
)

func TestTripController_Lifecycle(t *testing.T) {
	f := newFixture(t)
	r := f.router()
	driver := f.token(t, "user-driver", models.RoleDriver)

	w := do(r, http.MethodPost, "/trips", driver, map[string]string{"driver_id": "driver-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/trips", driver, map[string]string{"driver_id": "driver-1", "route_id": "route-x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/trips", driver, map[string]string{"driver_id": "driver-1", "route_id": "route-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var trip models.Trip
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &trip))
	assert.Equal(t, models.TripStatusCreated, trip.Status)
	base := "/trips/" + trip.ID

	// Picking before the trip starts is a precondition failure.
	w = do(r, http.MethodPost, base+"/students/student-alice", driver, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, base+"/end", driver, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, base+"/start", driver, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for i := 0; i < 2; i++ {
		w = do(r, http.MethodPost, base+"/students/student-alice", driver, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, base+"/end", driver, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, base, driver, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &trip))
	assert.Equal(t, models.TripStatusEnded, trip.Status)
	assert.Equal(t, []string{"student-alice"}, []string(trip.PickedUpStudents))
	assert.NotNil(t, trip.StartedAt)
	assert.NotNil(t, trip.EndedAt)

	other := f.token(t, "user-other", models.RoleDriver)
	w = do(r, http.MethodGet, base, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNotificationController(t *testing.T) {
	f := newFixture(t)
	r := f.router()

	w := do(r, http.MethodPost, "/drivers/driver-1/start-route", f.token(t, "user-driver", models.RoleDriver), nil)
	require.Equal(t, http.StatusOK, w.Code)

	parent := f.token(t, "user-p1", models.RoleParent)
	w = do(r, http.MethodGet, "/notifications", parent, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Notification
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Bus KBX 123A has started its route.", list[0].Message)
	assert.False(t, list[0].Read)

	stranger := f.token(t, "user-p2", models.RoleParent)
	w = do(r, http.MethodPatch, "/notifications/"+list[0].ID+"/read", stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for i := 0; i < 2; i++ {
		w = do(r, http.MethodPatch, "/notifications/"+list[0].ID+"/read", parent, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	var n models.Notification
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &n))
	assert.True(t, n.Read)

	w = do(r, http.MethodPatch, "/notifications/missing/read", parent, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
