package fleet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/models"
)

func TestDriverWithoutBus(t *testing.T) {
	ops := []struct {
		name string
		run  func(w *world, driverID string) error
	}{
		{"start route", func(w *world, id string) error {
			_, err := w.coord.StartRoute(context.Background(), w.driverActor, id)
			return err
		}},
		{"end route", func(w *world, id string) error {
			_, err := w.coord.EndRoute(context.Background(), w.driverActor, id)
			return err
		}},
		{"update location", func(w *world, id string) error {
			_, err := w.coord.UpdateLocation(context.Background(), w.driverActor, id, models.GeoPoint{Latitude: -1.29, Longitude: 36.82})
			return err
		}},
		{"mark student status", func(w *world, id string) error {
			_, err := w.coord.MarkStudentStatus(context.Background(), w.driverActor, id, w.alice.ID, "picked_up")
			return err
		}},
		{"mark stop completed", func(w *world, id string) error {
			_, err := w.coord.MarkStopCompleted(context.Background(), w.driverActor, id, "stop-1")
			return err
		}},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			w := newWorld(t)
			d := w.driver
			d.BusID = nil
			w.store.PutDriver(d)

			err := op.run(w, d.ID)
			assert.ErrorIs(t, err, fleet.ErrPreconditionFailed)
			assert.Empty(t, w.store.Notifications())
			assert.Empty(t, w.pusher.Pushes())
			_, cached := w.cache.Point(w.bus.ID)
			assert.False(t, cached)
			assert.Equal(t, models.BusStatusIdle, w.store.Bus(w.bus.ID).Status)
		})
	}
}
