package fleet_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/fleet/fleettest"
	"school_bus_tracker/internal/models"
)

// world is a small school: one driver with a two-seat bus on a three-stop
// route, three students and two parents. Parent p1 has two children on the
// bus.
type world struct {
	store  *fleettest.Store
	pusher *fleettest.Pusher
	cache  *fleettest.Cache
	hook   *test.Hook
	clock  *clock
	coord  *fleet.Coordinator

	driver   models.Driver
	bus      models.Bus
	route    models.Route
	alice    models.Student
	bob      models.Student
	carol    models.Student
	outsider models.Student

	driverActor fleet.Actor
	adminActor  fleet.Actor
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func ptr(s string) *string { return &s }

func newWorld(t *testing.T) *world {
	t.Helper()

	w := &world{
		store:  fleettest.NewStore(),
		pusher: &fleettest.Pusher{},
		cache:  &fleettest.Cache{},
		clock:  &clock{t: time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC)},
	}

	gate := w.store.PutAddress(models.Address{Base: models.Base{ID: "addr-gate"}, Name: "Main Gate", Latitude: -1.2921, Longitude: 36.8219})
	mall := w.store.PutAddress(models.Address{Base: models.Base{ID: "addr-mall"}, Name: "Junction Mall", Latitude: -1.2986, Longitude: 36.7622})
	w.route = w.store.PutRoute(models.Route{
		Base:     models.Base{ID: "route-1"},
		Name:     "Morning Loop",
		SchoolID: "school-1",
		Stops: []models.Stop{
			{Base: models.Base{ID: "stop-1"}, Name: "Stop One", Order: 1, AddressID: ptr(mall.ID), Status: models.StopStatusPending},
			{Base: models.Base{ID: "stop-2"}, Name: "Corner Shop", Order: 2, Status: models.StopStatusPending},
			{Base: models.Base{ID: "stop-3"}, Name: "School", Order: 3, AddressID: ptr(gate.ID), Status: models.StopStatusPending},
		},
	})

	w.bus = w.store.PutBus(models.Bus{
		Base:            models.Base{ID: "bus-1"},
		BusNumber:       "KBX 123A",
		Capacity:        2,
		Status:          models.BusStatusIdle,
		StudentsOnBoard: []models.OnboardStudent{},
		SchoolID:        "school-1",
		RouteID:         ptr(w.route.ID),
	})
	w.driver = w.store.PutDriver(models.Driver{
		Base:          models.Base{ID: "driver-1"},
		UserID:        "user-driver",
		LicenseNumber: "DL-001",
		Active:        true,
		BusID:         ptr(w.bus.ID),
		SchoolID:      ptr("school-1"),
	})

	p1 := models.Parent{Base: models.Base{ID: "parent-1"}, UserID: "user-p1"}
	p2 := models.Parent{Base: models.Base{ID: "parent-2"}, UserID: "user-p2"}
	w.alice = w.store.PutStudent(models.Student{
		Base:            models.Base{ID: "student-alice"},
		User:            models.User{Name: "Alice"},
		Parents:         []models.Parent{p1},
		BusID:           ptr(w.bus.ID),
		PickupAddressID: ptr(gate.ID),
		Status:          models.StudentStatusWaiting,
	})
	w.bob = w.store.PutStudent(models.Student{
		Base:            models.Base{ID: "student-bob"},
		User:            models.User{Name: "Bob"},
		Parents:         []models.Parent{p1, p2},
		BusID:           ptr(w.bus.ID),
		PickupAddressID: ptr("addr-unknown"),
		Status:          models.StudentStatusWaiting,
	})
	w.carol = w.store.PutStudent(models.Student{
		Base:            models.Base{ID: "student-carol"},
		User:            models.User{Name: "Carol"},
		Parents:         []models.Parent{p2},
		BusID:           ptr(w.bus.ID),
		PickupAddressID: ptr(mall.ID),
		Status:          models.StudentStatusWaiting,
	})
	w.outsider = w.store.PutStudent(models.Student{
		Base:    models.Base{ID: "student-dan"},
		User:    models.User{Name: "Dan"},
		Parents: []models.Parent{{Base: models.Base{ID: "parent-3"}, UserID: "user-p3"}},
		BusID:   ptr("bus-other"),
		Status:  models.StudentStatusWaiting,
	})

	w.driverActor = fleet.Actor{UserID: "user-driver", Role: models.RoleDriver}
	w.adminActor = fleet.Actor{UserID: "user-admin", Role: models.RoleAdmin}

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	w.hook = hook
	w.coord = fleet.NewCoordinator(w.store.Repositories(), w.pusher,
		fleet.WithLocationCache(w.cache),
		fleet.WithLogger(log),
		fleet.WithClock(w.clock.now),
	)
	return w
}
