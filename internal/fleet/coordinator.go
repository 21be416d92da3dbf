package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/models"
)

// Repositories groups the stores the coordinator reads and writes.
type Repositories struct {
	Drivers       DriverRepository
	Buses         BusRepository
	Routes        RouteRepository
	Students      StudentRepository
	Notifications NotificationRepository
	Trips         TripRepository
}

// Coordinator runs the driver-route-notification workflow: bus and trip
// state transitions, the student roster, live location relay and
// notification fan-out. Every operation is synchronous and applies its
// effects in a fixed order: mutate, persist, then notify.
type Coordinator struct {
	drivers       DriverRepository
	buses         BusRepository
	routes        RouteRepository
	students      StudentRepository
	notifications NotificationRepository
	trips         TripRepository

	pusher Pusher
	cache  LocationCache
	log    logrus.FieldLogger
	now    func() time.Time
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLocationCache mirrors location updates into cache.
func WithLocationCache(cache LocationCache) Option {
	return func(c *Coordinator) { c.cache = cache }
}

// WithLogger replaces the standard logrus logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator wires the coordinator to its stores and push transport.
func NewCoordinator(repos Repositories, pusher Pusher, opts ...Option) *Coordinator {
	c := &Coordinator{
		drivers:       repos.Drivers,
		buses:         repos.Buses,
		routes:        repos.Routes,
		students:      repos.Students,
		notifications: repos.Notifications,
		trips:         repos.Trips,
		pusher:        pusher,
		log:           logrus.StandardLogger(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authorizedDriver loads the driver and checks the actor may act for it.
func (c *Coordinator) authorizedDriver(ctx context.Context, actor Actor, driverID string) (*models.Driver, error) {
	driver, err := c.drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if err := authorizeDriver(actor, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// driverBus loads an authorized driver together with its assigned bus.
// A driver without a bus fails with ErrPreconditionFailed.
func (c *Coordinator) driverBus(ctx context.Context, actor Actor, driverID string) (*models.Driver, *models.Bus, error) {
	driver, err := c.authorizedDriver(ctx, actor, driverID)
	if err != nil {
		return nil, nil, err
	}
	if !driver.HasBus() {
		return nil, nil, fmt.Errorf("%w: driver %s has no assigned bus", ErrPreconditionFailed, driver.ID)
	}
	bus, err := c.buses.FindByID(ctx, *driver.BusID)
	if err != nil {
		return nil, nil, err
	}
	return driver, bus, nil
}
