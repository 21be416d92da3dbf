package fleet

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/models"
)

// RouteResult is returned by StartRoute and EndRoute.
type RouteResult struct {
	Bus           *models.Bus  `json:"bus"`
	Notifications FanOutResult `json:"notifications"`
}

// StartRoute puts the driver's bus On Route with an empty roster, resets the
// route's stops for the new run and notifies the parents of every student
// assigned to the bus.
func (c *Coordinator) StartRoute(ctx context.Context, actor Actor, driverID string) (*RouteResult, error) {
	driver, bus, err := c.driverBus(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.StartRoute: %w", err)
	}
	if bus.Status == models.BusStatusInactive {
		return nil, fmt.Errorf("fleet.StartRoute: %w: bus %s is inactive", ErrPreconditionFailed, bus.ID)
	}

	bus.ResetRun(models.BusStatusOnRoute)
	if err := c.buses.Save(ctx, bus); err != nil {
		return nil, fmt.Errorf("fleet.StartRoute: %w", err)
	}
	if bus.HasRoute() {
		if err := c.routes.ResetStops(ctx, *bus.RouteID); err != nil {
			return nil, fmt.Errorf("fleet.StartRoute: %w", err)
		}
	}

	result, err := c.notifyBusParents(ctx, bus, fmt.Sprintf("Bus %s has started its route.", bus.BusNumber))
	if err != nil {
		return nil, fmt.Errorf("fleet.StartRoute: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"bus_id":    bus.ID,
		"notified":  len(result.Notifications.Delivered),
	}).Info("Route started.")
	return result, wrapFanOut("fleet.StartRoute", result.Notifications)
}

// EndRoute returns the driver's bus to Idle with an empty roster and notifies
// the parents of every student assigned to the bus.
func (c *Coordinator) EndRoute(ctx context.Context, actor Actor, driverID string) (*RouteResult, error) {
	driver, bus, err := c.driverBus(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.EndRoute: %w", err)
	}
	if bus.Status == models.BusStatusInactive {
		return nil, fmt.Errorf("fleet.EndRoute: %w: bus %s is inactive", ErrPreconditionFailed, bus.ID)
	}

	bus.ResetRun(models.BusStatusIdle)
	if err := c.buses.Save(ctx, bus); err != nil {
		return nil, fmt.Errorf("fleet.EndRoute: %w", err)
	}

	result, err := c.notifyBusParents(ctx, bus, fmt.Sprintf("Bus %s has completed its route.", bus.BusNumber))
	if err != nil {
		return nil, fmt.Errorf("fleet.EndRoute: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"bus_id":    bus.ID,
		"notified":  len(result.Notifications.Delivered),
	}).Info("Route ended.")
	return result, wrapFanOut("fleet.EndRoute", result.Notifications)
}

func (c *Coordinator) notifyBusParents(ctx context.Context, bus *models.Bus, message string) (*RouteResult, error) {
	students, err := c.students.FindByBus(ctx, bus.ID)
	if err != nil {
		return nil, err
	}
	return &RouteResult{
		Bus:           bus,
		Notifications: c.FanOut(ctx, parentRecipients(students...), message),
	}, nil
}

func wrapFanOut(op string, r FanOutResult) error {
	if err := r.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateTrip records a new run of routeID by the driver in state Created.
func (c *Coordinator) CreateTrip(ctx context.Context, actor Actor, driverID, routeID string) (*models.Trip, error) {
	if routeID == "" {
		return nil, fmt.Errorf("fleet.CreateTrip: %w: route_id is required", ErrValidation)
	}
	driver, err := c.authorizedDriver(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.CreateTrip: %w", err)
	}
	if _, err := c.routes.FindByID(ctx, routeID); err != nil {
		return nil, fmt.Errorf("fleet.CreateTrip: %w", err)
	}

	trip := &models.Trip{
		DriverID:         driver.ID,
		SchoolID:         driver.SchoolID,
		RouteID:          routeID,
		Status:           models.TripStatusCreated,
		PickedUpStudents: pq.StringArray{},
	}
	if err := c.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("fleet.CreateTrip: %w", err)
	}
	return trip, nil
}

// GetTrip returns a trip visible to the actor.
func (c *Coordinator) GetTrip(ctx context.Context, actor Actor, tripID string) (*models.Trip, error) {
	trip, err := c.authorizedTrip(ctx, actor, tripID)
	if err != nil {
		return nil, fmt.Errorf("fleet.GetTrip: %w", err)
	}
	return trip, nil
}

// StartTrip moves a trip from Created to Started.
func (c *Coordinator) StartTrip(ctx context.Context, actor Actor, tripID string) (*models.Trip, error) {
	trip, err := c.transitionTrip(ctx, actor, tripID, models.TripStatusCreated, models.TripStatusStarted)
	if err != nil {
		return nil, fmt.Errorf("fleet.StartTrip: %w", err)
	}
	return trip, nil
}

// EndTrip moves a trip from Started to Ended.
func (c *Coordinator) EndTrip(ctx context.Context, actor Actor, tripID string) (*models.Trip, error) {
	trip, err := c.transitionTrip(ctx, actor, tripID, models.TripStatusStarted, models.TripStatusEnded)
	if err != nil {
		return nil, fmt.Errorf("fleet.EndTrip: %w", err)
	}
	return trip, nil
}

// PickStudent appends the student to a started trip's pickup list. The bus
// and student records are left untouched; the roster is tracked separately
// by MarkStudentStatus.
func (c *Coordinator) PickStudent(ctx context.Context, actor Actor, tripID, studentID string) (*models.Trip, error) {
	trip, err := c.authorizedTrip(ctx, actor, tripID)
	if err != nil {
		return nil, fmt.Errorf("fleet.PickStudent: %w", err)
	}
	if trip.Status != models.TripStatusStarted {
		return nil, fmt.Errorf("fleet.PickStudent: %w: trip %s is %s", ErrPreconditionFailed, trip.ID, trip.Status)
	}
	if _, err := c.students.FindByID(ctx, studentID); err != nil {
		return nil, fmt.Errorf("fleet.PickStudent: %w", err)
	}
	if trip.HasStudent(studentID) {
		return trip, nil
	}
	trip.PickedUpStudents = append(trip.PickedUpStudents, studentID)
	if err := c.trips.Save(ctx, trip); err != nil {
		return nil, fmt.Errorf("fleet.PickStudent: %w", err)
	}
	return trip, nil
}

func (c *Coordinator) authorizedTrip(ctx context.Context, actor Actor, tripID string) (*models.Trip, error) {
	trip, err := c.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if _, err := c.authorizedDriver(ctx, actor, trip.DriverID); err != nil {
		return nil, err
	}
	return trip, nil
}

func (c *Coordinator) transitionTrip(ctx context.Context, actor Actor, tripID string, from, to models.TripStatus) (*models.Trip, error) {
	trip, err := c.authorizedTrip(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != from {
		return nil, fmt.Errorf("%w: trip %s is %s, expected %s", ErrPreconditionFailed, trip.ID, trip.Status, from)
	}

	now := c.now()
	trip.Status = to
	switch to {
	case models.TripStatusStarted:
		trip.StartedAt = &now
	case models.TripStatusEnded:
		trip.EndedAt = &now
	}
	if err := c.trips.Save(ctx, trip); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"driver_id": trip.DriverID,
		"status":    trip.Status,
	}).Info("Trip status changed.")
	return trip, nil
}
