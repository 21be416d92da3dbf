package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/geo"
	"school_bus_tracker/internal/models"
)

// LocationPushType tags live location frames sent to parents.
const LocationPushType = "location_update"

// LocationPush is the frame pushed to each parent of a student on the bus.
type LocationPush struct {
	Type      string          `json:"type"`
	BusID     string          `json:"bus_id"`
	BusNumber string          `json:"bus_number"`
	Location  models.GeoPoint `json:"location"`
	Geometry  json.RawMessage `json:"geometry"`
	StudentID string          `json:"student_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// LocationResult is returned by UpdateLocation.
type LocationResult struct {
	BusID     string          `json:"bus_id"`
	Location  models.GeoPoint `json:"location"`
	Timestamp time.Time       `json:"timestamp"`
	Pushed    int             `json:"pushed"`
}

// UpdateLocation stores the bus's latest position and relays it to the
// parents of every student assigned to the bus. Pushes are fire-and-forget
// and nothing is written to the notification store.
func (c *Coordinator) UpdateLocation(ctx context.Context, actor Actor, driverID string, point models.GeoPoint) (*LocationResult, error) {
	if !geo.ValidCoordinate(point.Latitude, point.Longitude) {
		return nil, fmt.Errorf("fleet.UpdateLocation: %w: latitude must be in [-90, 90] and longitude in [-180, 180]", ErrValidation)
	}
	driver, bus, err := c.driverBus(ctx, actor, driverID)
	if err != nil {
		return nil, fmt.Errorf("fleet.UpdateLocation: %w", err)
	}

	prev := bus.CurrentLocation
	ts := c.now()
	if bus.LastLocationUpdate != nil && bus.LastLocationUpdate.After(ts) {
		ts = *bus.LastLocationUpdate
	}
	bus.CurrentLocation = point
	bus.LastLocationUpdate = &ts
	if err := c.buses.Save(ctx, bus); err != nil {
		return nil, fmt.Errorf("fleet.UpdateLocation: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.StoreBusLocation(ctx, bus.ID, point); err != nil {
			c.log.WithError(err).WithField("bus_id", bus.ID).Warn("Failed to cache bus location.")
		}
	}

	students, err := c.students.FindByBus(ctx, bus.ID)
	if err != nil {
		return nil, fmt.Errorf("fleet.UpdateLocation: %w", err)
	}
	geometry, err := geo.PointGeoJSON(point.Latitude, point.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fleet.UpdateLocation: %w: %v", ErrValidation, err)
	}

	pushed := 0
	for _, s := range students {
		frame := LocationPush{
			Type:      LocationPushType,
			BusID:     bus.ID,
			BusNumber: bus.BusNumber,
			Location:  point,
			Geometry:  geometry,
			StudentID: s.ID,
			Timestamp: ts,
		}
		for _, parentID := range parentRecipients(s) {
			c.pusher.SendToUser(parentID, frame)
			pushed++
		}
	}

	c.log.WithFields(logrus.Fields{
		"driver_id":   driver.ID,
		"bus_id":      bus.ID,
		"latitude":    point.Latitude,
		"longitude":   point.Longitude,
		"distance_m":  fmt.Sprintf("%.2f", geo.Distance(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude)),
		"bearing_deg": fmt.Sprintf("%.2f", geo.Bearing(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude)),
		"pushed":      pushed,
	}).Debug("Bus location updated.")

	return &LocationResult{
		BusID:     bus.ID,
		Location:  point,
		Timestamp: ts,
		Pushed:    pushed,
	}, nil
}
