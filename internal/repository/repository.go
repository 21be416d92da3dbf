// Package repository implements the fleet stores on PostgreSQL with GORM.
package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"school_bus_tracker/internal/fleet"
)

// New returns every repository the coordinator needs, sharing one handle.
func New(db *gorm.DB) fleet.Repositories {
	return fleet.Repositories{
		Drivers:       NewDriverRepository(db),
		Buses:         NewBusRepository(db),
		Routes:        NewRouteRepository(db),
		Students:      NewStudentRepository(db),
		Notifications: NewNotificationRepository(db),
		Trips:         NewTripRepository(db),
	}
}

// invalidTextRepresentation is raised when an ID is not a well-formed uuid.
const invalidTextRepresentation = "22P02"

// mapError turns a GORM error into the coordinator's error kinds.
func mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", fleet.ErrNotFound, entity, id)
	}
	// No row can carry a malformed uuid.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
		return fmt.Errorf("%w: %s %s", fleet.ErrNotFound, entity, id)
	}
	return fmt.Errorf("%w: %s %s: %v", fleet.ErrPersistence, entity, id, err)
}

// mustAffect reports ErrNotFound for an update that matched no rows.
func mustAffect(res *gorm.DB, entity, id string) error {
	if res.Error != nil {
		return mapError(res.Error, entity, id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", fleet.ErrNotFound, entity, id)
	}
	return nil
}
