package models

import (
	"time"
)

// BusStatus is the lifecycle state of a bus while it runs its route.
type BusStatus string

const (
	BusStatusIdle     BusStatus = "Idle"
	BusStatusOnRoute  BusStatus = "On Route"
	BusStatusArrived  BusStatus = "Arrived"
	BusStatusInactive BusStatus = "Inactive"
)

// GeoPoint is a latitude/longitude pair in WGS84 degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OnboardStudent is one entry of the bus roster for the active run.
type OnboardStudent struct {
	StudentID  string `json:"student_id"`
	PickedUp   bool   `json:"picked_up"`
	DroppedOff bool   `json:"dropped_off"`
}

type Bus struct {
	Base
	BusNumber          string           `gorm:"index" json:"bus_number"`
	Capacity           int              `json:"capacity"`
	CurrentPassengers  int              `json:"current_passengers"`
	CurrentLocation    GeoPoint         `gorm:"embedded;embeddedPrefix:current_" json:"current_location"`
	Status             BusStatus        `gorm:"type:varchar(16)" json:"status"`
	StudentsOnBoard    []OnboardStudent `gorm:"serializer:json" json:"students_on_board"`
	LastLocationUpdate *time.Time       `json:"last_location_update,omitempty"`
	SchoolID           string           `gorm:"type:uuid;index" json:"school_id"`
	RouteID            *string          `gorm:"type:uuid;index" json:"route_id,omitempty"`
}

// ResetRun clears the per-run roster. Used on both start and end of a route.
func (b *Bus) ResetRun(status BusStatus) {
	b.Status = status
	b.CurrentPassengers = 0
	b.StudentsOnBoard = []OnboardStudent{}
}

// HasRoute reports whether the bus is assigned to a route.
func (b *Bus) HasRoute() bool {
	return b.RouteID != nil && *b.RouteID != ""
}

// OnboardRecord returns the roster entry for the student, or nil.
func (b *Bus) OnboardRecord(studentID string) *OnboardStudent {
	for i := range b.StudentsOnBoard {
		if b.StudentsOnBoard[i].StudentID == studentID {
			return &b.StudentsOnBoard[i]
		}
	}
	return nil
}
