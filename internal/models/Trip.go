package models

import (
	"time"

	"github.com/lib/pq"
)

// TripStatus is the lifecycle of a single run record. It is tracked
// independently of Bus.Status.
type TripStatus string

const (
	TripStatusCreated TripStatus = "Created"
	TripStatusStarted TripStatus = "Started"
	TripStatusEnded   TripStatus = "Ended"
)

type Trip struct {
	Base
	DriverID         string         `gorm:"type:uuid;index" json:"driver_id"`
	SchoolID         *string        `gorm:"type:uuid;index" json:"school_id,omitempty"`
	RouteID          string         `gorm:"type:uuid;index" json:"route_id"`
	Status           TripStatus     `gorm:"type:varchar(16)" json:"status"`
	PickedUpStudents pq.StringArray `gorm:"type:text[]" json:"picked_up_students"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
}

// HasStudent reports whether the student was already picked on this trip.
func (t *Trip) HasStudent(studentID string) bool {
	for _, id := range t.PickedUpStudents {
		if id == studentID {
			return true
		}
	}
	return false
}
