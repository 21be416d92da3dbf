package models

import (
	"fmt"
	"strings"
)

// StudentStatus is the single status enum for students. Drivers send the
// snake_case form ("picked_up"); the dashboard historically sent the display
// form ("Picked Up"). Both parse to the same value.
type StudentStatus string

const (
	StudentStatusWaiting    StudentStatus = "Waiting"
	StudentStatusPickedUp   StudentStatus = "Picked Up"
	StudentStatusDroppedOff StudentStatus = "Dropped Off"
	StudentStatusIdle       StudentStatus = "Idle"
	StudentStatusAbsent     StudentStatus = "Absent"
)

var studentStatuses = []StudentStatus{
	StudentStatusWaiting,
	StudentStatusPickedUp,
	StudentStatusDroppedOff,
	StudentStatusIdle,
	StudentStatusAbsent,
}

// ParseStudentStatus normalizes case, underscores and hyphens before matching.
func ParseStudentStatus(raw string) (StudentStatus, error) {
	key := normalizeStatus(raw)
	for _, s := range studentStatuses {
		if normalizeStatus(string(s)) == key {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown student status %q", raw)
}

// Display is the lower-case phrase used in notification text.
func (s StudentStatus) Display() string {
	return strings.ToLower(string(s))
}

func normalizeStatus(raw string) string {
	r := strings.NewReplacer("_", " ", "-", " ")
	return strings.Join(strings.Fields(strings.ToLower(r.Replace(raw))), " ")
}

type Student struct {
	Base
	UserID          string        `gorm:"type:uuid;index" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID" json:"user"`
	Parents         []Parent      `gorm:"many2many:student_parents;" json:"parents,omitempty"`
	SchoolID        string        `gorm:"type:uuid;index" json:"school_id"`
	BusID           *string       `gorm:"type:uuid;index" json:"bus_id,omitempty"`
	PickupAddressID *string       `gorm:"type:uuid" json:"pickup_address_id,omitempty"`
	Status          StudentStatus `gorm:"type:varchar(16)" json:"status"`
	Enrolled        bool          `json:"enrolled"`
	FeesOutstanding float64       `json:"fees_outstanding"`
}

// Name is the display name of the student's user account.
func (s *Student) Name() string {
	return s.User.Name
}

// OnBus reports whether the student is assigned to the given bus.
func (s *Student) OnBus(busID string) bool {
	return s.BusID != nil && *s.BusID == busID
}
