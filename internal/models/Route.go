package models

// Route is an ordered sequence of stops run by one or more buses.
type Route struct {
	Base
	Name            string   `json:"name" binding:"required"`
	SchoolID        string   `gorm:"type:uuid;index" json:"school_id"`
	DistanceMeters  *float64 `json:"distance_meters,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	StartAddressID  *string  `gorm:"type:uuid" json:"start_address_id,omitempty"`
	EndAddressID    *string  `gorm:"type:uuid" json:"end_address_id,omitempty"`

	// Geometry stored as WKB; the API accepts and returns GeoJSON.
	Geometry []byte `gorm:"type:bytea" json:"-"`

	Stops []Stop `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
	Buses []Bus  `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"buses,omitempty"`
}

// FindStop returns the stop with the given ID, or nil when it is not on this route.
func (r *Route) FindStop(stopID string) *Stop {
	for i := range r.Stops {
		if r.Stops[i].ID == stopID {
			return &r.Stops[i]
		}
	}
	return nil
}

// AllStopsDone reports whether every non-cancelled stop is completed.
// A route without stops is never done.
func (r *Route) AllStopsDone() bool {
	active := 0
	for _, s := range r.Stops {
		if s.Status == StopStatusCancelled {
			continue
		}
		active++
		if s.Status != StopStatusCompleted {
			return false
		}
	}
	return active > 0
}
