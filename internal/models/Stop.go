package models

// StopStatus tracks a stop within the current run of its route.
type StopStatus string

const (
	StopStatusPending   StopStatus = "pending"
	StopStatusCompleted StopStatus = "completed"
	StopStatusCancelled StopStatus = "cancelled"
)

// Stop is a scheduled point on a route. Order defines traversal sequence and
// is unique within the route.
type Stop struct {
	Base
	RouteID   string     `gorm:"type:uuid;uniqueIndex:idx_route_stop_order" json:"route_id"`
	AddressID *string    `gorm:"type:uuid" json:"address_id,omitempty"`
	Address   *Address   `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Name      string     `json:"name"`
	Order     int        `gorm:"uniqueIndex:idx_route_stop_order" json:"order"`
	Status    StopStatus `gorm:"type:varchar(16)" json:"status"`
}

// DisplayName prefers the populated address name over the stop's own label.
func (s *Stop) DisplayName() string {
	if s.Address != nil && s.Address.Name != "" {
		return s.Address.Name
	}
	return s.Name
}
