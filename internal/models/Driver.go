package models

type Driver struct {
	Base
	UserID        string  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User          User    `gorm:"foreignKey:UserID" json:"-"`
	LicenseNumber string  `gorm:"uniqueIndex" json:"license_number"`
	VehicleType   string  `json:"vehicle_type"`
	Active        bool    `json:"active"`
	BusID         *string `gorm:"type:uuid;index" json:"bus_id,omitempty"`
	SchoolID      *string `gorm:"type:uuid;index" json:"school_id,omitempty"`
}

// HasBus reports whether a bus is currently assigned.
func (d *Driver) HasBus() bool {
	return d.BusID != nil && *d.BusID != ""
}
