package models

// School is the tenant that owns buses, drivers, routes and students.
type School struct {
	Base
	UserID  string `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`

	Buses []Bus `gorm:"foreignKey:SchoolID" json:"buses,omitempty"`
}
