package models

// Parent is a guardian account. A student may have several parents and a
// parent may have several children.
type Parent struct {
	Base
	UserID string `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Phone  string `json:"phone"`
}
