package models

// Role values carried in the JWT and on the users table.
const (
	RoleAdmin   = "admin"
	RoleSchool  = "school"
	RoleDriver  = "driver"
	RoleParent  = "parent"
	RoleStudent = "student"
)

type User struct {
	Base
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "admin", "school", "driver", "parent", "student"
}
