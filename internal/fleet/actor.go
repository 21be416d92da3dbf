package fleet

import (
	"fmt"

	"school_bus_tracker/internal/models"
)

// Actor is the authenticated caller. Operations receive it explicitly rather
// than reading it from transport state.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor may act on behalf of any driver.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// authorizeDriver allows admins, and drivers acting on their own profile.
func authorizeDriver(actor Actor, driver *models.Driver) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleDriver && driver.UserID == actor.UserID {
		return nil
	}
	return fmt.Errorf("%w: user %s may not act for driver %s", ErrForbidden, actor.UserID, driver.ID)
}
