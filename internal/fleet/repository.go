package fleet

import (
	"context"

	"school_bus_tracker/internal/models"
)

// Repositories return ErrNotFound for missing rows and ErrPersistence for
// any other store failure.

type DriverRepository interface {
	FindByID(ctx context.Context, id string) (*models.Driver, error)
}

type BusRepository interface {
	FindByID(ctx context.Context, id string) (*models.Bus, error)
	Save(ctx context.Context, bus *models.Bus) error
}

type RouteRepository interface {
	// FindByID loads the route with its stops ordered by Order and each
	// stop's address populated.
	FindByID(ctx context.Context, id string) (*models.Route, error)
	SaveStop(ctx context.Context, stop *models.Stop) error
	// ResetStops sets every non-cancelled stop of the route back to pending.
	ResetStops(ctx context.Context, routeID string) error
}

type StudentRepository interface {
	// FindByID loads the student with its user and parents populated.
	FindByID(ctx context.Context, id string) (*models.Student, error)
	// FindByBus returns students assigned to the bus, user and parents
	// populated, in a stable order.
	FindByBus(ctx context.Context, busID string) ([]models.Student, error)
	Save(ctx context.Context, student *models.Student) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	FindByID(ctx context.Context, id string) (*models.Trip, error)
	Save(ctx context.Context, trip *models.Trip) error
}

// Pusher delivers a live payload to a connected user. Delivery is best
// effort: nothing is queued for offline users and no error is reported.
type Pusher interface {
	SendToUser(userID string, payload interface{})
}

// LocationCache mirrors the latest bus positions for proximity lookups.
type LocationCache interface {
	StoreBusLocation(ctx context.Context, busID string, point models.GeoPoint) error
}
