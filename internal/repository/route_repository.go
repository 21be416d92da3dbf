package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school_bus_tracker/internal/models"
)

type RouteRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// FindByID loads the route with its stops in order and each stop's address.
func (r *RouteRepository) FindByID(ctx context.Context, id string) (*models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}})
		}).
		Preload("Stops.Address").
		Where("id = ?", id).
		First(&route).Error
	if err != nil {
		return nil, mapError(err, "route", id)
	}
	return &route, nil
}

// Create inserts the route and its stops in one transaction. Stops carrying
// an inline address get that address created first.
func (r *RouteRepository) Create(ctx context.Context, route *models.Route) error {
	stops := route.Stops
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(route).Error; err != nil {
			return mapError(err, "route", route.Name)
		}
		for i := range stops {
			stops[i].RouteID = route.ID
			if stops[i].Status == "" {
				stops[i].Status = models.StopStatusPending
			}
			if stops[i].Address != nil && stops[i].AddressID == nil {
				if err := tx.Create(stops[i].Address).Error; err != nil {
					return mapError(err, "address", stops[i].Address.Name)
				}
				stops[i].AddressID = &stops[i].Address.ID
			}
			if err := tx.Omit(clause.Associations).Create(&stops[i]).Error; err != nil {
				return mapError(err, "stop", stops[i].Name)
			}
		}
		return nil
	})
	route.Stops = stops
	return err
}

func (r *RouteRepository) SaveStop(ctx context.Context, stop *models.Stop) error {
	res := r.db.WithContext(ctx).Model(&models.Stop{}).
		Where("id = ?", stop.ID).
		Update("status", stop.Status)
	return mustAffect(res, "stop", stop.ID)
}

// ResetStops puts every non-cancelled stop of the route back to pending.
func (r *RouteRepository) ResetStops(ctx context.Context, routeID string) error {
	err := r.db.WithContext(ctx).Model(&models.Stop{}).
		Where("route_id = ? AND status <> ?", routeID, models.StopStatusCancelled).
		Update("status", models.StopStatusPending).Error
	return mapError(err, "route", routeID)
}
