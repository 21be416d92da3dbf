package repository

import (
	"context"

	"gorm.io/gorm"

	"school_bus_tracker/internal/models"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	return mapError(r.db.WithContext(ctx).Create(trip).Error, "trip for driver", trip.DriverID)
}

func (r *TripRepository) FindByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error; err != nil {
		return nil, mapError(err, "trip", id)
	}
	return &trip, nil
}

func (r *TripRepository) Save(ctx context.Context, trip *models.Trip) error {
	return mapError(r.db.WithContext(ctx).Save(trip).Error, "trip", trip.ID)
}
