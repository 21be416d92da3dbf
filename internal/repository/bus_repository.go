package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school_bus_tracker/internal/models"
)

type BusRepository struct {
	db *gorm.DB
}

func NewBusRepository(db *gorm.DB) *BusRepository {
	return &BusRepository{db: db}
}

func (r *BusRepository) FindByID(ctx context.Context, id string) (*models.Bus, error) {
	var bus models.Bus
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bus).Error; err != nil {
		return nil, mapError(err, "bus", id)
	}
	return &bus, nil
}

// FindByIDs loads buses in no particular order; unknown IDs are skipped.
func (r *BusRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Bus, error) {
	buses := []models.Bus{}
	if len(ids) == 0 {
		return buses, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&buses).Error; err != nil {
		return nil, mapError(err, "buses", "")
	}
	return buses, nil
}

func (r *BusRepository) Create(ctx context.Context, bus *models.Bus) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(bus).Error, "bus", bus.BusNumber)
}

// Save writes every column of the bus. Concurrent writers overwrite each
// other; the last save wins.
func (r *BusRepository) Save(ctx context.Context, bus *models.Bus) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Save(bus).Error, "bus", bus.ID)
}
