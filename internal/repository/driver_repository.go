package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"school_bus_tracker/internal/fleet"
	"school_bus_tracker/internal/models"
)

type DriverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) FindByID(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&driver).Error; err != nil {
		return nil, mapError(err, "driver", id)
	}
	return &driver, nil
}

// FindByUserID resolves the driver profile behind a login.
func (r *DriverRepository) FindByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&driver).Error; err != nil {
		return nil, mapError(err, "driver for user", userID)
	}
	return &driver, nil
}

// AssignBus gives the bus to the driver. Any other driver holding the bus
// loses it in the same transaction. A driver without a school joins the
// bus's school; a driver of another school is refused.
func (r *DriverRepository) AssignBus(ctx context.Context, driverID, busID string) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", driverID).First(&driver).Error; err != nil {
			return mapError(err, "driver", driverID)
		}
		var bus models.Bus
		if err := tx.Where("id = ?", busID).First(&bus).Error; err != nil {
			return mapError(err, "bus", busID)
		}
		if driver.SchoolID != nil && bus.SchoolID != "" && *driver.SchoolID != bus.SchoolID {
			return fmt.Errorf("%w: driver %s belongs to another school", fleet.ErrForbidden, driverID)
		}
		if err := tx.Model(&models.Driver{}).
			Where("bus_id = ? AND id <> ?", busID, driverID).
			Update("bus_id", nil).Error; err != nil {
			return mapError(err, "driver", driverID)
		}
		updates := map[string]interface{}{"bus_id": busID}
		if driver.SchoolID == nil && bus.SchoolID != "" {
			updates["school_id"] = bus.SchoolID
			driver.SchoolID = &bus.SchoolID
		}
		if err := tx.Model(&driver).Updates(updates).Error; err != nil {
			return mapError(err, "driver", driverID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	driver.BusID = &busID
	return &driver, nil
}
