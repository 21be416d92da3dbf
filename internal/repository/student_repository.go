package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school_bus_tracker/internal/models"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Parents").
		Where("id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, mapError(err, "student", id)
	}
	return &student, nil
}

// FindByBus returns the bus's students in creation order.
func (r *StudentRepository) FindByBus(ctx context.Context, busID string) ([]models.Student, error) {
	students := []models.Student{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Parents").
		Where("bus_id = ?", busID).
		Order("created_at, id").
		Find(&students).Error
	if err != nil {
		return nil, mapError(err, "students for bus", busID)
	}
	return students, nil
}

// Save writes the student row only; user and parent links are left as is.
func (r *StudentRepository) Save(ctx context.Context, student *models.Student) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Save(student).Error, "student", student.ID)
}
