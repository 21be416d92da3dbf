package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"school_bus_tracker/internal/models"
)

// UserRepository backs login.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail matches case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		return nil, mapError(err, "user", email)
	}
	return &user, nil
}

// SchoolRepository resolves the school owned by a school-role login.
type SchoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (r *SchoolRepository) FindByUserID(ctx context.Context, userID string) (*models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&school).Error; err != nil {
		return nil, mapError(err, "school for user", userID)
	}
	return &school, nil
}
