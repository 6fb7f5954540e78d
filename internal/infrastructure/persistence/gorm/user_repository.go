package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned when a user's email is already registered
var ErrDuplicateEmail = errors.New("user with this email already exists")

// UserRepository lists the users the batch jobs run for
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ outbound.UserDirectory = (*UserRepository)(nil)

// SaveUser creates a user or updates an existing one
func (r *UserRepository) SaveUser(ctx context.Context, u *UserModel) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	result := r.db.WithContext(ctx).Save(u)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "UNIQUE constraint failed") ||
			strings.Contains(result.Error.Error(), "duplicate key") {
			return ErrDuplicateEmail
		}
		return result.Error
	}
	return nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*UserModel, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, notFound(err)
	}
	return &model, nil
}

// ActiveUsers returns every active user that has a prep plan, oldest first
func (r *UserRepository) ActiveUsers(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Joins("JOIN prep_plans ON prep_plans.user_id = users.id").
		Where("users.is_active = ?", true).
		Order("users.created_at, users.id").
		Pluck("users.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
