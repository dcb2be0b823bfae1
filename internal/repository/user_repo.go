package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// FirstOrCreate returns the user with user.Email, inserting user when none exists.
func (r *userRepository) FirstOrCreate(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Where(domain.User{Email: user.Email}).FirstOrCreate(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.Email, err)
	}
	return nil
}
