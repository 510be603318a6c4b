package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *dbmysql.User) error
	UserByID(ctx context.Context, userID uint) (*dbmysql.User, error)
	UserByEmail(ctx context.Context, email string) (*dbmysql.User, error)
	UpdateUser(ctx context.Context, user *dbmysql.User) error
	// UpdateLocation stores the address and promotes the user to seller in one statement.
	UpdateLocation(ctx context.Context, userID uint, location string) error
	// TakenField returns "email" or "phone" when another user already owns it.
	TakenField(ctx context.Context, email, phone string, excludeID uint) (string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *dbmysql.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email or phone already registered: %w", common.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) UserByID(ctx context.Context, userID uint) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) UserByEmail(ctx context.Context, email string) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *dbmysql.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email or phone already registered: %w", common.ErrConflict)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLocation(ctx context.Context, userID uint, location string) error {
	result := r.db.WithContext(ctx).
		Model(&dbmysql.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"location":     location,
			"access_level": common.AccessLevelSeller,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	return nil
}

func (r *userRepository) TakenField(ctx context.Context, email, phone string, excludeID uint) (string, error) {
	var existing dbmysql.User
	err := r.db.WithContext(ctx).
		Where("(email = ? OR phone = ?) AND id <> ?", email, phone, excludeID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing.Email == email {
		return "email", nil
	}
	return "phone", nil
}

func translate(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
