package wishlist

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thriftstore/internal/dbmysql"
)

type Repository interface {
	// ByUser returns nil, nil when the user has no wishlist yet.
	ByUser(ctx context.Context, userID uint) (*dbmysql.Wishlist, error)
	Upsert(ctx context.Context, wishlist *dbmysql.Wishlist) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ByUser(ctx context.Context, userID uint) (*dbmysql.Wishlist, error) {
	var wishlist dbmysql.Wishlist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wishlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return &wishlist, nil
}

func (r *repository) Upsert(ctx context.Context, wishlist *dbmysql.Wishlist) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"products", "item_descriptions", "keywords", "updated_at"}),
	}).Create(wishlist).Error
	if err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}
