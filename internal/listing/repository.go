package listing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

type Repository interface {
	All(ctx context.Context) ([]dbmysql.Listing, error)
	ByUser(ctx context.Context, userID uint) ([]dbmysql.Listing, error)
	ByID(ctx context.Context, id uint) (*dbmysql.Listing, error)
	Create(ctx context.Context, listing *dbmysql.Listing) error
	// Update saves the editable columns. A nil tags slice leaves tags untouched.
	Update(ctx context.Context, listing *dbmysql.Listing, tags []string) error
	Delete(ctx context.Context, id uint) error
	AddImage(ctx context.Context, image *dbmysql.Image) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *repository) All(ctx context.Context) ([]dbmysql.Listing, error) {
	var listings []dbmysql.Listing
	err := r.withAssociations(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	return listings, nil
}

func (r *repository) ByUser(ctx context.Context, userID uint) ([]dbmysql.Listing, error) {
	var listings []dbmysql.Listing
	err := r.withAssociations(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get listings for user %d: %w", userID, err)
	}
	return listings, nil
}

func (r *repository) ByID(ctx context.Context, id uint) (*dbmysql.Listing, error) {
	var listing dbmysql.Listing
	err := r.withAssociations(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

func (r *repository) Create(ctx context.Context, listing *dbmysql.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, listing *dbmysql.Listing, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(listing).
			Select("name", "description", "quality", "location", "category", "price").
			Updates(listing).Error
		if err != nil {
			return fmt.Errorf("failed to update listing: %w", err)
		}

		if tags == nil {
			return nil
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&dbmysql.ListingTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
		listing.Tags = make([]dbmysql.ListingTag, 0, len(tags))
		for _, tag := range tags {
			listing.Tags = append(listing.Tags, dbmysql.ListingTag{ListingID: listing.ID, TagName: tag})
		}
		if len(listing.Tags) == 0 {
			return nil
		}
		if err := tx.Create(&listing.Tags).Error; err != nil {
			return fmt.Errorf("failed to save tags: %w", err)
		}
		return nil
	})
}

// Delete relies on the cascade constraints for tags, images and notifications.
func (r *repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&dbmysql.Listing{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("listing %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *repository) AddImage(ctx context.Context, image *dbmysql.Image) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("failed to record image: %w", err)
	}
	return nil
}
