package notif

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) common.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, userID, listingID uint) error {
	notification := &dbmysql.Notification{UserID: userID, ListingID: listingID}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("listing %d: %w", listingID, common.ErrNotFound)
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ByUserID returns the newest notifications first.
func (r *notificationRepository) ByUserID(ctx context.Context, userID uint, limit, offset int) ([]common.NotificationResponse, error) {
	var rows []dbmysql.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	responses := make([]common.NotificationResponse, len(rows))
	for i, n := range rows {
		responses[i] = common.NotificationResponse{
			ID:        n.ID,
			ListingID: n.ListingID,
			UserID:    n.UserID,
			CreatedAt: n.CreatedAt,
		}
	}
	return responses, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&dbmysql.Notification{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", id, common.ErrNotFound)
	}
	return nil
}
