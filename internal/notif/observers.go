package notif

import (
	"context"
	"fmt"
	"time"

	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

const observerTimeout = 5 * time.Second

// DatabaseNotificationObserver persists listing matches. Other event types
// are transient and skipped.
type DatabaseNotificationObserver struct {
	repo common.NotificationRepository
}

func NewDatabaseNotificationObserver(repo common.NotificationRepository) *DatabaseNotificationObserver {
	return &DatabaseNotificationObserver{
		repo: repo,
	}
}

func (d *DatabaseNotificationObserver) Name() string {
	return "database_observer"
}

func (d *DatabaseNotificationObserver) Update(event common.NotificationEvent) error {
	if event.Type != common.ListingMatchType || event.ListingID == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), observerTimeout)
	defer cancel()

	if err := d.repo.Create(ctx, event.UserID, event.ListingID); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// RealtimeNotificationObserver pushes every event to the user's open
// websocket connections.
type RealtimeNotificationObserver struct {
	pusher common.Pusher
}

func NewRealtimeNotificationObserver(pusher common.Pusher) *RealtimeNotificationObserver {
	return &RealtimeNotificationObserver{pusher: pusher}
}

func (r *RealtimeNotificationObserver) Name() string {
	return "realtime_observer"
}

type notificationPayload struct {
	Type      common.NotificationType     `json:"type"`
	ListingID uint                        `json:"listing_id,omitempty"`
	Header    string                      `json:"header"`
	Content   string                      `json:"content"`
	Metadata  common.NotificationMetadata `json:"metadata,omitempty"`
	SentAt    time.Time                   `json:"sent_at"`
}

func (r *RealtimeNotificationObserver) Update(event common.NotificationEvent) error {
	delivered := r.pusher.PushToUser(event.UserID, "notification", notificationPayload{
		Type:      event.Type,
		ListingID: event.ListingID,
		Header:    event.Header,
		Content:   event.Content,
		Metadata:  event.Metadata,
		SentAt:    time.Now().UTC(),
	})
	if delivered == 0 {
		logger.Log.WithField("user_id", event.UserID).Debug("user offline, realtime notification skipped")
	}
	return nil
}
