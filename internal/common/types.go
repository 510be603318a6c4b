package common

import (
	"time"
)

type NotificationType string

const (
	// a listing matched the user's wishlist near their location
	ListingMatchType NotificationType = "listing_match"
	MessageType      NotificationType = "message"
)

type NotificationMetadata map[string]interface{}

type NotificationEvent struct {
	Type      NotificationType
	UserID    uint
	ListingID uint
	Header    string
	Content   string
	Metadata  NotificationMetadata
}

type NotificationResponse struct {
	ID        uint      `json:"id"`
	ListingID uint      `json:"listing_id"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
