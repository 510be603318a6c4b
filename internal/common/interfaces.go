package common

import (
	"context"
)

type Observer interface {
	Update(event NotificationEvent) error
	Name() string
}

type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(event NotificationEvent)
	NotifyAsync(event NotificationEvent)
}

// Pusher delivers an event to every live connection of a user.
type Pusher interface {
	PushToUser(userID uint, event string, data interface{}) int
}

type NotificationRepository interface {
	Create(ctx context.Context, userID, listingID uint) error
	ByUserID(ctx context.Context, userID uint, limit, offset int) ([]NotificationResponse, error)
	Delete(ctx context.Context, id, userID uint) error
}
