package notif

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"thriftstore/internal/common"
	"thriftstore/internal/config"
	"thriftstore/internal/logger"
)

const (
	DefaultPageSize   = 20
	MaxPageSize       = 100
	MaxListingsPerRun = 100
)

type NotificationManager struct {
	observers    map[string]common.Observer
	eventChannel chan common.NotificationEvent
	workerPool   int
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

func NewNotificationManager(workerPoolSize, bufferSize int) *NotificationManager {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	ctx, cancel := context.WithCancel(context.Background())

	nm := &NotificationManager{
		observers:    make(map[string]common.Observer),
		eventChannel: make(chan common.NotificationEvent, bufferSize),
		workerPool:   workerPoolSize,
		ctx:          ctx,
		cancel:       cancel,
	}

	for i := 0; i < workerPoolSize; i++ {
		nm.wg.Add(1)
		go nm.processEvents()
	}

	return nm
}

func (nm *NotificationManager) Subscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.observers[observer.Name()] = observer
	logger.Log.WithField("observer", observer.Name()).Info("observer subscribed")
}

func (nm *NotificationManager) Unsubscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.observers, observer.Name())
	logger.Log.WithField("observer", observer.Name()).Info("observer unsubscribed")
}

func (nm *NotificationManager) Notify(event common.NotificationEvent) {
	nm.mu.RLock()
	observers := make([]common.Observer, 0, len(nm.observers))
	for _, obs := range nm.observers {
		observers = append(observers, obs)
	}
	nm.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(event); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"observer": observer.Name(),
				"type":     event.Type,
				"user_id":  event.UserID,
			}).Warn("observer update failed")
		}
	}
}

// NotifyAsync queues the event for the worker pool. Events are dropped when
// the queue is full or the manager is shut down.
func (nm *NotificationManager) NotifyAsync(event common.NotificationEvent) {
	select {
	case <-nm.ctx.Done():
		return
	default:
	}

	select {
	case nm.eventChannel <- event:
	default:
		logger.Log.WithField("type", event.Type).Warn("notification channel full, dropping event")
	}
}

func (nm *NotificationManager) processEvents() {
	defer nm.wg.Done()

	for {
		select {
		case event := <-nm.eventChannel:
			nm.Notify(event)
		case <-nm.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers. Queued events that were not picked up are discarded.
func (nm *NotificationManager) Shutdown() {
	nm.cancel()
	nm.wg.Wait()
	logger.Log.Info("notification manager shutdown complete")
}

type NotificationService struct {
	manager *NotificationManager
	repo    common.NotificationRepository
	enabled bool
}

// NewNotificationService starts a manager with the database observer.
func NewNotificationService(cfg *config.Config, repo common.NotificationRepository) *NotificationService {
	manager := NewNotificationManager(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize)
	manager.Subscribe(NewDatabaseNotificationObserver(repo))

	return &NotificationService{
		manager: manager,
		repo:    repo,
		enabled: cfg.Notification.Enabled,
	}
}

// AttachPusher adds live delivery once the websocket hub exists. It is a
// no-op when realtime notifications are disabled.
func (s *NotificationService) AttachPusher(pusher common.Pusher) {
	if pusher == nil || !s.enabled {
		return
	}
	s.manager.Subscribe(NewRealtimeNotificationObserver(pusher))
}

// Manager exposes the subject so other services can publish events.
func (s *NotificationService) Manager() *NotificationManager {
	return s.manager
}

// RecordMatches queues one listing-match notification per distinct listing
// id and returns how many were accepted. The whole request is rejected,
// with nothing queued, when any id is invalid.
func (s *NotificationService) RecordMatches(ctx context.Context, userID uint, listingIDs []uint) (int, error) {
	if len(listingIDs) == 0 {
		return 0, common.NewValidationError("listing_ids", "at least one listing id is required")
	}
	if len(listingIDs) > MaxListingsPerRun {
		return 0, common.NewValidationError("listing_ids", fmt.Sprintf("at most %d listing ids per request", MaxListingsPerRun))
	}

	seen := make(map[uint]struct{}, len(listingIDs))
	unique := make([]uint, 0, len(listingIDs))
	for _, id := range listingIDs {
		if id == 0 {
			return 0, common.NewValidationError("listing_ids", "listing ids must be positive")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	for _, id := range unique {
		s.manager.NotifyAsync(common.NotificationEvent{
			Type:      common.ListingMatchType,
			UserID:    userID,
			ListingID: id,
			Header:    "New listing near you",
			Content:   "A listing matching your wishlist is close to your location",
			Metadata:  common.NotificationMetadata{"listing_id": id},
		})
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "listings": len(unique)}).Info("listing matches queued")
	return len(unique), nil
}

func (s *NotificationService) UserNotifications(ctx context.Context, userID uint, limit, offset int) ([]common.NotificationResponse, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.ByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	if notifications == nil {
		notifications = []common.NotificationResponse{}
	}
	return notifications, nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID, userID uint) error {
	return s.repo.Delete(ctx, notificationID, userID)
}

func (s *NotificationService) Shutdown() {
	s.manager.Shutdown()
	logger.Log.Info("notification service shutdown complete")
}
