package notif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"thriftstore/internal/common"
)

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) PushToUser(userID uint, event string, data interface{}) int {
	args := m.Called(userID, event, data)
	return args.Int(0)
}

func TestDatabaseNotificationObserver_Update(t *testing.T) {
	tests := []struct {
		name      string
		event     common.NotificationEvent
		mockSetup func(*MockNotificationRepository)
		wantErr   bool
	}{
		{
			name:  "listing match is stored",
			event: common.NotificationEvent{Type: common.ListingMatchType, UserID: 2, ListingID: 9},
			mockSetup: func(repo *MockNotificationRepository) {
				repo.On("Create", mock.Anything, uint(2), uint(9)).Return(nil)
			},
		},
		{
			name:  "store failure is reported",
			event: common.NotificationEvent{Type: common.ListingMatchType, UserID: 2, ListingID: 9},
			mockSetup: func(repo *MockNotificationRepository) {
				repo.On("Create", mock.Anything, uint(2), uint(9)).Return(assert.AnError)
			},
			wantErr: true,
		},
		{
			name:      "messages are not stored",
			event:     common.NotificationEvent{Type: common.MessageType, UserID: 2},
			mockSetup: func(*MockNotificationRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockNotificationRepository)
			tt.mockSetup(repo)

			err := NewDatabaseNotificationObserver(repo).Update(tt.event)

			if tt.wantErr {
				assert.ErrorIs(t, err, assert.AnError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRealtimeNotificationObserver_Update(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("PushToUser", uint(4), "notification", mock.MatchedBy(func(p notificationPayload) bool {
		return p.ListingID == 3 && p.Header == "New listing near you"
	})).Return(1)

	obs := NewRealtimeNotificationObserver(pusher)
	err := obs.Update(common.NotificationEvent{
		Type:      common.ListingMatchType,
		UserID:    4,
		ListingID: 3,
		Header:    "New listing near you",
	})

	assert.NoError(t, err)
	assert.Equal(t, "realtime_observer", obs.Name())
	pusher.AssertExpectations(t)
}

func TestRealtimeNotificationObserver_OfflineUserIsNotAnError(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("PushToUser", uint(4), "notification", mock.Anything).Return(0)

	err := NewRealtimeNotificationObserver(pusher).Update(common.NotificationEvent{Type: common.MessageType, UserID: 4})

	assert.NoError(t, err)
}
