package service

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thriftstore/internal/chat/service/mocks"
	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

type recordingNotifier struct {
	events []common.NotificationEvent
}

func (n *recordingNotifier) Subscribe(common.Observer)   {}
func (n *recordingNotifier) Unsubscribe(common.Observer) {}
func (n *recordingNotifier) Notify(e common.NotificationEvent) {
	n.events = append(n.events, e)
}
func (n *recordingNotifier) NotifyAsync(e common.NotificationEvent) {
	n.events = append(n.events, e)
}

func TestChatService_StartConversation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockChatRepository(ctrl)
	service := NewChatService(mockRepo, nil)

	tests := []struct {
		name        string
		buyerID     uint
		sellerID    uint
		mockSetup   func()
		wantCreated bool
		expectError bool
	}{
		{
			name:     "new conversation",
			buyerID:  1,
			sellerID: 2,
			mockSetup: func() {
				mockRepo.EXPECT().FindOrCreateConversation(gomock.Any(), uint(1), uint(2)).
					Return(&dbmysql.Conversation{ID: 10, BuyerID: 1, SellerID: 2}, true, nil)
			},
			wantCreated: true,
		},
		{
			name:     "existing conversation",
			buyerID:  1,
			sellerID: 2,
			mockSetup: func() {
				mockRepo.EXPECT().FindOrCreateConversation(gomock.Any(), uint(1), uint(2)).
					Return(&dbmysql.Conversation{ID: 10, BuyerID: 1, SellerID: 2}, false, nil)
			},
		},
		{
			name:        "seller missing",
			buyerID:     1,
			mockSetup:   func() {},
			expectError: true,
		},
		{
			name:        "self conversation",
			buyerID:     3,
			sellerID:    3,
			mockSetup:   func() {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			conv, created, err := service.StartConversation(context.Background(), tt.buyerID, tt.sellerID)

			if tt.expectError {
				assert.True(t, common.IsValidationError(err))
				assert.Nil(t, conv)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(10), conv.ID)
			assert.Equal(t, tt.wantCreated, created)
		})
	}
}

func TestChatService_ListConversations_NeverNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockChatRepository(ctrl)
	service := NewChatService(mockRepo, nil)

	mockRepo.EXPECT().ConversationsForUser(gomock.Any(), uint(4)).Return(nil, nil)

	convs, err := service.ListConversations(context.Background(), 4)
	require.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestChatService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockChatRepository(ctrl)
	service := NewChatService(mockRepo, nil)
	conv := &dbmysql.Conversation{ID: 3, BuyerID: 1, SellerID: 2}

	t.Run("participant reads history", func(t *testing.T) {
		mockRepo.EXPECT().ConversationByID(gomock.Any(), uint(3)).Return(conv, nil)
		mockRepo.EXPECT().MessagesForConversation(gomock.Any(), uint(3)).Return([]*dbmysql.Message{
			{ID: 1, ConversationID: 3, SenderID: 1, Content: "hi"},
		}, nil)

		messages, err := service.History(context.Background(), 2, 3)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		mockRepo.EXPECT().ConversationByID(gomock.Any(), uint(3)).Return(conv, nil)

		_, err := service.History(context.Background(), 9, 3)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		mockRepo.EXPECT().ConversationByID(gomock.Any(), uint(8)).Return(nil, common.ErrNotFound)

		_, err := service.History(context.Background(), 1, 8)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestChatService_SendMessage(t *testing.T) {
	conv := &dbmysql.Conversation{ID: 3, BuyerID: 1, SellerID: 2}

	tests := []struct {
		name        string
		message     *dbmysql.Message
		mockSetup   func(*mocks.MockChatRepository)
		expectError bool
		errorIs     error
	}{
		{
			name:    "successful message send",
			message: &dbmysql.Message{ConversationID: 3, SenderID: 1, Content: "  Is it still available?  "},
			mockSetup: func(repo *mocks.MockChatRepository) {
				repo.EXPECT().ConversationByID(gomock.Any(), uint(3)).Return(conv, nil)
				repo.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, msg *dbmysql.Message) error {
						assert.Equal(t, "Is it still available?", msg.Content)
						msg.ID = 42
						return nil
					})
			},
		},
		{
			name:        "empty content",
			message:     &dbmysql.Message{ConversationID: 3, SenderID: 1, Content: "   "},
			mockSetup:   func(*mocks.MockChatRepository) {},
			expectError: true,
		},
		{
			name:        "too long",
			message:     &dbmysql.Message{ConversationID: 3, SenderID: 1, Content: strings.Repeat("a", MaxMessageLength+1)},
			mockSetup:   func(*mocks.MockChatRepository) {},
			expectError: true,
		},
		{
			name:    "sender outside conversation",
			message: &dbmysql.Message{ConversationID: 3, SenderID: 7, Content: "hello"},
			mockSetup: func(repo *mocks.MockChatRepository) {
				repo.EXPECT().ConversationByID(gomock.Any(), uint(3)).Return(conv, nil)
			},
			expectError: true,
			errorIs:     common.ErrForbidden,
		},
		{
			name:    "repository failure",
			message: &dbmysql.Message{ConversationID: 3, SenderID: 2, Content: "hello"},
			mockSetup: func(repo *mocks.MockChatRepository) {
				repo.EXPECT().ConversationByID(gomock.Any(), uint(3)).Return(conv, nil)
				repo.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).Return(assert.AnError)
			},
			expectError: true,
			errorIs:     assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mocks.NewMockChatRepository(ctrl)
			notifier := &recordingNotifier{}
			service := NewChatService(mockRepo, notifier)
			tt.mockSetup(mockRepo)

			msg, err := service.SendMessage(context.Background(), tt.message)

			if tt.expectError {
				assert.Error(t, err)
				if tt.errorIs != nil {
					assert.ErrorIs(t, err, tt.errorIs)
				}
				assert.Nil(t, msg)
				assert.Empty(t, notifier.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, uint(42), msg.ID)
			require.Len(t, notifier.events, 1)
			assert.Equal(t, common.MessageType, notifier.events[0].Type)
			assert.Equal(t, uint(2), notifier.events[0].UserID)
		})
	}
}
