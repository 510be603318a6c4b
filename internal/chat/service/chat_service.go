package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"thriftstore/internal/chat/repository"
	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
	"thriftstore/internal/logger"
)

const MaxMessageLength = 2000

// ChatService defines the interface exposed to the handler layer
type ChatService interface {
	StartConversation(ctx context.Context, buyerID, sellerID uint) (*dbmysql.Conversation, bool, error)
	ListConversations(ctx context.Context, userID uint) ([]*dbmysql.Conversation, error)
	// Conversation returns the thread only when userID takes part in it.
	Conversation(ctx context.Context, userID, conversationID uint) (*dbmysql.Conversation, error)
	History(ctx context.Context, userID, conversationID uint) ([]*dbmysql.Message, error)
	SendMessage(ctx context.Context, msg *dbmysql.Message) (*dbmysql.Message, error)
}

type chatService struct {
	repo     repository.ChatRepository
	notifier common.Subject
}

// NewChatService wires the repository. notifier may be nil, in which case
// recipients are not told about new messages outside the chat channel.
func NewChatService(r repository.ChatRepository, notifier common.Subject) ChatService {
	return &chatService{repo: r, notifier: notifier}
}

func (s *chatService) StartConversation(ctx context.Context, buyerID, sellerID uint) (*dbmysql.Conversation, bool, error) {
	if sellerID == 0 {
		return nil, false, common.NewValidationError("seller_id", "seller id is required")
	}
	if buyerID == sellerID {
		return nil, false, common.NewValidationError("seller_id", "cannot start a conversation with yourself")
	}

	conv, created, err := s.repo.FindOrCreateConversation(ctx, buyerID, sellerID)
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.Log.WithField("conversation_id", conv.ID).Info("conversation started")
	}
	return conv, created, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uint) ([]*dbmysql.Conversation, error) {
	convs, err := s.repo.ConversationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []*dbmysql.Conversation{}
	}
	return convs, nil
}

func (s *chatService) Conversation(ctx context.Context, userID, conversationID uint) (*dbmysql.Conversation, error) {
	if conversationID == 0 {
		return nil, common.NewValidationError("conversationId", "conversation id is required")
	}
	conv, err := s.repo.ConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant of conversation %d: %w", conversationID, common.ErrForbidden)
	}
	return conv, nil
}

// History returns the conversation's messages oldest first.
func (s *chatService) History(ctx context.Context, userID, conversationID uint) ([]*dbmysql.Message, error) {
	if _, err := s.Conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.repo.MessagesForConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*dbmysql.Message{}
	}
	return messages, nil
}

// SendMessage validates and persists msg. The returned message carries the server id.
func (s *chatService) SendMessage(ctx context.Context, msg *dbmysql.Message) (*dbmysql.Message, error) {
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Content == "" {
		return nil, common.NewValidationError("content", "message content cannot be empty")
	}
	if utf8.RuneCountInString(msg.Content) > MaxMessageLength {
		return nil, common.NewValidationError("content", fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}
	if msg.SenderID == 0 {
		return nil, common.NewValidationError("senderId", "sender id is required")
	}

	conv, err := s.Conversation(ctx, msg.SenderID, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	msg.ID = 0
	if err := s.repo.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyRecipient(conv, msg)
	return msg, nil
}

func (s *chatService) notifyRecipient(conv *dbmysql.Conversation, msg *dbmysql.Message) {
	if s.notifier == nil {
		return
	}
	recipient := conv.BuyerID
	if msg.SenderID == conv.BuyerID {
		recipient = conv.SellerID
	}
	s.notifier.NotifyAsync(common.NotificationEvent{
		Type:    common.MessageType,
		UserID:  recipient,
		Header:  "New message",
		Content: msg.Content,
		Metadata: common.NotificationMetadata{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
			"sender_id":       msg.SenderID,
		},
	})
}
