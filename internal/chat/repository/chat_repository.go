package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

type ChatRepository interface {
	// FindOrCreateConversation reports created=false when the pair already had a thread.
	FindOrCreateConversation(ctx context.Context, buyerID, sellerID uint) (*dbmysql.Conversation, bool, error)
	ConversationByID(ctx context.Context, conversationID uint) (*dbmysql.Conversation, error)
	ConversationsForUser(ctx context.Context, userID uint) ([]*dbmysql.Conversation, error)
	SaveMessage(ctx context.Context, msg *dbmysql.Message) error
	MessagesForConversation(ctx context.Context, conversationID uint) ([]*dbmysql.Message, error)
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) FindOrCreateConversation(ctx context.Context, buyerID, sellerID uint) (*dbmysql.Conversation, bool, error) {
	existing, err := r.byPair(ctx, buyerID, sellerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv := &dbmysql.Conversation{BuyerID: buyerID, SellerID: sellerID}
	err = r.db.WithContext(ctx).Create(conv).Error
	switch {
	case err == nil:
		return conv, true, nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// another request created the pair between our read and insert
		existing, err = r.byPair(ctx, buyerID, sellerID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read conversation: %w", err)
		}
		return existing, false, nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return nil, false, fmt.Errorf("seller: %w", common.ErrNotFound)
	default:
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}
}

func (r *chatRepo) byPair(ctx context.Context, buyerID, sellerID uint) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND seller_id = ?", buyerID, sellerID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepo) ConversationByID(ctx context.Context, conversationID uint) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", conversationID).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (r *chatRepo) ConversationsForUser(ctx context.Context, userID uint) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// SaveMessage inserts the message and bumps the conversation's updated_at in one transaction.
func (r *chatRepo) SaveMessage(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		err := tx.Model(&dbmysql.Conversation{}).
			Where("id = ?", msg.ConversationID).
			UpdateColumn("updated_at", time.Now()).Error
		if err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
}

func (r *chatRepo) MessagesForConversation(ctx context.Context, conversationID uint) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return messages, nil
}
