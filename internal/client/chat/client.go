package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"thriftstore/internal/client/api"
	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

const (
	NoMessagesYet     = "No messages yet"
	DefaultAckTimeout = 5 * time.Second

	fanOutLimit = 8
)

// API is the REST side of chat.
type API interface {
	Conversations(ctx context.Context) ([]api.Conversation, error)
	Messages(ctx context.Context, conversationID uint) ([]api.Message, error)
	UserProfile(ctx context.Context, userID uint) (*api.User, error)
}

// Dialer opens a realtime channel for the current session.
type Dialer func(ctx context.Context) (Channel, error)

// Summary is a conversation list row.
type Summary struct {
	Conversation    api.Conversation
	CounterpartID   uint
	CounterpartName string
	LastMessage     string
	LastMessageTime *time.Time
}

type Client struct {
	api        API
	dial       Dialer
	userID     uint
	ackTimeout time.Duration
}

func NewClient(rest API, dial Dialer, userID uint, ackTimeout time.Duration) *Client {
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	return &Client{api: rest, dial: dial, userID: userID, ackTimeout: ackTimeout}
}

// ListConversations fetches the list and then, concurrently, each
// conversation's history and counterpart profile. Order follows the server.
func (c *Client) ListConversations(ctx context.Context) ([]Summary, error) {
	convs, err := c.api.Conversations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list conversations")
	}

	out := make([]Summary, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)

	for i, conv := range convs {
		i, conv := i, conv
		g.Go(func() error {
			msgs, err := c.api.Messages(gctx, conv.ID)
			if err != nil {
				return errors.Wrapf(err, "messages for conversation %d", conv.ID)
			}
			out[i] = c.summarize(gctx, conv, msgs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) summarize(ctx context.Context, conv api.Conversation, msgs []api.Message) Summary {
	s := Summary{
		Conversation:  conv,
		CounterpartID: conv.Counterpart(c.userID),
		LastMessage:   NoMessagesYet,
	}
	if n := len(msgs); n > 0 {
		last := msgs[n-1]
		s.LastMessage = last.Content
		at := last.CreatedAt
		s.LastMessageTime = &at
	}

	s.CounterpartName = fmt.Sprintf("User #%d", s.CounterpartID)
	profile, err := c.api.UserProfile(ctx, s.CounterpartID)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"conversation_id": conv.ID,
			"user_id":         s.CounterpartID,
		}).Warn("failed to load counterpart profile")
		return s
	}
	if profile.Name != "" {
		s.CounterpartName = profile.Name
	}
	return s
}

// OpenConversation joins the conversation's room and loads its history.
// The caller must Close the thread.
func (c *Client) OpenConversation(ctx context.Context, conversationID uint) (*Thread, error) {
	if conversationID == 0 {
		return nil, common.NewValidationError("conversationId", "conversation id is required")
	}

	ch, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	t := newThread(ch, conversationID, c.userID, c.ackTimeout)

	if err := t.join(ctx); err != nil {
		t.Close()
		return nil, errors.Wrapf(err, "join conversation %d", conversationID)
	}

	history, err := c.api.Messages(ctx, conversationID)
	if err != nil {
		t.Close()
		return nil, errors.Wrapf(err, "history for conversation %d", conversationID)
	}
	t.merge(history)
	return t, nil
}
