package chat

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"thriftstore/internal/client/api"
	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

var ErrAckTimeout = errors.New("message was not acknowledged in time")

// Message is a chat line as the thread shows it. Messages from the server
// are always StatusSent; ClientID is set only on messages sent from here.
type Message struct {
	api.Message
	ClientID string `json:"client_id,omitempty"`
	Status   Status `json:"status"`
}

type roomRequest struct {
	ConversationID uint `json:"conversationId"`
}

type sendRequest struct {
	ConversationID uint   `json:"conversationId"`
	Content        string `json:"content"`
	SenderID       uint   `json:"senderId"`
	ClientID       string `json:"clientId"`
}

type ackPayload struct {
	ClientID string       `json:"clientId"`
	Message  *api.Message `json:"message"`
}

type errorPayload struct {
	ClientID       string `json:"clientId"`
	ConversationID uint   `json:"conversationId"`
	Error          string `json:"error"`
}

type ackResult struct {
	msg *api.Message
	err error
}

// Thread is one open conversation. History from REST and pushes from the
// realtime channel are merged by server id, so a message delivered by both
// appears once.
type Thread struct {
	conversationID uint
	userID         uint
	ch             Channel
	ackTimeout     time.Duration

	mu       sync.Mutex
	messages []Message
	waiters  map[string]chan ackResult
	joined   chan error
	updates  chan Message

	closeOnce sync.Once
	done      chan struct{}
}

func newThread(ch Channel, conversationID, userID uint, ackTimeout time.Duration) *Thread {
	t := &Thread{
		conversationID: conversationID,
		userID:         userID,
		ch:             ch,
		ackTimeout:     ackTimeout,
		waiters:        make(map[string]chan ackResult),
		joined:         make(chan error, 1),
		updates:        make(chan Message, 64),
		done:           make(chan struct{}),
	}
	go t.listen()
	return t
}

func (t *Thread) ConversationID() uint {
	return t.conversationID
}

// Messages returns a snapshot ordered by creation time. Unacknowledged
// messages sort last.
func (t *Thread) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Updates delivers messages pushed by the server after the thread opened.
// Updates are dropped when the reader falls behind; Messages stays complete.
func (t *Thread) Updates() <-chan Message {
	return t.updates
}

// Send emits content over the realtime channel and waits for the server's
// acknowledgment. The returned message carries the final status; err says
// why it failed.
func (t *Thread) Send(ctx context.Context, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, common.NewValidationError("content", "message content is required")
	}

	clientID := uuid.NewString()
	local := Message{
		Message: api.Message{
			ConversationID: t.conversationID,
			SenderID:       t.userID,
			Content:        content,
			CreatedAt:      time.Now(),
		},
		ClientID: clientID,
		Status:   StatusPending,
	}
	waiter := make(chan ackResult, 1)

	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		return t.failLocal(local, ErrChannelClosed)
	default:
	}
	t.messages = append(t.messages, local)
	t.waiters[clientID] = waiter
	t.mu.Unlock()

	err := t.ch.Send(ctx, eventSendMessage, sendRequest{
		ConversationID: t.conversationID,
		Content:        content,
		SenderID:       t.userID,
		ClientID:       clientID,
	})
	if err != nil {
		return t.finish(clientID, err)
	}

	timer := time.NewTimer(t.ackTimeout)
	defer timer.Stop()

	select {
	case res := <-waiter:
		return t.finish(clientID, res.err)
	case <-timer.C:
		return t.finish(clientID, ErrAckTimeout)
	case <-ctx.Done():
		return t.finish(clientID, ctx.Err())
	}
}

// Close leaves the room and closes the channel. It is safe to call twice.
func (t *Thread) Close() error {
	var err error
	t.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if sendErr := t.ch.Send(ctx, eventLeaveConversation, roomRequest{ConversationID: t.conversationID}); sendErr != nil {
			logger.Log.WithError(sendErr).Debug("leave event not delivered")
		}
		err = t.ch.Close()
		<-t.done
	})
	return err
}

func (t *Thread) join(ctx context.Context) error {
	if err := t.ch.Send(ctx, eventJoinRoom, roomRequest{ConversationID: t.conversationID}); err != nil {
		return err
	}

	timer := time.NewTimer(t.ackTimeout)
	defer timer.Stop()

	select {
	case err := <-t.joined:
		return err
	case <-timer.C:
		return errors.Wrap(ErrAckTimeout, "join conversation")
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrChannelClosed
	}
}

// merge adds server messages, skipping ids already present.
func (t *Thread) merge(msgs []api.Message) []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[uint]struct{}, len(t.messages))
	for _, m := range t.messages {
		if m.ID != 0 {
			seen[m.ID] = struct{}{}
		}
	}

	var added []Message
	for _, m := range msgs {
		if m.ID == 0 {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		msg := Message{Message: m, Status: StatusSent}
		t.messages = append(t.messages, msg)
		added = append(added, msg)
	}
	t.sortLocked()
	return added
}

func (t *Thread) sortLocked() {
	sort.SliceStable(t.messages, func(i, j int) bool {
		a, b := t.messages[i], t.messages[j]
		if (a.ID == 0) != (b.ID == 0) {
			return b.ID == 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (t *Thread) listen() {
	defer t.shutdown()

	for env := range t.ch.Events() {
		switch env.Event {
		case eventJoined:
			t.signalJoin(nil)
		case eventJoinError:
			var p errorPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				t.signalJoin(errors.Wrap(common.ErrForbidden, "join rejected with an unreadable reason"))
				continue
			}
			if p.Error == "" {
				p.Error = "join rejected"
			}
			t.signalJoin(errors.Wrap(common.ErrForbidden, p.Error))
		case eventReceiveMessage:
			var m api.Message
			if err := json.Unmarshal(env.Data, &m); err != nil || m.ConversationID != t.conversationID {
				continue
			}
			for _, added := range t.merge([]api.Message{m}) {
				t.publish(added)
			}
		case eventMessageAck:
			var p ackPayload
			if err := json.Unmarshal(env.Data, &p); err != nil || p.Message == nil {
				continue
			}
			t.deliver(p.ClientID, ackResult{msg: p.Message})
		case eventMessageError:
			var p errorPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				continue
			}
			t.deliver(p.ClientID, ackResult{err: errors.New(p.Error)})
		case eventNotification:
			logger.Log.WithField("conversation_id", t.conversationID).Debug("notification received on chat channel")
		}
	}
}

func (t *Thread) signalJoin(err error) {
	select {
	case t.joined <- err:
	default:
	}
}

func (t *Thread) publish(m Message) {
	select {
	case t.updates <- m:
	default:
	}
}

// deliver hands an ack or error to the Send call waiting on clientID.
func (t *Thread) deliver(clientID string, res ackResult) {
	t.mu.Lock()
	waiter, ok := t.waiters[clientID]
	t.mu.Unlock()
	if !ok {
		return
	}
	if res.err == nil {
		t.ack(clientID, res.msg)
	}
	select {
	case waiter <- res:
	default:
	}
}

// ack replaces the pending copy with the server's message. If the push
// already added that id, the pending copy is dropped instead.
func (t *Thread) ack(clientID string, saved *api.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := -1
	existing := -1
	for i, m := range t.messages {
		if m.ClientID == clientID {
			pending = i
		}
		if m.ID == saved.ID {
			existing = i
		}
	}
	switch {
	case existing >= 0:
		t.messages[existing].ClientID = clientID
		if pending >= 0 && pending != existing {
			t.messages = append(t.messages[:pending], t.messages[pending+1:]...)
		}
	case pending >= 0:
		t.messages[pending] = Message{Message: *saved, ClientID: clientID, Status: StatusSent}
	}
	delete(t.waiters, clientID)
	t.sortLocked()
}

// finish settles the send for clientID. A message the server already
// acknowledged stays sent and err is dropped.
func (t *Thread) finish(clientID string, err error) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.waiters, clientID)
	for i := range t.messages {
		m := &t.messages[i]
		if m.ClientID != clientID {
			continue
		}
		if m.Status == StatusSent {
			return *m, nil
		}
		if err == nil {
			err = ErrChannelClosed
		}
		m.Status = StatusFailed
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"conversation_id": t.conversationID,
			"client_id":       clientID,
		}).Warn("message not delivered")
		return *m, err
	}
	return Message{}, err
}

func (t *Thread) failLocal(m Message, err error) (Message, error) {
	m.Status = StatusFailed
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()
	return m, err
}

// shutdown fails every send still waiting once the channel is gone.
func (t *Thread) shutdown() {
	t.mu.Lock()
	waiters := t.waiters
	t.waiters = make(map[string]chan ackResult)
	for i := range t.messages {
		if t.messages[i].Status == StatusPending {
			t.messages[i].Status = StatusFailed
		}
	}
	close(t.done)
	t.mu.Unlock()

	for _, w := range waiters {
		select {
		case w <- ackResult{err: ErrChannelClosed}:
		default:
		}
	}
	close(t.updates)
}
