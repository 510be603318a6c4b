package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"thriftstore/internal/chat/service"
	"thriftstore/internal/config"
	"thriftstore/internal/logger"
)

// Event names carried in Envelope.Event.
const (
	EventJoinRoom          = "join_room"
	EventJoined            = "joined"
	EventJoinError         = "join_error"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "send_message"
	EventMessageAck        = "message_ack"
	EventMessageError      = "message_error"
	EventReceiveMessage    = "receive_message"
	EventNotification      = "notification"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks live connections by user and by conversation room.
type Hub struct {
	chat service.ChatService
	cfg  config.RealtimeConfig

	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[uint]map[*Client]struct{}
	rooms   map[uint]map[*Client]struct{}
}

func NewHub(chat service.ChatService, cfg config.RealtimeConfig) *Hub {
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	return &Hub{
		chat:    chat,
		cfg:     cfg,
		clients: make(map[*Client]struct{}),
		users:   make(map[uint]map[*Client]struct{}),
		rooms:   make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
	count := len(h.users[c.userID])
	h.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{
		"user_id":     c.userID,
		"connections": count,
	}).Info("websocket connected")
}

// unregister is safe to call more than once per client.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	h.mu.Unlock()

	if removed {
		logger.Log.WithField("user_id", c.userID).Info("websocket disconnected")
	}
}

// removeLocked drops c from every index and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)

	if conns := h.users[c.userID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
	for roomID := range c.rooms {
		h.leaveLocked(c, roomID)
	}
	close(c.send)
	return true
}

func (h *Hub) join(c *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

func (h *Hub) leave(c *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, roomID)
}

func (h *Hub) leaveLocked(c *Client, roomID uint) {
	delete(c.rooms, roomID)
	if members := h.rooms[roomID]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) inRoom(c *Client, roomID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][c]
	return ok
}

// deliver queues data for c. A client whose buffer is full is dropped
// instead of stalling the sender. h.mu must be held for writing.
func (h *Hub) deliverLocked(c *Client, data []byte) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		logger.Log.WithField("user_id", c.userID).Warn("send buffer full, dropping websocket client")
		h.removeLocked(c)
		return false
	}
}

func (h *Hub) sendTo(c *Client, event string, data interface{}) {
	frame, err := encode(event, data)
	if err != nil {
		logger.Log.WithError(err).WithField("event", event).Error("failed to encode frame")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(c, frame)
}

// BroadcastToRoom sends event to every connection that joined roomID.
func (h *Hub) BroadcastToRoom(roomID uint, event string, data interface{}) int {
	frame, err := encode(event, data)
	if err != nil {
		logger.Log.WithError(err).WithField("event", event).Error("failed to encode frame")
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.rooms[roomID] {
		if h.deliverLocked(c, frame) {
			delivered++
		}
	}
	return delivered
}

// PushToUser sends event to every live connection of userID and reports how many got it.
func (h *Hub) PushToUser(userID uint, event string, data interface{}) int {
	frame, err := encode(event, data)
	if err != nil {
		logger.Log.WithError(err).WithField("event", event).Error("failed to encode frame")
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.users[userID] {
		if h.deliverLocked(c, frame) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
