package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
	"thriftstore/internal/logger"
)

const (
	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second

	serviceTimeout = 10 * time.Second
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint

	// guarded by hub.mu
	rooms map[uint]struct{}
}

type roomRequest struct {
	ConversationID uint `json:"conversationId"`
}

type sendMessageRequest struct {
	ConversationID uint   `json:"conversationId"`
	Content        string `json:"content"`
	SenderID       uint   `json:"senderId"`
	ClientID       string `json:"clientId"`
}

type messageAck struct {
	ClientID string           `json:"clientId"`
	Message  *dbmysql.Message `json:"message"`
}

type messageError struct {
	ClientID string `json:"clientId"`
	Error    string `json:"error"`
}

type roomError struct {
	ConversationID uint   `json:"conversationId"`
	Error          string `json:"error"`
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.cfg.SendBufferSize),
		userID: userID,
		rooms:  make(map[uint]struct{}),
	}
}

// readPump pumps frames from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).WithField("user_id", c.userID).Warn("websocket read failed")
			}
			return
		}
		c.handleFrame(frame)
	}
}

// writePump pumps queued frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if !ok {
				// the hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		logger.Log.WithError(err).WithField("user_id", c.userID).Debug("ignoring malformed frame")
		return
	}

	switch env.Event {
	case EventJoinRoom:
		c.joinRoom(env.Data)
	case EventLeaveConversation:
		if id, err := conversationID(env.Data); err == nil {
			c.hub.leave(c, id)
		}
	case EventSendMessage:
		c.sendMessage(env.Data)
	default:
		logger.Log.WithFields(logrus.Fields{"user_id": c.userID, "event": env.Event}).Debug("unknown event")
	}
}

func (c *Client) joinRoom(data json.RawMessage) {
	id, err := conversationID(data)
	if err != nil {
		c.hub.sendTo(c, EventJoinError, roomError{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()

	if _, err := c.hub.chat.Conversation(ctx, c.userID, id); err != nil {
		c.hub.sendTo(c, EventJoinError, roomError{ConversationID: id, Error: publicError(err)})
		return
	}
	c.hub.join(c, id)
	c.hub.sendTo(c, EventJoined, roomRequest{ConversationID: id})
}

func (c *Client) sendMessage(data json.RawMessage) {
	var req sendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.hub.sendTo(c, EventMessageError, messageError{Error: "invalid message payload"})
		return
	}
	if req.SenderID != 0 && req.SenderID != c.userID {
		c.hub.sendTo(c, EventMessageError, messageError{ClientID: req.ClientID, Error: "sender does not match session"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()

	saved, err := c.hub.chat.SendMessage(ctx, &dbmysql.Message{
		ConversationID: req.ConversationID,
		SenderID:       c.userID,
		Content:        req.Content,
	})
	if err != nil {
		c.hub.sendTo(c, EventMessageError, messageError{ClientID: req.ClientID, Error: publicError(err)})
		return
	}

	if !c.hub.inRoom(c, saved.ConversationID) {
		c.hub.join(c, saved.ConversationID)
	}
	c.hub.sendTo(c, EventMessageAck, messageAck{ClientID: req.ClientID, Message: saved})
	c.hub.BroadcastToRoom(saved.ConversationID, EventReceiveMessage, saved)
}

// conversationID accepts a bare number, a numeric string or {"conversationId": n}.
func conversationID(data json.RawMessage) (uint, error) {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
		return uint(id), nil
	}

	var req roomRequest
	if err := json.Unmarshal(data, &req); err == nil && req.ConversationID > 0 {
		return req.ConversationID, nil
	}
	return 0, errors.New("conversationId is required")
}

func publicError(err error) string {
	if common.StatusFor(err) == http.StatusInternalServerError {
		logger.Log.WithError(err).Error("chat operation failed")
		return "internal server error"
	}
	return err.Error()
}
