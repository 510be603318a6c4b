package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

const (
	eventJoinRoom          = "join_room"
	eventJoined            = "joined"
	eventJoinError         = "join_error"
	eventLeaveConversation = "leaveConversation"
	eventSendMessage       = "send_message"
	eventMessageAck        = "message_ack"
	eventMessageError      = "message_error"
	eventReceiveMessage    = "receive_message"
	eventNotification      = "notification"

	writeWait = 10 * time.Second
)

var ErrChannelClosed = errors.New("realtime channel closed")

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel is a realtime connection. Events is closed when the connection
// ends for any reason.
type Channel interface {
	Send(ctx context.Context, event string, data interface{}) error
	Events() <-chan Envelope
	Close() error
}

// WSChannel is a Channel over the server's /ws endpoint.
type WSChannel struct {
	conn   *websocket.Conn
	events chan Envelope

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// DialWS connects to the websocket endpoint of the API at baseURL.
func DialWS(ctx context.Context, baseURL, token string) (*WSChannel, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/ws")
	if err != nil {
		return nil, errors.Wrap(err, "parse api url")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, errors.Wrap(common.ErrAuthExpired, "dial realtime channel")
		}
		return nil, errors.Wrap(err, "dial realtime channel")
	}

	ch := &WSChannel{
		conn:   conn,
		events: make(chan Envelope, 64),
		closed: make(chan struct{}),
	}
	go ch.readLoop()
	return ch, nil
}

func (c *WSChannel) Events() <-chan Envelope {
	return c.events
}

func (c *WSChannel) Send(ctx context.Context, event string, data interface{}) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode event data")
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(Envelope{Event: event, Data: raw}); err != nil {
		return errors.Wrapf(ErrChannelClosed, "write %s: %v", event, err)
	}
	return nil
}

func (c *WSChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *WSChannel) readLoop() {
	defer close(c.events)
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Log.WithError(err).Warn("realtime channel closed unexpectedly")
			}
			return
		}
		select {
		case c.events <- env:
		case <-c.closed:
			return
		}
	}
}
