package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/riveravet/clinic-api/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 32
)

// Inbound events.
const (
	EventJoinConsult = "joinConsult"
	EventSendMessage = "sendMessage"
)

// ChatStore authorizes consultation rooms and persists their messages.
type ChatStore interface {
	AuthorizeConsult(ctx context.Context, p model.Principal, consultationID uuid.UUID) error
	SaveMessage(ctx context.Context, p model.Principal, consultationID uuid.UUID, text string) (*model.ConsultMessage, error)
}

type inbound struct {
	Event string `json:"event"`
	Data  struct {
		ConsultID uuid.UUID `json:"consult_id"`
		Text      string    `json:"text"`
	} `json:"data"`
}

// Client is one websocket connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	principal model.Principal
	rooms     map[string]struct{}
}

type Upgrader struct {
	hub      *Hub
	chats    ChatStore
	upgrader websocket.Upgrader
}

// NewUpgrader accepts connections from origins; an empty list or "*" accepts any.
func NewUpgrader(hub *Hub, chats ChatStore, origins []string) *Upgrader {
	return &Upgrader{
		hub:   hub,
		chats: chats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

// Serve upgrades the request and blocks until the connection closes.
func (u *Upgrader) Serve(w http.ResponseWriter, r *http.Request, p model.Principal) error {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		hub:       u.hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		principal: p,
		rooms:     make(map[string]struct{}),
	}
	u.hub.register(c)
	u.hub.join(c, UserRoom(p.UserID))
	if p.Role == model.RoleVet || p.Role == model.RoleAdmin {
		u.hub.join(c, RoomAdmins)
	}

	go c.writePump()
	c.readPump(r.Context(), u.chats)
	return nil
}

func (c *Client) readPump(ctx context.Context, chats ChatStore) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(EventError, map[string]string{"message": "malformed message"})
			continue
		}
		c.handle(ctx, chats, msg)
	}
}

func (c *Client) handle(ctx context.Context, chats ChatStore, msg inbound) {
	switch msg.Event {
	case EventJoinConsult:
		if err := chats.AuthorizeConsult(ctx, c.principal, msg.Data.ConsultID); err != nil {
			c.reply(EventError, map[string]string{"message": "cannot join consultation"})
			return
		}
		c.hub.join(c, ConsultRoom(msg.Data.ConsultID))
	case EventSendMessage:
		if strings.TrimSpace(msg.Data.Text) == "" {
			return
		}
		saved, err := chats.SaveMessage(ctx, c.principal, msg.Data.ConsultID, msg.Data.Text)
		if err != nil {
			c.hub.logger.Warn("Failed to save consult message", "error", err.Error())
			c.reply(EventError, map[string]string{"message": "message not sent"})
			return
		}
		if err := c.hub.Publish(ctx, ConsultRoom(msg.Data.ConsultID), EventReceiveMessage, saved); err != nil {
			c.hub.logger.Warn("Failed to publish consult message", "error", err.Error())
		}
	default:
		c.reply(EventError, map[string]string{"message": "unknown event"})
	}
}

// reply writes directly to this client's buffer.
func (c *Client) reply(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.conns[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.hub.metrics.RealtimeDropped.Inc()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
