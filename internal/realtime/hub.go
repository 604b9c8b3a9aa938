package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/messaging"
	"github.com/riveravet/clinic-api/pkg/metrics"
)

// Channel is the broker channel shared by every API instance.
const Channel = "clinic.realtime"

const RoomAdmins = "admins"

// Events pushed to clients.
const (
	EventNewNotification = "newNotification"
	EventReceiveMessage  = "receiveMessage"
	EventError           = "error"
)

func UserRoom(id uuid.UUID) string {
	return "user_" + id.String()
}

func ConsultRoom(id uuid.UUID) string {
	return "consult_" + id.String()
}

// Publisher pushes an event to every socket in room. Delivery is at-most-once.
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload interface{}) error
}

// Envelope is what travels over the broker.
type Envelope struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Frame is what a socket receives.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks the sockets connected to this instance and their rooms.
type Hub struct {
	broker  messaging.Broker
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	conns map[*Client]struct{}
}

func NewHub(broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		broker:  broker,
		logger:  log,
		metrics: m,
		rooms:   make(map[string]map[*Client]struct{}),
		conns:   make(map[*Client]struct{}),
	}
}

// Run consumes the shared channel until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	err := messaging.Consume(ctx, h.broker, Channel, h.dispatch, func(err error) {
		h.logger.Warn("Dropped malformed realtime envelope", "error", err.Error())
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}

	<-ctx.Done()
	h.closeAll()
	return nil
}

// Publish hands the event to the broker so every instance can deliver it.
func (h *Hub) Publish(ctx context.Context, room, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return h.broker.Publish(ctx, Channel, Envelope{Room: room, Event: event, Data: data})
}

// Connections reports the number of sockets attached to this instance.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) dispatch(msg []byte) error {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return err
	}
	h.deliver(env.Room, Frame{Event: env.Event, Data: env.Data})
	return nil
}

// deliver writes to local sockets without blocking; full buffers drop the frame.
func (h *Hub) deliver(room string, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			h.metrics.RealtimeDropped.Inc()
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.RealtimeConnections.Inc()
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)
	for room := range c.rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
	h.mu.Unlock()
	h.metrics.RealtimeConnections.Dec()
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
