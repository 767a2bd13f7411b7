package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Feed event names sent to clients.
const (
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

// Hub maintains event_id -> set of connections and broadcasts comment activity.
// With Redis configured, messages go through pub/sub so every instance delivers them once.
type Hub struct {
	// eventID -> map[clientID]*Client
	rooms    map[int64]map[string]*Client
	subs     map[int64]func() // cancel Redis subscription per event
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher publishes feed messages for cross-instance broadcast.
type RedisPublisher interface {
	PublishFeedEvent(eventID int64, event string, payload []byte) error
}

// RedisSubscriber subscribes to an event's channel and invokes handler for incoming messages.
type RedisSubscriber interface {
	SubscribeFeed(eventID int64, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[int64]map[string]*Client),
		subs:     make(map[int64]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an event's feed. The first client of an event starts its Redis
// subscription; the subscribe round trip runs outside the hub lock.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.rooms[c.EventID] == nil
	if first {
		h.rooms[c.EventID] = make(map[string]*Client)
	}
	h.rooms[c.EventID][c.ID] = c
	h.mu.Unlock()

	metrics.LiveFeedClients.Inc()
	h.logger.Debug("client joined feed", zap.String("client_id", c.ID), zap.Int64("event_id", c.EventID))

	if first && h.redisSub != nil {
		h.subscribe(c.EventID)
	}
}

func (h *Hub) subscribe(eventID int64) {
	cancel, err := h.redisSub.SubscribeFeed(eventID, func(event string, payload []byte) {
		h.Broadcast(eventID, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("feed subscription failed", zap.Int64("event_id", eventID), zap.Error(err))
		return
	}

	h.mu.Lock()
	_, open := h.rooms[eventID]
	_, subscribed := h.subs[eventID]
	keep := open && !subscribed
	if keep {
		h.subs[eventID] = cancel
	}
	h.mu.Unlock()

	// The room emptied, or a newer Register already subscribed, while this one was in flight.
	if !keep {
		cancel()
	}
}

// Unregister removes a client and closes its send channel. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	m, ok := h.rooms[c.EventID]
	if ok {
		if _, present := m[c.ID]; !present {
			ok = false
		}
	}
	if ok {
		delete(m, c.ID)
		close(c.send)
		if len(m) == 0 {
			delete(h.rooms, c.EventID)
			if cancel, found := h.subs[c.EventID]; found {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		metrics.LiveFeedClients.Dec()
		h.logger.Debug("client left feed", zap.String("client_id", c.ID), zap.Int64("event_id", c.EventID))
	}
}

// Broadcast sends a message to all local clients following eventID.
func (h *Hub) Broadcast(eventID int64, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Error("marshal feed payload", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers a message to every instance. With Redis it only publishes, and the
// subscriber callback performs the broadcast once (including on this instance).
func (h *Hub) Publish(eventID int64, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(eventID, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal feed payload", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishFeedEvent(eventID, event, data); err != nil {
		h.logger.Warn("publish feed event failed, delivering locally", zap.Int64("event_id", eventID), zap.Error(err))
		h.Broadcast(eventID, event, json.RawMessage(data))
	}
}

// CommentCreated announces a new comment to the event's followers.
func (h *Hub) CommentCreated(eventID int64, comment models.CommentView) {
	h.Publish(eventID, EventCommentCreated, comment)
}

// CommentDeleted announces a removed comment to the event's followers.
func (h *Hub) CommentDeleted(eventID, commentID int64) {
	h.Publish(eventID, EventCommentDeleted, map[string]int64{"id": commentID})
}

// ClientCount returns the number of connected clients following eventID.
func (h *Hub) ClientCount(eventID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// Close cancels every Redis subscription. Connected clients are left to their read deadlines.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.subs {
		cancel()
		delete(h.subs, id)
	}
}
