package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pokevault/pokevault/internal/api/websocket"
	"github.com/pokevault/pokevault/internal/events"
	"github.com/pokevault/pokevault/internal/list"
	"github.com/pokevault/pokevault/internal/metrics"
)

// listSnapshot is the payload pushed to WebSocket clients on every list
// change.
type listSnapshot struct {
	UserID string      `json:"userId"`
	Count  int         `json:"count"`
	Items  []list.Item `json:"items"`
}

// eventBridge observes session changes and keeps exactly one live list
// subscription: the signed-in user's. On login it subscribes and forwards
// every snapshot to the hub; on logout, or when a new user signs in, the
// previous subscription is torn down first so no stale snapshots leak
// across sessions.
type eventBridge struct {
	engine  *list.Engine
	hub     *websocket.Hub
	metrics *metrics.Collector
	logger  *slog.Logger

	mu  sync.Mutex
	sub *list.Subscription
}

func newEventBridge(engine *list.Engine, hub *websocket.Hub, collector *metrics.Collector, logger *slog.Logger) *eventBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventBridge{
		engine:  engine,
		hub:     hub,
		metrics: collector,
		logger:  logger,
	}
}

func (b *eventBridge) Name() string { return "api-event-bridge" }

func (b *eventBridge) ShouldHandle(eventType string) bool {
	return eventType == events.TypeSessionChanged
}

func (b *eventBridge) OnEvent(event events.Event) error {
	change, ok := event.Payload.(*events.SessionChange)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	b.hub.BroadcastEvent(websocket.Event{Type: events.TypeSessionChanged, Data: change})

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}

	if change.UserID == "" {
		return nil
	}

	sub, err := b.engine.Subscribe(context.Background(), change.UserID)
	if err != nil {
		return fmt.Errorf("subscribe list for user %s: %w", change.UserID, err)
	}
	b.sub = sub

	go b.forward(sub)
	return nil
}

// forward relays subscription snapshots to the hub until the subscription
// ends.
func (b *eventBridge) forward(sub *list.Subscription) {
	for snapshot := range sub.Updates() {
		if b.metrics != nil {
			b.metrics.RecordSnapshotDelivered()
		}
		b.hub.BroadcastEvent(websocket.Event{
			Type: events.TypeListUpdated,
			Data: listSnapshot{
				UserID: sub.UserID(),
				Count:  len(snapshot),
				Items:  snapshot,
			},
		})
	}

	if err := sub.Err(); err != nil {
		b.logger.Warn("list subscription ended with error",
			"userID", sub.UserID(),
			"error", err)
	}
}

// stop tears down the active subscription, if any.
func (b *eventBridge) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}
}
