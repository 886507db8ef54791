// Package events distributes domain events (session changes, list
// updates) to registered observers.
package events

import (
	"log/slog"
	"sync"
)

// Event types dispatched by the companion core.
const (
	// TypeSessionChanged fires on login, logout and anonymous sign-in.
	// Payload: *SessionChange.
	TypeSessionChanged = "session:changed"

	// TypeListUpdated fires when a new shopping-list snapshot arrives.
	// Payload: *ListUpdate.
	TypeListUpdated = "list:updated"
)

// SessionChange is the payload of a TypeSessionChanged event.
type SessionChange struct {
	UserID    string `json:"userId"` // empty on logout
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// ListUpdate is the payload of a TypeListUpdated event.
type ListUpdate struct {
	UserID string `json:"userId"`
	Count  int    `json:"count"`
}

// Event is a domain event with a typed payload.
type Event struct {
	Type    string
	Payload any
}

// Observer is notified of dispatched events. Implementations filter the
// event types they care about through ShouldHandle.
type Observer interface {
	OnEvent(event Event) error
	Name() string
	ShouldHandle(eventType string) bool
}

// Dispatcher distributes events to registered observers. Thread-safe for
// concurrent use.
type Dispatcher struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	observers []Observer
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Register adds an observer. It will receive all future events its
// ShouldHandle accepts.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, observer)
	d.logger.Debug("observer registered", "observer", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, obs := range d.observers {
		if obs == observer {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			d.logger.Debug("observer unregistered", "observer", observer.Name())
			return
		}
	}
}

// Dispatch notifies observers sequentially, in registration order. An
// observer error is logged and does not stop delivery to the others.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("observer failed to handle event",
				"observer", observer.Name(),
				"type", event.Type,
				"error", err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}
