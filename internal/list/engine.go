package list

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pokevault/pokevault/internal/catalog"
)

// ErrDuplicate is returned by Add when the user's list already holds the
// card. It is an informational outcome, not a failure.
var ErrDuplicate = errors.New("card already on shopping list")

// State is the lifecycle state of a subscription.
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateLive
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "unsubscribed"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// EngineConfig configures the sync engine.
type EngineConfig struct {
	Store  Store
	Logger *slog.Logger

	// Now supplies timestamps for new items. Defaults to time.Now.
	Now func() time.Time
}

// Engine keeps a user's remote shopping list consistent under add, remove
// and toggle operations. Mutations are never applied optimistically:
// callers observe every change through the live subscription, so the local
// view is always eventually consistent with the remote store.
type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a sync engine.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Engine{
		store:  config.Store,
		logger: config.Logger,
		now:    config.Now,
	}, nil
}

// Subscribe starts a live subscription on the user's list. Every remote
// change produces a re-sorted snapshot on Updates(): unpurchased items
// first, each group newest first. The subscription ends on Cancel or on a
// remote failure; it never retries on its own, callers re-subscribe to
// recover.
func (e *Engine) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sub := &Subscription{
		userID:  userID,
		updates: make(chan []Item, 1),
		done:    make(chan struct{}),
		state:   StateSubscribing,
	}

	watcher, err := e.store.Watch(ctx, userID)
	if err != nil {
		sub.setState(StateErrored, err)
		return nil, fmt.Errorf("watch list for user %s: %w", userID, err)
	}

	go sub.run(watcher, e.logger)

	return sub, nil
}

// Add places a card on the user's list unless it is already there. The
// existence check and the insert are two separate store operations, so two
// adds racing from different sessions can still slip through; within one
// client this is the at-most-one-duplicate guarantee the UI relies on.
func (e *Engine) Add(ctx context.Context, userID string, card *catalog.Card) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if card == nil || card.ID == "" {
		return fmt.Errorf("card is required")
	}

	existing, err := e.store.FindByCardID(ctx, userID, card.ID)
	if err != nil {
		return fmt.Errorf("check for existing item: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrDuplicate, card.Name)
	}

	item := NewItemFromCard(card, e.now())
	id, err := e.store.Insert(ctx, userID, item)
	if err != nil {
		return fmt.Errorf("insert list item: %w", err)
	}

	e.logger.Debug("card added to shopping list",
		"userID", userID,
		"cardID", card.ID,
		"itemID", id)
	return nil
}

// Remove deletes an item by id. Confirmation is a UI concern; the engine
// mutates unconditionally.
func (e *Engine) Remove(ctx context.Context, userID, itemID string) error {
	if err := e.store.Delete(ctx, userID, itemID); err != nil {
		return fmt.Errorf("delete list item %s: %w", itemID, err)
	}

	e.logger.Debug("item removed from shopping list", "userID", userID, "itemID", itemID)
	return nil
}

// TogglePurchased flips the purchased flag of an item.
func (e *Engine) TogglePurchased(ctx context.Context, userID, itemID string) error {
	item, err := e.store.Get(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("load list item %s: %w", itemID, err)
	}

	item.Purchased = !item.Purchased
	if err := e.store.Update(ctx, userID, *item); err != nil {
		return fmt.Errorf("update list item %s: %w", itemID, err)
	}

	e.logger.Debug("item purchase state toggled",
		"userID", userID,
		"itemID", itemID,
		"purchased", item.Purchased)
	return nil
}

// Subscription is one live watch on a user's list.
type Subscription struct {
	userID  string
	updates chan []Item

	done     chan struct{}
	doneOnce sync.Once

	mu    sync.Mutex
	state State
	err   error
}

// Updates delivers sorted snapshots. The channel is closed when the
// subscription ends. Snapshots may be coalesced: a slow consumer sees the
// latest state, not every intermediate one.
func (s *Subscription) Updates() <-chan []Item { return s.updates }

// UserID returns the user this subscription belongs to.
func (s *Subscription) UserID() string { return s.userID }

// State returns the current lifecycle state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err reports why the subscription ended, or nil while it is running or
// after a clean Cancel.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel tears the subscription down. Safe to call more than once; no
// further snapshots are delivered after it returns.
func (s *Subscription) Cancel() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Subscription) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription) run(watcher Watcher, logger *slog.Logger) {
	defer close(s.updates)
	defer watcher.Close()

	for {
		select {
		case <-s.done:
			s.setState(StateUnsubscribed, nil)
			return

		case snapshot, ok := <-watcher.Snapshots():
			if !ok {
				if err := watcher.Err(); err != nil {
					logger.Warn("list subscription failed",
						"userID", s.userID,
						"error", err)
					s.setState(StateErrored, err)
				} else {
					s.setState(StateUnsubscribed, nil)
				}
				return
			}

			s.setState(StateLive, nil)
			s.deliver(SortItems(snapshot))
		}
	}
}

// deliver pushes a snapshot, displacing an undelivered older one. The
// updates channel has capacity 1 and this is its only sender.
func (s *Subscription) deliver(snapshot []Item) {
	select {
	case s.updates <- snapshot:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- snapshot:
		default:
		}
	}
}
