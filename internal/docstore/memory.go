// Package docstore provides the document-store backends behind the
// shopping-list engine: an HTTP client for a remote per-user collection
// and an in-process store used when no remote is configured.
package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pokevault/pokevault/internal/list"
)

// MemoryStore is an in-process list.Store. Watches are served by
// broadcasting a full snapshot to every registered watcher after each
// mutation.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]map[string]list.Item // userID -> itemID -> item
	watchers map[string][]*memoryWatcher
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]map[string]list.Item),
		watchers: make(map[string][]*memoryWatcher),
	}
}

// List returns every item in the user's collection.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]list.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID), nil
}

// Get returns the item with the given id.
func (s *MemoryStore) Get(ctx context.Context, userID, itemID string) (*list.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[userID][itemID]; ok {
		return &item, nil
	}
	return nil, list.ErrItemNotFound
}

// FindByCardID returns the item matching the card id, or nil.
func (s *MemoryStore) FindByCardID(ctx context.Context, userID, cardAPIID string) (*list.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items[userID] {
		if item.CardAPIID == cardAPIID {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

// Insert stores a new item under a generated document id.
func (s *MemoryStore) Insert(ctx context.Context, userID string, item list.Item) (string, error) {
	s.mu.Lock()
	item.ID = uuid.NewString()
	if s.items[userID] == nil {
		s.items[userID] = make(map[string]list.Item)
	}
	s.items[userID][item.ID] = item
	s.mu.Unlock()

	s.broadcast(userID)
	return item.ID, nil
}

// Update replaces the stored item identified by item.ID.
func (s *MemoryStore) Update(ctx context.Context, userID string, item list.Item) error {
	s.mu.Lock()
	if _, ok := s.items[userID][item.ID]; !ok {
		s.mu.Unlock()
		return list.ErrItemNotFound
	}
	s.items[userID][item.ID] = item
	s.mu.Unlock()

	s.broadcast(userID)
	return nil
}

// Delete removes the item with the given id. Deleting an absent item is
// not an error.
func (s *MemoryStore) Delete(ctx context.Context, userID, itemID string) error {
	s.mu.Lock()
	delete(s.items[userID], itemID)
	s.mu.Unlock()

	s.broadcast(userID)
	return nil
}

// Watch registers a watcher on the user's collection. The current state is
// delivered as the first snapshot.
func (s *MemoryStore) Watch(ctx context.Context, userID string) (list.Watcher, error) {
	w := &memoryWatcher{
		store:     s,
		userID:    userID,
		snapshots: make(chan []list.Item, 1),
	}

	s.mu.Lock()
	s.watchers[userID] = append(s.watchers[userID], w)
	snapshot := s.snapshotLocked(userID)
	s.mu.Unlock()

	w.send(snapshot)
	return w, nil
}

func (s *MemoryStore) snapshotLocked(userID string) []list.Item {
	out := make([]list.Item, 0, len(s.items[userID]))
	for _, item := range s.items[userID] {
		out = append(out, item)
	}
	return out
}

func (s *MemoryStore) broadcast(userID string) {
	s.mu.Lock()
	snapshot := s.snapshotLocked(userID)
	watchers := append([]*memoryWatcher(nil), s.watchers[userID]...)
	s.mu.Unlock()

	for _, w := range watchers {
		w.send(snapshot)
	}
}

func (s *MemoryStore) unregister(userID string, target *memoryWatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	watchers := s.watchers[userID]
	for i, w := range watchers {
		if w == target {
			watchers[i] = watchers[len(watchers)-1]
			s.watchers[userID] = watchers[:len(watchers)-1]
			return
		}
	}
}

type memoryWatcher struct {
	store  *MemoryStore
	userID string

	mu        sync.Mutex
	closed    bool
	snapshots chan []list.Item
}

func (w *memoryWatcher) Snapshots() <-chan []list.Item { return w.snapshots }

// Err always returns nil: the in-process store cannot fail.
func (w *memoryWatcher) Err() error { return nil }

func (w *memoryWatcher) Close() {
	w.store.unregister(w.userID, w)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.snapshots)
	}
}

// send delivers a snapshot, displacing an undelivered older one so a slow
// consumer always observes the latest state. The channel has capacity 1
// and mutations are the only senders, serialized by w.mu.
func (w *memoryWatcher) send(snapshot []list.Item) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.snapshots <- snapshot:
	default:
		select {
		case <-w.snapshots:
		default:
		}
		select {
		case w.snapshots <- snapshot:
		default:
		}
	}
}
