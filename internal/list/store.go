package list

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned by stores when no document matches the
// requested item id.
var ErrItemNotFound = errors.New("list item not found")

// Store is the document-store surface the engine needs: per-user
// sub-collections of list items with point reads, equality lookup,
// single-document writes and a live snapshot watch.
type Store interface {
	// List returns every item in the user's collection, in store order.
	List(ctx context.Context, userID string) ([]Item, error)

	// Get returns the item with the given id, or ErrItemNotFound.
	Get(ctx context.Context, userID, itemID string) (*Item, error)

	// FindByCardID returns the item whose CardAPIID matches, or nil when
	// the user's list has no such card.
	FindByCardID(ctx context.Context, userID, cardAPIID string) (*Item, error)

	// Insert stores a new item and returns the store-assigned id.
	Insert(ctx context.Context, userID string, item Item) (string, error)

	// Update replaces the stored item identified by item.ID.
	Update(ctx context.Context, userID string, item Item) error

	// Delete removes the item with the given id.
	Delete(ctx context.Context, userID, itemID string) error

	// Watch starts a live watch on the user's collection. The returned
	// watcher delivers at least one full snapshot per mutation (snapshots
	// may be coalesced) until it is closed or fails.
	Watch(ctx context.Context, userID string) (Watcher, error)
}

// Watcher is a cancelable stream of full collection snapshots.
type Watcher interface {
	// Snapshots delivers full snapshots of the collection. The channel is
	// closed when the watch ends, normally or not.
	Snapshots() <-chan []Item

	// Err reports why the watch ended. It is valid after Snapshots is
	// closed and returns nil for a clean shutdown.
	Err() error

	// Close stops the watch and releases its resources.
	Close()
}
