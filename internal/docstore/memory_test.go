package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pokevault/pokevault/internal/list"
)

func TestMemoryStore_InsertAssignsID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, "user-1", list.Item{CardAPIID: "base1-4", Name: "Charizard"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == "" {
		t.Fatal("Insert returned empty id")
	}

	item, err := store.Get(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.ID != id || item.Name != "Charizard" {
		t.Errorf("stored item = %+v", item)
	}
}

func TestMemoryStore_FindByCardID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, "user-1", list.Item{CardAPIID: "base1-4"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	item, err := store.FindByCardID(ctx, "user-1", "base1-4")
	if err != nil {
		t.Fatalf("FindByCardID failed: %v", err)
	}
	if item == nil {
		t.Fatal("item not found")
	}

	missing, err := store.FindByCardID(ctx, "user-1", "xy1-1")
	if err != nil {
		t.Fatalf("FindByCardID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for absent card, got %+v", missing)
	}

	// Collections are scoped per user.
	other, err := store.FindByCardID(ctx, "user-2", "base1-4")
	if err != nil {
		t.Fatalf("FindByCardID failed: %v", err)
	}
	if other != nil {
		t.Errorf("item leaked across users: %+v", other)
	}
}

func TestMemoryStore_UpdateUnknownItem(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), "user-1", list.Item{ID: "missing"})
	if !errors.Is(err, list.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMemoryStore_WatchDeliversMutations(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Watch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	recv := func() []list.Item {
		t.Helper()
		select {
		case snapshot, ok := <-w.Snapshots():
			if !ok {
				t.Fatal("snapshots channel closed unexpectedly")
			}
			return snapshot
		case <-time.After(time.Second):
			t.Fatal("no snapshot delivered")
			return nil
		}
	}

	if snapshot := recv(); len(snapshot) != 0 {
		t.Fatalf("initial snapshot has %d items, want 0", len(snapshot))
	}

	id, _ := store.Insert(ctx, "user-1", list.Item{CardAPIID: "base1-4"})
	if snapshot := recv(); len(snapshot) != 1 {
		t.Fatalf("snapshot after insert has %d items, want 1", len(snapshot))
	}

	if err := store.Delete(ctx, "user-1", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if snapshot := recv(); len(snapshot) != 0 {
		t.Fatalf("snapshot after delete has %d items, want 0", len(snapshot))
	}
}

func TestMemoryStore_SlowConsumerSeesLatestState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Watch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	// A burst of mutations lands while nothing consumes the watch.
	for i := 0; i < 12; i++ {
		if _, err := store.Insert(ctx, "user-1", list.Item{CardAPIID: fmt.Sprintf("base1-%d", i+1)}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	// Intermediate snapshots may be coalesced, but the final delivered
	// snapshot must reflect every mutation.
	var last []list.Item
	for {
		select {
		case snapshot, ok := <-w.Snapshots():
			if !ok {
				t.Fatal("snapshots channel closed unexpectedly")
			}
			last = snapshot
		case <-time.After(100 * time.Millisecond):
			if len(last) != 12 {
				t.Fatalf("final snapshot has %d items, want 12", len(last))
			}
			return
		}
	}
}

func TestMemoryStore_CloseStopsWatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Watch(ctx, "user-1")
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	<-w.Snapshots()
	w.Close()

	if _, ok := <-w.Snapshots(); ok {
		t.Error("snapshots channel still open after Close")
	}
	if w.Err() != nil {
		t.Errorf("Err() = %v after clean close, want nil", w.Err())
	}

	// Mutations after close must not panic or deliver.
	if _, err := store.Insert(ctx, "user-1", list.Item{CardAPIID: "base1-4"}); err != nil {
		t.Fatalf("Insert after close failed: %v", err)
	}
}
