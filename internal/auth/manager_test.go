package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pokevault/pokevault/internal/events"
)

type fakeProvider struct {
	err error
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &Session{UserID: "user-1", Email: email}, nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &Session{UserID: "user-2", Email: email}, nil
}

func (p *fakeProvider) SignInAnonymously(ctx context.Context) (*Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &Session{UserID: "anon-1", Anonymous: true}, nil
}

type sessionRecorder struct {
	mu      sync.Mutex
	changes []*events.SessionChange
}

func (r *sessionRecorder) OnEvent(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, event.Payload.(*events.SessionChange))
	return nil
}

func (r *sessionRecorder) Name() string { return "session-recorder" }

func (r *sessionRecorder) ShouldHandle(eventType string) bool {
	return eventType == events.TypeSessionChanged
}

func newTestManager(t *testing.T, provider Provider) (*Manager, *sessionRecorder) {
	t.Helper()
	dispatcher := events.NewDispatcher(nil)
	recorder := &sessionRecorder{}
	dispatcher.Register(recorder)

	m, err := NewManager(ManagerConfig{Provider: provider, Dispatcher: dispatcher})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m, recorder
}

func TestManager_SignInEstablishesSession(t *testing.T) {
	m, recorder := newTestManager(t, &fakeProvider{})

	session, err := m.SignIn(context.Background(), "ash@example.com", "pikachu")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if session.UserID != "user-1" {
		t.Errorf("UserID = %q", session.UserID)
	}
	if m.UserID() != "user-1" {
		t.Errorf("manager UserID = %q", m.UserID())
	}

	if len(recorder.changes) != 1 || recorder.changes[0].UserID != "user-1" {
		t.Errorf("session change events = %+v", recorder.changes)
	}
}

func TestManager_SignInFailureLeavesNoSession(t *testing.T) {
	m, recorder := newTestManager(t, &fakeProvider{err: ErrInvalidCredentials})

	_, err := m.SignIn(context.Background(), "ash@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if m.Current() != nil {
		t.Error("session set after failed sign in")
	}
	if len(recorder.changes) != 0 {
		t.Errorf("events dispatched after failed sign in: %+v", recorder.changes)
	}
}

func TestManager_AnonymousSession(t *testing.T) {
	m, _ := newTestManager(t, &fakeProvider{})

	session, err := m.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("SignInAnonymously failed: %v", err)
	}
	if !session.Anonymous {
		t.Error("session not marked anonymous")
	}
}

func TestManager_SignOutDispatchesEmptyChange(t *testing.T) {
	m, recorder := newTestManager(t, &fakeProvider{})

	if _, err := m.SignIn(context.Background(), "ash@example.com", "pikachu"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	m.SignOut()

	if m.Current() != nil {
		t.Error("session still set after sign out")
	}
	if len(recorder.changes) != 2 {
		t.Fatalf("got %d session changes, want 2", len(recorder.changes))
	}
	if recorder.changes[1].UserID != "" {
		t.Errorf("logout change carries user id %q", recorder.changes[1].UserID)
	}

	// Signing out twice dispatches nothing further.
	m.SignOut()
	if len(recorder.changes) != 2 {
		t.Errorf("redundant sign out dispatched an event")
	}
}
