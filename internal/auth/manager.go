package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pokevault/pokevault/internal/events"
)

// ManagerConfig configures a session Manager.
type ManagerConfig struct {
	Provider   Provider
	Dispatcher *events.Dispatcher
	Logger     *slog.Logger
}

// Manager holds the current session and dispatches a session-changed
// event on every transition, so consumers such as the list subscription
// can tear down state belonging to the previous user.
type Manager struct {
	provider   Provider
	dispatcher *events.Dispatcher
	logger     *slog.Logger

	mu      sync.RWMutex
	session *Session
}

// NewManager creates a session manager.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if config.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Manager{
		provider:   config.Provider,
		dispatcher: config.Dispatcher,
		logger:     config.Logger,
	}, nil
}

// Current returns the active session, or nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// UserID returns the active user id, or the empty string when signed out.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.UserID
}

// SignIn authenticates with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.setSession(session)
	return session, nil
}

// SignUp registers a new account and signs it in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*Session, error) {
	session, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.setSession(session)
	return session, nil
}

// SignInAnonymously starts an anonymous session.
func (m *Manager) SignInAnonymously(ctx context.Context) (*Session, error) {
	session, err := m.provider.SignInAnonymously(ctx)
	if err != nil {
		return nil, err
	}
	m.setSession(session)
	return session, nil
}

// SignOut clears the session. Signing out while signed out is a no-op.
func (m *Manager) SignOut() {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.mu.Unlock()

	m.logger.Info("signed out")
	m.dispatcher.Dispatch(events.Event{
		Type:    events.TypeSessionChanged,
		Payload: &events.SessionChange{},
	})
}

func (m *Manager) setSession(session *Session) {
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	m.logger.Info("session established",
		"userID", session.UserID,
		"anonymous", session.Anonymous)
	m.dispatcher.Dispatch(events.Event{
		Type: events.TypeSessionChanged,
		Payload: &events.SessionChange{
			UserID:    session.UserID,
			Email:     session.Email,
			Anonymous: session.Anonymous,
		},
	})
}
