// Package auth manages user sessions against an external identity
// provider and notifies the rest of the companion when the authenticated
// user changes.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrInvalidCredentials is returned when the identity provider rejects an
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session identifies an authenticated user. UserID is the stable
// identifier that scopes the remote shopping list.
type Session struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	token     string
}

// Provider is the identity-provider surface the session manager needs.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignInAnonymously(ctx context.Context) (*Session, error)
}

const defaultAuthTimeout = 10 * time.Second

// RESTConfig holds configuration for the identity-provider client.
type RESTConfig struct {
	// BaseURL is the identity API root.
	BaseURL string

	// APIKey is appended to each request as the `key` query parameter, the
	// way identity-toolkit style providers expect it.
	APIKey string

	Timeout time.Duration
}

// RESTProvider talks to an identity-toolkit style REST API:
//
//	POST /accounts:signInWithPassword?key=...
//	POST /accounts:signUp?key=...   (empty body for anonymous sessions)
type RESTProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRESTProvider creates an identity-provider client.
func NewRESTProvider(config RESTConfig) (*RESTProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = defaultAuthTimeout
	}
	return &RESTProvider{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

type credentialsRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type sessionResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

// SignIn authenticates an existing account.
func (p *RESTProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := p.post(ctx, "accounts:signInWithPassword", credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &Session{UserID: resp.LocalID, Email: resp.Email, token: resp.IDToken}, nil
}

// SignUp registers a new account and signs it in.
func (p *RESTProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	resp, err := p.post(ctx, "accounts:signUp", credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return &Session{UserID: resp.LocalID, Email: resp.Email, token: resp.IDToken}, nil
}

// SignInAnonymously creates an anonymous session.
func (p *RESTProvider) SignInAnonymously(ctx context.Context) (*Session, error) {
	resp, err := p.post(ctx, "accounts:signUp", credentialsRequest{ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("anonymous sign in: %w", err)
	}
	return &Session{UserID: resp.LocalID, Anonymous: true, token: resp.IDToken}, nil
}

func (p *RESTProvider) post(ctx context.Context, endpoint string, body credentialsRequest) (*sessionResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", p.baseURL, endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(data))
	}

	var session sessionResponse
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if session.LocalID == "" {
		return nil, fmt.Errorf("identity provider returned no user id")
	}
	return &session, nil
}
