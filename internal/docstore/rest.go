package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pokevault/pokevault/internal/list"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultPollInterval = 2 * time.Second
)

// RESTConfig holds configuration for the remote document-store client.
type RESTConfig struct {
	// BaseURL is the store API root (e.g. "https://store.example.com").
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// PollInterval is how often a watch re-reads the collection. The store
	// has no push channel, so live subscriptions are served by
	// poll-and-diff: every mutation is observed within one interval.
	PollInterval time.Duration

	Logger *slog.Logger
}

// RESTStore is a list.Store backed by a remote document store exposing
// per-user sub-collections over HTTP JSON:
//
//	GET    /users/{uid}/shopping-list[?cardApiId=...]
//	POST   /users/{uid}/shopping-list
//	PUT    /users/{uid}/shopping-list/{id}
//	DELETE /users/{uid}/shopping-list/{id}
type RESTStore struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewRESTStore creates a remote document-store client.
func NewRESTStore(config RESTConfig) (*RESTStore, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.PollInterval == 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RESTStore{
		baseURL:      config.BaseURL,
		apiKey:       config.APIKey,
		pollInterval: config.PollInterval,
		httpClient:   &http.Client{Timeout: config.Timeout},
		logger:       config.Logger,
	}, nil
}

type itemListEnvelope struct {
	Data []list.Item `json:"data"`
}

type insertResponse struct {
	ID string `json:"id"`
}

// List returns every item in the user's collection.
func (s *RESTStore) List(ctx context.Context, userID string) ([]list.Item, error) {
	u := s.collectionURL(userID)

	var envelope itemListEnvelope
	if err := s.do(ctx, http.MethodGet, u, nil, &envelope); err != nil {
		return nil, fmt.Errorf("list items for user %s: %w", userID, err)
	}
	return envelope.Data, nil
}

// Get returns a single item by document id.
func (s *RESTStore) Get(ctx context.Context, userID, itemID string) (*list.Item, error) {
	u := s.documentURL(userID, itemID)

	var item list.Item
	if err := s.do(ctx, http.MethodGet, u, nil, &item); err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return &item, nil
}

// FindByCardID performs an equality-filtered read on cardApiId.
func (s *RESTStore) FindByCardID(ctx context.Context, userID, cardAPIID string) (*list.Item, error) {
	u := s.collectionURL(userID) + "?cardApiId=" + url.QueryEscape(cardAPIID)

	var envelope itemListEnvelope
	if err := s.do(ctx, http.MethodGet, u, nil, &envelope); err != nil {
		return nil, fmt.Errorf("find item by card %s: %w", cardAPIID, err)
	}
	if len(envelope.Data) == 0 {
		return nil, nil
	}
	return &envelope.Data[0], nil
}

// Insert creates a new document and returns the store-assigned id.
func (s *RESTStore) Insert(ctx context.Context, userID string, item list.Item) (string, error) {
	u := s.collectionURL(userID)

	var resp insertResponse
	if err := s.do(ctx, http.MethodPost, u, item, &resp); err != nil {
		return "", fmt.Errorf("insert item for user %s: %w", userID, err)
	}
	return resp.ID, nil
}

// Update replaces the document identified by item.ID.
func (s *RESTStore) Update(ctx context.Context, userID string, item list.Item) error {
	u := s.documentURL(userID, item.ID)

	if err := s.do(ctx, http.MethodPut, u, item, nil); err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes the document with the given id.
func (s *RESTStore) Delete(ctx context.Context, userID, itemID string) error {
	u := s.documentURL(userID, itemID)

	if err := s.do(ctx, http.MethodDelete, u, nil, nil); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return nil
}

// Watch starts a poll-and-diff watch on the user's collection. The first
// snapshot is delivered immediately; afterwards the collection is re-read
// every poll interval and a snapshot is emitted whenever its contents
// changed. A read failure terminates the watch with that error.
func (s *RESTStore) Watch(ctx context.Context, userID string) (list.Watcher, error) {
	// Initial read up front so a dead store fails Subscribe, not the
	// first poll.
	initial, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	w := &pollWatcher{
		snapshots: make(chan []list.Item, 1),
		done:      make(chan struct{}),
	}

	go w.run(ctx, s, userID, initial)
	return w, nil
}

func (s *RESTStore) collectionURL(userID string) string {
	return fmt.Sprintf("%s/users/%s/shopping-list", s.baseURL, url.PathEscape(userID))
}

func (s *RESTStore) documentURL(userID, itemID string) string {
	return fmt.Sprintf("%s/%s", s.collectionURL(userID), url.PathEscape(itemID))
}

// do performs one JSON request. A nil body sends no payload; a nil result
// discards the response body.
func (s *RESTStore) do(ctx context.Context, method, url string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return list.ErrItemNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store returned status %d: %s", resp.StatusCode, string(payload))
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return fmt.Errorf("parse JSON response: %w", err)
	}
	return nil
}

// pollWatcher re-reads the collection on a ticker and emits a snapshot
// whenever the contents changed since the last read.
type pollWatcher struct {
	snapshots chan []list.Item
	done      chan struct{}
	doneOnce  sync.Once

	err error // written once by run before close(snapshots)
}

func (w *pollWatcher) Snapshots() <-chan []list.Item { return w.snapshots }

func (w *pollWatcher) Err() error { return w.err }

func (w *pollWatcher) Close() {
	w.doneOnce.Do(func() { close(w.done) })
}

func (w *pollWatcher) run(ctx context.Context, store *RESTStore, userID string, initial []list.Item) {
	defer close(w.snapshots)

	last := fingerprint(initial)
	if !w.emit(initial) {
		return
	}

	ticker := time.NewTicker(store.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			w.err = ctx.Err()
			return
		case <-ticker.C:
			items, err := store.List(ctx, userID)
			if err != nil {
				store.logger.Warn("list watch poll failed",
					"userID", userID,
					"error", err)
				w.err = err
				return
			}

			fp := fingerprint(items)
			if fp == last {
				continue
			}
			last = fp

			if !w.emit(items) {
				return
			}
		}
	}
}

// emit delivers a snapshot unless the watcher was closed, displacing an
// undelivered older one so a slow consumer always observes the latest
// state. The channel has capacity 1 and run is its only sender.
func (w *pollWatcher) emit(items []list.Item) bool {
	select {
	case <-w.done:
		return false
	default:
	}

	select {
	case w.snapshots <- items:
	default:
		select {
		case <-w.snapshots:
		default:
		}
		select {
		case w.snapshots <- items:
		default:
		}
	}
	return true
}

// fingerprint reduces a snapshot to a comparable string. Snapshot order
// from the store is stable, so serialized equality detects any mutation.
func fingerprint(items []list.Item) string {
	payload, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(payload)
}
