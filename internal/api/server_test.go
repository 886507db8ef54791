package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pokevault/pokevault/internal/auth"
	"github.com/pokevault/pokevault/internal/catalog"
	"github.com/pokevault/pokevault/internal/docstore"
	"github.com/pokevault/pokevault/internal/events"
	"github.com/pokevault/pokevault/internal/list"
	"github.com/pokevault/pokevault/internal/metrics"
	"github.com/pokevault/pokevault/internal/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	cards []catalog.Card
	sets  []catalog.Set
}

func (f *fakeCatalog) SearchCards(ctx context.Context, query string, page, pageSize int) (*catalog.ResultPage, error) {
	start := (page - 1) * pageSize
	if start > len(f.cards) {
		start = len(f.cards)
	}
	end := start + pageSize
	if end > len(f.cards) {
		end = len(f.cards)
	}
	return &catalog.ResultPage{
		Items:      f.cards[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(f.cards),
	}, nil
}

func (f *fakeCatalog) GetCards(ctx context.Context) ([]catalog.Card, error) {
	return f.cards, nil
}

func (f *fakeCatalog) GetCard(ctx context.Context, id string) (*catalog.Card, error) {
	for i := range f.cards {
		if f.cards[i].ID == id {
			return &f.cards[i], nil
		}
	}
	return nil, &catalog.NotFoundError{URL: "/cards/" + id}
}

func (f *fakeCatalog) GetSets(ctx context.Context) ([]catalog.Set, error) {
	return f.sets, nil
}

type fakeProvider struct {
	password string
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if password != f.password {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.Session{UserID: "user-1", Email: email}, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	return &auth.Session{UserID: "user-2", Email: email}, nil
}

func (f *fakeProvider) SignInAnonymously(ctx context.Context) (*auth.Session, error) {
	return &auth.Session{UserID: "anon-1", Anonymous: true}, nil
}

func testCards(n int) []catalog.Card {
	cards := make([]catalog.Card, n)
	for i := range cards {
		cards[i] = catalog.Card{
			ID:   fmt.Sprintf("base1-%d", i+1),
			Name: fmt.Sprintf("Card %d", i+1),
		}
	}
	return cards
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	logger := testLogger()
	fake := &fakeCatalog{
		cards: testCards(70),
		sets:  []catalog.Set{{ID: "base1", Name: "Base"}},
	}

	paginator, err := search.NewPaginator(search.PaginatorConfig{
		Searcher: fake,
		PageSize: 50,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("NewPaginator failed: %v", err)
	}

	store := docstore.NewMemoryStore()
	engine, err := list.NewEngine(list.EngineConfig{Store: store, Logger: logger})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	dispatcher := events.NewDispatcher(logger)
	manager, err := auth.NewManager(auth.ManagerConfig{
		Provider:   &fakeProvider{password: "pikachu"},
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	server, err := NewServer(Config{Port: 9980}, Dependencies{
		Paginator:  paginator,
		Catalog:    fake,
		Engine:     engine,
		Store:      store,
		Auth:       manager,
		Dispatcher: dispatcher,
		Metrics:    metrics.NewCollector(registry),
		Registry:   registry,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	go server.wsHub.Run()
	t.Cleanup(server.wsHub.Stop)
	t.Cleanup(server.bridge.stop)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return server, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestServer_SearchAndLoadMore(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/search", map[string]string{"selectedType": "Fire"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}

	var result struct {
		Query      string         `json:"query"`
		Cards      []catalog.Card `json:"cards"`
		Page       int            `json:"page"`
		TotalCount int            `json:"totalCount"`
		HasMore    bool           `json:"hasMore"`
	}
	decodeData(t, resp, &result)

	if result.Query != "types:Fire" {
		t.Errorf("query = %q", result.Query)
	}
	if len(result.Cards) != 50 || !result.HasMore {
		t.Fatalf("page 1: %d cards, hasMore=%v", len(result.Cards), result.HasMore)
	}

	resp = postJSON(t, ts.URL+"/api/v1/search/more", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load more status = %d", resp.StatusCode)
	}
	decodeData(t, resp, &result)

	if len(result.Cards) != 70 || result.HasMore {
		t.Errorf("after load more: %d cards, hasMore=%v", len(result.Cards), result.HasMore)
	}
	if result.Page != 2 {
		t.Errorf("page = %d", result.Page)
	}
}

func TestServer_SearchEmptyFiltersIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/search", map[string]string{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServer_LoadMoreWithoutSessionIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/search/more", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServer_GetCardNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/cards/no-such-card")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_ListRequiresSession(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/list")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestServer_LoginRejectsBadPassword(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/auth/login", map[string]string{
		"email":    "ash@example.com",
		"password": "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestServer_ListLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/auth/anonymous", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous sign-in status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	card := catalog.Card{ID: "base1-4", Name: "Charizard"}
	resp = postJSON(t, ts.URL+"/api/v1/list", map[string]any{"card": card})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Same card again is a conflict.
	resp = postJSON(t, ts.URL+"/api/v1/list", map[string]any{"card": card})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate add status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	getResp, err := http.Get(ts.URL + "/api/v1/list")
	if err != nil {
		t.Fatalf("GET list failed: %v", err)
	}
	var items []list.Item
	decodeData(t, getResp, &items)
	if len(items) != 1 || items[0].CardAPIID != "base1-4" {
		t.Fatalf("items = %+v", items)
	}

	resp = postJSON(t, ts.URL+"/api/v1/list/"+items[0].ID+"/toggle", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/list/"+items[0].ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}

	getResp, err = http.Get(ts.URL + "/api/v1/list")
	if err != nil {
		t.Fatalf("GET list failed: %v", err)
	}
	items = nil
	decodeData(t, getResp, &items)
	if len(items) != 0 {
		t.Fatalf("items after delete = %+v", items)
	}
}

func TestServer_WebSocketReceivesListUpdates(t *testing.T) {
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	resp := postJSON(t, ts.URL+"/api/v1/auth/anonymous", nil)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/v1/list", map[string]any{
		"card": catalog.Card{ID: "base1-4", Name: "Charizard"},
	})
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	sawSession, sawList := false, false
	for !sawSession || !sawList {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed (session=%v list=%v): %v", sawSession, sawList, err)
		}
		var event struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		switch event.Type {
		case events.TypeSessionChanged:
			sawSession = true
		case events.TypeListUpdated:
			sawList = true
		}
	}
}

func TestServer_LogoutTearsDownSubscription(t *testing.T) {
	server, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/auth/anonymous", nil)
	resp.Body.Close()

	server.bridge.mu.Lock()
	sub := server.bridge.sub
	server.bridge.mu.Unlock()
	if sub == nil {
		t.Fatal("no subscription after sign-in")
	}

	resp = postJSON(t, ts.URL+"/api/v1/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	server.bridge.mu.Lock()
	cleared := server.bridge.sub == nil
	server.bridge.mu.Unlock()
	if !cleared {
		t.Error("subscription not cleared on logout")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sub.State() != list.StateUnsubscribed {
		if time.Now().After(deadline) {
			t.Fatalf("subscription state = %v, want unsubscribed", sub.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
