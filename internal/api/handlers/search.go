// Package handlers contains the HTTP handlers for the companion API.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pokevault/pokevault/internal/api/response"
	"github.com/pokevault/pokevault/internal/catalog"
	"github.com/pokevault/pokevault/internal/metrics"
	"github.com/pokevault/pokevault/internal/search"
)

// SearchHandler drives advanced search: it compiles posted filters into a
// catalog query, holds the active result session and grows it page by
// page. A new search supersedes the previous session.
type SearchHandler struct {
	paginator *search.Paginator
	metrics   *metrics.Collector
	logger    *slog.Logger

	mu      sync.Mutex
	session *search.Session
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(paginator *search.Paginator, collector *metrics.Collector, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{
		paginator: paginator,
		metrics:   collector,
		logger:    logger,
	}
}

// SearchResult is the wire form of a search session snapshot.
type SearchResult struct {
	Query      string         `json:"query"`
	Cards      []catalog.Card `json:"cards"`
	Page       int            `json:"page"`
	TotalCount int            `json:"totalCount"`
	HasMore    bool           `json:"hasMore"`
}

// Execute handles POST /api/v1/search. The body is a filter set; the
// response is page 1 of the matching cards.
func (h *SearchHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var filters search.FilterSet
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		response.BadRequest(w, fmt.Errorf("decode filters: %w", err))
		return
	}

	session, err := h.paginator.Execute(r.Context(), filters)
	if err != nil {
		h.logger.Warn("search failed", "error", err)
		response.FromError(w, err)
		return
	}

	h.mu.Lock()
	h.session = session
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordSearch()
	}
	response.Success(w, snapshotSession(session))
}

// LoadMore handles POST /api/v1/search/more. It appends the next page to
// the active session and returns the grown snapshot. Without an active
// session it is a 400; a response for a superseded session is a 409.
func (h *SearchHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	session := h.session
	h.mu.Unlock()

	if session == nil {
		response.BadRequest(w, fmt.Errorf("no active search session"))
		return
	}

	if err := h.paginator.LoadMore(r.Context(), session); err != nil {
		response.FromError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPageLoaded()
	}
	response.Success(w, snapshotSession(session))
}

func snapshotSession(s *search.Session) SearchResult {
	return SearchResult{
		Query:      s.Query(),
		Cards:      s.Cards(),
		Page:       s.Page(),
		TotalCount: s.TotalCount(),
		HasMore:    s.HasMore(),
	}
}
