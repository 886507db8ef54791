package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pokevault/pokevault/internal/api/response"
	"github.com/pokevault/pokevault/internal/catalog"
	"github.com/pokevault/pokevault/internal/list"
	"github.com/pokevault/pokevault/internal/metrics"
)

// SessionSource supplies the authenticated user id. All list routes are
// scoped to it; requests without a session are rejected.
type SessionSource interface {
	UserID() string
}

// ListHandler serves the shopping-list routes. Mutations go through the
// sync engine; reads go straight to the store and are sorted the same way
// live snapshots are.
type ListHandler struct {
	engine  *list.Engine
	store   list.Store
	session SessionSource
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewListHandler creates a ListHandler.
func NewListHandler(engine *list.Engine, store list.Store, session SessionSource, collector *metrics.Collector, logger *slog.Logger) *ListHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListHandler{
		engine:  engine,
		store:   store,
		session: session,
		metrics: collector,
		logger:  logger,
	}
}

func (h *ListHandler) userID(w http.ResponseWriter) (string, bool) {
	userID := h.session.UserID()
	if userID == "" {
		response.Unauthorized(w, fmt.Errorf("not signed in"))
		return "", false
	}
	return userID, true
}

// GetItems handles GET /api/v1/list: the full list, unpurchased first,
// newest first within each group.
func (h *ListHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w)
	if !ok {
		return
	}

	items, err := h.store.List(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, list.SortItems(items))
}

// addItemRequest is the body of POST /api/v1/list.
type addItemRequest struct {
	Card *catalog.Card `json:"card"`
}

// AddItem handles POST /api/v1/list. Adding a card that is already on the
// list is a 409.
func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("decode card: %w", err))
		return
	}
	if req.Card == nil || req.Card.ID == "" {
		response.BadRequest(w, fmt.Errorf("card is required"))
		return
	}

	if err := h.engine.Add(r.Context(), userID, req.Card); err != nil {
		if h.metrics != nil && errors.Is(err, list.ErrDuplicate) {
			h.metrics.RecordDuplicateRejected()
		}
		response.FromError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordListMutation("add")
	}
	response.Created(w, nil)
}

// RemoveItem handles DELETE /api/v1/list/{itemID}.
func (h *ListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	if err := h.engine.Remove(r.Context(), userID, itemID); err != nil {
		response.FromError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordListMutation("remove")
	}
	response.NoContent(w)
}

// TogglePurchased handles POST /api/v1/list/{itemID}/toggle.
func (h *ListHandler) TogglePurchased(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	if err := h.engine.TogglePurchased(r.Context(), userID, itemID); err != nil {
		response.FromError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordListMutation("toggle")
	}
	response.NoContent(w)
}
