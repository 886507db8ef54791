package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pokevault/pokevault/internal/api/response"
	"github.com/pokevault/pokevault/internal/catalog"
	"github.com/pokevault/pokevault/internal/metrics"
)

// CatalogService is the slice of the catalog gateway the card handlers
// need.
type CatalogService interface {
	GetCards(ctx context.Context) ([]catalog.Card, error)
	GetCard(ctx context.Context, id string) (*catalog.Card, error)
	GetSets(ctx context.Context) ([]catalog.Set, error)
}

// CardsHandler serves catalog browsing: the default card listing, single
// card lookups and the set index.
type CardsHandler struct {
	catalog CatalogService
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewCardsHandler creates a CardsHandler.
func NewCardsHandler(service CatalogService, collector *metrics.Collector, logger *slog.Logger) *CardsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardsHandler{
		catalog: service,
		metrics: collector,
		logger:  logger,
	}
}

// GetCards handles GET /api/v1/cards: the unfiltered first page of the
// catalog, used for the browse view.
func (h *CardsHandler) GetCards(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cards, err := h.catalog.GetCards(r.Context())
	h.observe("cards", start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, cards)
}

// GetCard handles GET /api/v1/cards/{cardID}.
func (h *CardsHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	start := time.Now()
	card, err := h.catalog.GetCard(r.Context(), cardID)
	h.observe("card", start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, card)
}

// GetSets handles GET /api/v1/sets. Sets arrive newest release first.
func (h *CardsHandler) GetSets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sets, err := h.catalog.GetSets(r.Context())
	h.observe("sets", start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, sets)
}

func (h *CardsHandler) observe(endpoint string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordCatalogRequest(endpoint, time.Since(start))
	if err != nil {
		h.metrics.RecordCatalogError()
	}
}
