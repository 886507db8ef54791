package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pokevault/pokevault/internal/api/response"
	"github.com/pokevault/pokevault/internal/metrics"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)

	if s.registry != nil {
		s.router.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))
	}

	// WebSocket endpoint (no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Advanced search
		r.Post("/search", s.searchHandler.Execute)
		r.Post("/search/more", s.searchHandler.LoadMore)

		// Catalog browsing
		r.Get("/cards", s.cardsHandler.GetCards)
		r.Get("/cards/{cardID}", s.cardsHandler.GetCard)
		r.Get("/sets", s.cardsHandler.GetSets)

		// Shopping list
		r.Route("/list", func(r chi.Router) {
			r.Get("/", s.listHandler.GetItems)
			r.Post("/", s.listHandler.AddItem)
			r.Delete("/{itemID}", s.listHandler.RemoveItem)
			r.Post("/{itemID}/toggle", s.listHandler.TogglePurchased)
		})

		// Sessions
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.authHandler.Login)
			r.Post("/register", s.authHandler.Register)
			r.Post("/anonymous", s.authHandler.Anonymous)
			r.Post("/logout", s.authHandler.Logout)
		})
	})
}

// healthCheck reports server liveness and the connected client count.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.wsHub.ClientCount(),
	})
}
