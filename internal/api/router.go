package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/gate"
	"github.com/starford/daymark/internal/journal"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(eng *engine.Service, g *gate.Gate, db journal.Ledger, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng, g, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Stamp journal and document views.
	r.Get("/documents", h.Recent)
	r.Get("/documents/*", h.Detail)

	// Explicit stamp triggers (manual, created, edited, template).
	r.Post("/stamp", h.Stamp)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
