package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/handlers"
)

func init() { Register(registerEviction) }

func registerEviction(r chi.Router, d deps.Deps) {
	api := protected(r, d)

	api.Get("/api/suggestions", handlers.Suggestions(d))

	api.Get("/api/closed", handlers.Closed(d))
	api.Post("/api/closed/undo", handlers.Undo(d))

	api.Get("/api/pending", handlers.Pending(d))
	api.Post("/api/pending/cancel", handlers.CancelPending(d))
	api.Post("/api/pending/evict-now", handlers.EvictNow(d))

	api.Post("/api/cycle", handlers.Cycle(d))
}
