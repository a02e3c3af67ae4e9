package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/handlers"
)

func init() { Register(registerWhitelist) }

func registerWhitelist(r chi.Router, d deps.Deps) {
	api := protected(r, d)
	api.Get("/api/whitelist", handlers.ListWhitelist(d))
	api.Post("/api/whitelist", handlers.AddWhitelist(d))
	api.Delete("/api/whitelist", handlers.RemoveWhitelist(d))
}
