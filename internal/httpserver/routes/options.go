package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/handlers"
)

func init() { Register(registerOptions) }

func registerOptions(r chi.Router, d deps.Deps) {
	api := protected(r, d)
	api.Get("/api/options", handlers.GetOptions(d))
	api.Patch("/api/options", handlers.PatchOptions(d))
}
