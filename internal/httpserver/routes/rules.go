package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/handlers"
)

func init() { Register(registerRules) }

func registerRules(r chi.Router, d deps.Deps) {
	api := protected(r, d)
	api.Get("/api/rules", handlers.ListRules(d))
	api.Put("/api/rules", handlers.ReplaceRules(d))
	api.Get("/api/rules/limits", handlers.RuleLimits(d))
	api.Post("/api/rules/reload", handlers.ReloadRules(d))
}
