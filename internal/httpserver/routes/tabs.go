package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/mw"
)

func init() { Register(registerTabs) }

func registerTabs(r chi.Router, d deps.Deps) {
	api := protected(r, d)

	// The bridge streams events, so it gets its own bucket per client IP
	api.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.EventsBurst,
		RefillPerIPPerMin: d.EventsRefillPerMin,
		MaxEntries:        1024,
		SweepInterval:     time.Minute,
		IdleTTL:           10 * time.Minute,
		TrustProxy:        d.TrustProxy,
		Logger:            d.Logger,
	})).Post("/api/tabs/events", handlers.TabEvents(d))

	api.Get("/api/tabs/inactive", handlers.Inactive(d))
	api.Get("/api/tabs/summary", handlers.Summary(d))
	api.Post("/api/tabs/admit", handlers.Admit(d))
}
