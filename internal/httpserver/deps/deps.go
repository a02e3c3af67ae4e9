package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/activity"
	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/eviction"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/rules"
	"github.com/redis/go-redis/v9"
)

// RulesStore persists rule sets replaced through the API
type RulesStore interface {
	SaveRules(ctx context.Context, rules []domain.Rule) error
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time      // for testing, defaults to time.Now
	AllowedHosts       []string              // Host headers allowed to access the server
	AllowedCIDRS       []string              // IPs allowed to access the API
	TrustProxy         bool                  // true if running behind a trusted reverse proxy
	EventsBurst        int                   // per-IP burst for tab event ingestion
	EventsRefillPerMin int                   // per-IP refill for tab event ingestion
	RedisClient        *redis.Client         // nil when persistence is disabled
	Activity           *activity.Store       // live tab state
	Coordinator        *eviction.Coordinator // eviction state machine, whitelist, history, options
	Resolver           *rules.Resolver       // active rule set
	RulesStore         RulesStore            // nil when persistence is disabled
	RulesFile          string                // rules file path, empty if rules come only from the API
	CycleTrigger       chan struct{}         // Channel to trigger an eviction cycle
	RulesReloadTrigger chan struct{}         // Channel to trigger a rules file reload (nil if no rules file)
}
