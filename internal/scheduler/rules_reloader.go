package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/rules"
)

// DefaultRulesReloadInterval is how often the rules file is checked for changes
const DefaultRulesReloadInterval = 30 * time.Second

// RuleSink receives reloaded rule sets
type RuleSink interface {
	SetRules(rules []domain.Rule)
}

// RuleSaver persists an applied rule set
type RuleSaver interface {
	SaveRules(ctx context.Context, rules []domain.Rule) error
}

// RulesReloader applies the rules file to the resolver whenever its
// content changes. Rules replaced through the API stay in effect until
// the file changes again or a manual reload is requested.
type RulesReloader struct {
	loader        *rules.Loader
	sink          RuleSink
	store         RuleSaver
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu      sync.Mutex
	applied []domain.Rule
	loaded  bool
	lastRun time.Time
}

// NewRulesReloader creates a new rules reloader. store may be nil.
func NewRulesReloader(
	ruleFile string,
	sink RuleSink,
	store RuleSaver,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RulesReloader {
	if interval <= 0 {
		interval = DefaultRulesReloadInterval
	}
	if manualTrigger == nil {
		manualTrigger = make(chan struct{}, 1)
	}
	return &RulesReloader{
		loader:        rules.NewLoader(ruleFile),
		sink:          sink,
		store:         store,
		logger:        log.With(logger.Component("rules_reloader")),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the file once and starts the periodic reload.
// A missing or broken file at startup is logged, not fatal: persisted
// rules stay in effect.
func (rr *RulesReloader) Start(ctx context.Context) error {
	if err := rr.Reload(ctx, false); err != nil {
		rr.logger.Warn("initial rules load failed, keeping current rules",
			logger.String("file", rr.loader.Path()),
			logger.Error(err))
	}

	ticker := time.NewTicker(rr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := rr.Reload(ctx, false); err != nil {
					rr.logger.Error("failed to reload rules",
						logger.Error(err))
				}
			case <-rr.manualTrigger:
				rr.logger.Info("manual rules reload triggered")
				if err := rr.Reload(ctx, true); err != nil {
					rr.logger.Error("failed to reload rules",
						logger.Error(err))
				}
			case <-rr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (rr *RulesReloader) Stop() {
	rr.stopOnce.Do(func() { close(rr.stopCh) })
}

// LastRun returns when the file was last read successfully
func (rr *RulesReloader) LastRun() time.Time {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.lastRun
}

// Reload reads the rules file and applies it if it changed since the
// last apply, or unconditionally when force is set.
// On error the current rules are left untouched.
func (rr *RulesReloader) Reload(ctx context.Context, force bool) error {
	loaded, err := rr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	rr.mu.Lock()
	rr.lastRun = time.Now()
	unchanged := rr.loaded && slices.Equal(rr.applied, loaded)
	if unchanged && !force {
		rr.mu.Unlock()
		rr.logger.Debug("rules file unchanged")
		return nil
	}
	rr.applied = loaded
	rr.loaded = true
	rr.mu.Unlock()

	rr.sink.SetRules(loaded)
	rr.logger.Info("rules applied from file",
		logger.String("file", rr.loader.Path()),
		logger.Int("count", len(loaded)))

	// Memory is the primary source; persistence is best effort
	if rr.store != nil {
		if err := rr.store.SaveRules(ctx, loaded); err != nil {
			rr.logger.Warn("failed to save rules to redis",
				logger.Error(err))
		}
	}

	return nil
}
