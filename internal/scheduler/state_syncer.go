package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	redisstore "github.com/MrSnakeDoc/tabwarden/internal/store/redis"
)

// SnapshotLoader reads persisted state
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (redisstore.Snapshot, error)
}

// StateRestorer accepts persisted coordinator state
type StateRestorer interface {
	RestoreWhitelist(entries []domain.WhitelistEntry) int
	RestoreHistory(records []domain.EvictionRecord) int
	RestoreOptions(o domain.Options) error
}

// StateSyncer restores whitelist, history, options and rules from Redis on startup
type StateSyncer struct {
	store       SnapshotLoader
	coordinator StateRestorer
	rules       RuleSink
	logger      logger.Logger
}

// NewStateSyncer creates a new state syncer
func NewStateSyncer(
	store SnapshotLoader,
	coordinator StateRestorer,
	sink RuleSink,
	log logger.Logger,
) *StateSyncer {
	return &StateSyncer{
		store:       store,
		coordinator: coordinator,
		rules:       sink,
		logger:      log,
	}
}

// Sync loads persisted state into memory. Missing keys keep the defaults.
func (ss *StateSyncer) Sync(ctx context.Context) error {
	ss.logger.Info("restoring eviction state from redis")

	snap, err := ss.store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	whitelisted := ss.coordinator.RestoreWhitelist(snap.Whitelist)
	history := ss.coordinator.RestoreHistory(snap.History)

	if snap.Options != nil {
		if err := ss.coordinator.RestoreOptions(*snap.Options); err != nil {
			ss.logger.Warn("ignoring persisted options",
				logger.Error(err))
		}
	}

	if snap.HasRules {
		ss.rules.SetRules(snap.Rules)
	}

	ss.logger.Info("restored eviction state from redis",
		logger.Int("whitelist_entries", whitelisted),
		logger.Int("history_records", history),
		logger.Bool("options", snap.Options != nil),
		logger.Int("rules", len(snap.Rules)))

	return nil
}
