package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	redisstore "github.com/MrSnakeDoc/tabwarden/internal/store/redis"
)

type recordingRestorer struct {
	whitelist []domain.WhitelistEntry
	history   []domain.EvictionRecord
	options   *domain.Options
}

func (r *recordingRestorer) RestoreWhitelist(entries []domain.WhitelistEntry) int {
	r.whitelist = entries
	return len(entries)
}

func (r *recordingRestorer) RestoreHistory(records []domain.EvictionRecord) int {
	r.history = records
	return len(records)
}

func (r *recordingRestorer) RestoreOptions(o domain.Options) error {
	r.options = &o
	return nil
}

func newSyncerStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewStore(client), mr
}

func TestStateSyncer_Sync(t *testing.T) {
	store, _ := newSyncerStore(t)
	ctx := context.Background()

	opts := domain.DefaultOptions()
	opts.Enabled = true
	_ = store.SaveWhitelist(ctx, []domain.WhitelistEntry{{Type: domain.WhitelistDomain, Value: "example.com"}})
	_ = store.SaveOptions(ctx, opts)
	_ = store.SaveRules(ctx, []domain.Rule{})

	restorer := &recordingRestorer{}
	sink := &recordingSink{}
	syncer := NewStateSyncer(store, restorer, sink, logger.New("error", false))

	if err := syncer.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(restorer.whitelist) != 1 {
		t.Errorf("restored %d whitelist entries, want 1", len(restorer.whitelist))
	}
	if restorer.options == nil || !restorer.options.Enabled {
		t.Errorf("restored options = %+v, want enabled", restorer.options)
	}
	// An empty saved rule set is still applied
	if len(sink.calls) != 1 {
		t.Errorf("SetRules calls = %d, want 1", len(sink.calls))
	}
}

func TestStateSyncer_EmptyRedis(t *testing.T) {
	store, _ := newSyncerStore(t)
	restorer := &recordingRestorer{}
	sink := &recordingSink{}

	if err := NewStateSyncer(store, restorer, sink, logger.New("error", false)).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if restorer.options != nil {
		t.Errorf("options restored from empty redis: %+v", restorer.options)
	}
	if len(sink.calls) != 0 {
		t.Errorf("SetRules calls = %d, want 0", len(sink.calls))
	}
}

func TestStateSyncer_RedisDown(t *testing.T) {
	store, mr := newSyncerStore(t)
	mr.Close()

	err := NewStateSyncer(store, &recordingRestorer{}, &recordingSink{}, logger.New("error", false)).Sync(context.Background())
	if err == nil {
		t.Fatal("Sync() error = nil, want connection error")
	}
}
