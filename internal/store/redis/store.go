package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store persists eviction state as JSON blobs.
// Values have no TTL: the state lives until overwritten.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Snapshot is everything the store knows, as loaded at startup.
// A nil field means the key was never written.
type Snapshot struct {
	Whitelist []domain.WhitelistEntry
	History   []domain.EvictionRecord
	Options   *domain.Options
	Rules     []domain.Rule
	HasRules  bool // distinguishes "no rules saved" from "an empty rule set saved"
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveWhitelist replaces the stored whitelist
func (s *Store) SaveWhitelist(ctx context.Context, entries []domain.WhitelistEntry) error {
	if entries == nil {
		entries = []domain.WhitelistEntry{}
	}
	return s.setJSON(ctx, KeyWhitelist, entries)
}

// SaveHistory replaces the stored eviction history
func (s *Store) SaveHistory(ctx context.Context, records []domain.EvictionRecord) error {
	if records == nil {
		records = []domain.EvictionRecord{}
	}
	return s.setJSON(ctx, KeyHistory, records)
}

// SaveOptions replaces the stored options
func (s *Store) SaveOptions(ctx context.Context, opts domain.Options) error {
	return s.setJSON(ctx, KeyOptions, opts)
}

// SaveRules replaces the stored rule set
func (s *Store) SaveRules(ctx context.Context, rules []domain.Rule) error {
	if rules == nil {
		rules = []domain.Rule{}
	}
	return s.setJSON(ctx, KeyRules, rules)
}

// LoadWhitelist returns the stored whitelist, or nil if none was saved
func (s *Store) LoadWhitelist(ctx context.Context) ([]domain.WhitelistEntry, error) {
	var entries []domain.WhitelistEntry
	if _, err := s.getJSON(ctx, KeyWhitelist, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadHistory returns the stored eviction history, or nil if none was saved
func (s *Store) LoadHistory(ctx context.Context) ([]domain.EvictionRecord, error) {
	var records []domain.EvictionRecord
	if _, err := s.getJSON(ctx, KeyHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadOptions returns the stored options. The bool is false when none were saved.
func (s *Store) LoadOptions(ctx context.Context) (domain.Options, bool, error) {
	var opts domain.Options
	found, err := s.getJSON(ctx, KeyOptions, &opts)
	if err != nil || !found {
		return domain.Options{}, false, err
	}
	return opts, true, nil
}

// LoadRules returns the stored rule set. The bool is false when none was saved.
func (s *Store) LoadRules(ctx context.Context) ([]domain.Rule, bool, error) {
	var rules []domain.Rule
	found, err := s.getJSON(ctx, KeyRules, &rules)
	if err != nil || !found {
		return nil, false, err
	}
	return rules, true, nil
}

// LoadSnapshot fetches every key in one round trip.
// A corrupt value fails the whole load rather than silently resetting it.
func (s *Store) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(StateKeys()))
	for _, key := range StateKeys() {
		cmds[key] = pipe.Get(ctx, key)
	}
	// redis.Nil for missing keys is reported per command, not here
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("failed to load state: %w", err)
	}

	var snap Snapshot
	if _, err := decodeCmd(cmds[KeyWhitelist], &snap.Whitelist); err != nil {
		return Snapshot{}, err
	}
	if _, err := decodeCmd(cmds[KeyHistory], &snap.History); err != nil {
		return Snapshot{}, err
	}
	var opts domain.Options
	found, err := decodeCmd(cmds[KeyOptions], &opts)
	if err != nil {
		return Snapshot{}, err
	}
	if found {
		snap.Options = &opts
	}
	if snap.HasRules, err = decodeCmd(cmds[KeyRules], &snap.Rules); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Clear deletes every key the store owns
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, StateKeys()...).Err(); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	return decodeCmd(s.client.Get(ctx, key), dst)
}

func decodeCmd(cmd *redis.StringCmd, dst any) (bool, error) {
	key := cmd.Args()[1]
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %v: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %v: %w", key, err)
	}
	return true, nil
}
