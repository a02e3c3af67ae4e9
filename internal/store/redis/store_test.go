package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStore_EmptySnapshot(t *testing.T) {
	s, _ := newTestStore(t)

	snap, err := s.LoadSnapshot(context.Background())

	require.NoError(t, err)
	require.Nil(t, snap.Whitelist)
	require.Nil(t, snap.History)
	require.Nil(t, snap.Options)
	require.False(t, snap.HasRules)
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	entries := []domain.WhitelistEntry{
		{Type: domain.WhitelistDomain, Value: "example.com", CreatedAt: at},
		{Type: domain.WhitelistRegex, Value: `^https://.*\.internal/`, Label: "intranet", CreatedAt: at},
	}
	history := []domain.EvictionRecord{
		{TabID: 4, Title: "feed", URL: "https://x.com/home", ClosedAt: at, MinutesInactive: 42},
	}
	opts := domain.DefaultOptions()
	opts.Enabled = true
	rules := []domain.Rule{{
		ID:        "r1",
		Name:      "social cap",
		Condition: domain.Condition{Type: domain.ConditionCategoryMatch, Operator: domain.OperatorEquals, Value: "social"},
		Action:    domain.Action{Type: domain.ActionLimitCount, Value: 3},
		Enabled:   true,
	}}

	require.NoError(t, s.SaveWhitelist(ctx, entries))
	require.NoError(t, s.SaveHistory(ctx, history))
	require.NoError(t, s.SaveOptions(ctx, opts))
	require.NoError(t, s.SaveRules(ctx, rules))

	// No expiry on state keys
	require.Zero(t, mr.TTL(KeyHistory))

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, entries, snap.Whitelist)
	require.Equal(t, history, snap.History)
	require.NotNil(t, snap.Options)
	require.Equal(t, opts, *snap.Options)
	require.True(t, snap.HasRules)
	require.Equal(t, rules, snap.Rules)

	gotOpts, found, err := s.LoadOptions(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, opts, gotOpts)

	gotRules, found, err := s.LoadRules(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, rules, gotRules)
}

func TestStore_EmptyRuleSetIsKept(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRules(ctx, nil))
	require.NoError(t, s.SaveHistory(ctx, nil))

	raw, err := mr.Get(KeyRules)
	require.NoError(t, err)
	require.Equal(t, "[]", raw)

	rules, found, err := s.LoadRules(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Empty(t, rules)

	history, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestStore_CorruptValue(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(KeyWhitelist, "{not json"))

	_, err := s.LoadWhitelist(ctx)
	require.ErrorContains(t, err, KeyWhitelist)

	_, err = s.LoadSnapshot(ctx)
	require.Error(t, err)
}

func TestStore_Clear(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveOptions(ctx, domain.DefaultOptions()))
	require.NoError(t, s.Clear(ctx))
	require.False(t, mr.Exists(KeyOptions))

	_, found, err := s.LoadOptions(ctx)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStore_Ping(t *testing.T) {
	s, mr := newTestStore(t)

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	require.Error(t, s.Ping(context.Background()))
}
