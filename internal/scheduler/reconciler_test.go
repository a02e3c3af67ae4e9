package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/tabwarden/internal/activity"
	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/tabs"
)

type listOnlyAPI struct {
	tabs []domain.Tab
	err  error
}

func (a *listOnlyAPI) ListResources(context.Context) ([]domain.Tab, error) {
	return a.tabs, a.err
}

func (a *listOnlyAPI) CloseResources(context.Context, []int) (tabs.CloseResult, error) {
	return tabs.CloseResult{}, nil
}

func (a *listOnlyAPI) CreateResource(context.Context, string, bool) (domain.Tab, error) {
	return domain.Tab{}, nil
}

func TestReconciler_Reconcile(t *testing.T) {
	store := activity.NewStore()
	store.Observe(domain.Tab{ID: 1, WindowID: 1, URL: "https://example.com/a"})
	store.Observe(domain.Tab{ID: 2, WindowID: 1, URL: "https://example.com/gone"})

	api := &listOnlyAPI{tabs: []domain.Tab{
		{ID: 1, WindowID: 1, URL: "https://example.com/a", Active: true, Pinned: true},
		{ID: 3, WindowID: 2, URL: "https://github.com/new"},
		{ID: 0, URL: "https://invalid.example"},
	}}
	rc := NewReconciler(api, store, logger.New("error", false), 0)

	stats, err := rc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	want := ReconcileStats{Listed: 3, Added: 1, Removed: 1, Refocused: 1, Estimated: 2}
	if stats != want {
		t.Errorf("Reconcile() = %+v, want %+v", stats, want)
	}

	if _, ok := store.Find(2); ok {
		t.Error("vanished tab 2 is still tracked")
	}
	tab, ok := store.Find(1)
	if !ok || !tab.Active || !tab.Pinned {
		t.Errorf("tab 1 = %+v, want active and pinned", tab)
	}
	if store.Count() != 2 {
		t.Errorf("Count() = %d, want 2", store.Count())
	}
}

func TestReconciler_ListErrorKeepsStore(t *testing.T) {
	store := activity.NewStore()
	store.Observe(domain.Tab{ID: 1, WindowID: 1, URL: "https://example.com/a"})

	rc := NewReconciler(&listOnlyAPI{err: errors.New("bridge down")}, store, logger.New("error", false), 0)

	if _, err := rc.Reconcile(context.Background()); err == nil {
		t.Fatal("Reconcile() error = nil, want error")
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
}
