package tabs

import (
	"context"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

// TabAPI is the browser's tab primitives, reached through the bridge.
type TabAPI interface {
	// ListResources enumerates every open tab.
	ListResources(ctx context.Context) ([]domain.Tab, error)
	// CloseResources closes tabs. A partial failure is reported in the
	// result, not as an error.
	CloseResources(ctx context.Context, ids []int) (CloseResult, error)
	// CreateResource opens a tab. Background tabs do not take focus.
	CreateResource(ctx context.Context, locator string, background bool) (domain.Tab, error)
}

// Notifier presents an actionable notification to the user.
// Button clicks come back through the HTTP API, not through this interface.
type Notifier interface {
	Present(ctx context.Context, n Notification) error
}

// Bridge is a TabAPI that can also present notifications
type Bridge interface {
	TabAPI
	Notifier
}

// CloseResult splits a close request into what the browser closed and what it refused
type CloseResult struct {
	Closed []int `json:"closed"`
	Failed []int `json:"failed"`
}

// Partial reports whether at least one tab could not be closed
func (r CloseResult) Partial() bool {
	return len(r.Failed) > 0
}

// Button is a notification action routed back to the coordinator.
type Button string

const (
	ButtonCancel   Button = "cancel"
	ButtonEvictNow Button = "evict_now"
)

// Notification describes a pending closure to the user.
type Notification struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Buttons []Button `json:"buttons"`
}
