package tabs

import (
	"context"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

// NopBridge is used when no bridge URL is configured.
// Every call is logged and reported as successful.
type NopBridge struct {
	logger logger.Logger
}

// NewNopBridge creates a bridge that only logs
func NewNopBridge(log logger.Logger) *NopBridge {
	return &NopBridge{logger: log}
}

func (n *NopBridge) ListResources(context.Context) ([]domain.Tab, error) {
	n.logger.Debug("nop bridge: list tabs")
	return nil, nil
}

func (n *NopBridge) CloseResources(_ context.Context, ids []int) (CloseResult, error) {
	n.logger.Info("nop bridge: close tabs", logger.Int("count", len(ids)))
	return CloseResult{Closed: append([]int(nil), ids...)}, nil
}

func (n *NopBridge) CreateResource(_ context.Context, locator string, _ bool) (domain.Tab, error) {
	n.logger.Info("nop bridge: create tab", logger.String("url", locator))
	return domain.Tab{URL: locator}, nil
}

func (n *NopBridge) Present(_ context.Context, notif Notification) error {
	n.logger.Info("nop bridge: notification",
		logger.String("id", notif.ID),
		logger.String("message", notif.Message))
	return nil
}
