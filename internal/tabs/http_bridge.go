package tabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/utils"
)

// maxErrorBody bounds how much of an error response is kept for logs
const maxErrorBody = 512

// resource is the bridge's wire representation of a tab
type resource struct {
	ID       int    `json:"id"`
	WindowID int    `json:"window_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
	Pinned   bool   `json:"pinned"`
	MemoryKB int64  `json:"memory_kb,omitempty"`
}

func (r resource) toTab() domain.Tab {
	return domain.Tab{
		ID:       r.ID,
		WindowID: r.WindowID,
		URL:      r.URL,
		Title:    r.Title,
		Active:   r.Active,
		Pinned:   r.Pinned,
		MemoryKB: r.MemoryKB,
	}
}

// HTTPBridge talks JSON to the browser-side bridge extension.
type HTTPBridge struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTPBridge creates a bridge client. timeout applies to every request.
func NewHTTPBridge(baseURL string, timeout time.Duration, log logger.Logger) *HTTPBridge {
	return &HTTPBridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// ListResources fetches every open tab
func (b *HTTPBridge) ListResources(ctx context.Context) ([]domain.Tab, error) {
	var resources []resource
	if err := b.do(ctx, http.MethodGet, "/tabs", nil, &resources); err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}

	out := make([]domain.Tab, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.toTab())
	}
	return out, nil
}

// CloseResources asks the browser to close ids.
// When the bridge does not report per-tab outcomes, every id counts as closed.
func (b *HTTPBridge) CloseResources(ctx context.Context, ids []int) (CloseResult, error) {
	if len(ids) == 0 {
		return CloseResult{}, nil
	}

	var result CloseResult
	body := map[string][]int{"ids": ids}
	if err := b.do(ctx, http.MethodPost, "/tabs/close", body, &result); err != nil {
		return CloseResult{Failed: ids}, fmt.Errorf("failed to close tabs: %w", err)
	}

	if len(result.Closed) == 0 && len(result.Failed) == 0 {
		result.Closed = ids
	}
	if result.Partial() {
		b.logger.Warn("bridge closed only part of the batch",
			logger.Int("closed", len(result.Closed)),
			logger.Int("failed", len(result.Failed)))
	}
	return result, nil
}

// CreateResource opens locator in a new tab
func (b *HTTPBridge) CreateResource(ctx context.Context, locator string, background bool) (domain.Tab, error) {
	var created resource
	body := map[string]any{"url": locator, "active": !background}
	if err := b.do(ctx, http.MethodPost, "/tabs", body, &created); err != nil {
		return domain.Tab{}, fmt.Errorf("failed to create tab: %w", err)
	}
	return created.toTab(), nil
}

// Present shows a notification through the bridge
func (b *HTTPBridge) Present(ctx context.Context, n Notification) error {
	if err := b.do(ctx, http.MethodPost, "/notifications", n, nil); err != nil {
		return fmt.Errorf("failed to present notification: %w", err)
	}
	return nil
}

// do sends an optional JSON body and decodes an optional JSON response.
func (b *HTTPBridge) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	b.logger.Debug("bridge request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("bridge returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
