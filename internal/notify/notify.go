package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/radar"
)

// Notifier is the interface for pushing scan alerts.
type Notifier interface {
	NotifyCritical(ctx context.Context, result *radar.ScanResult) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// NotifyCritical pushes an alert when a scan surfaced critical-severity
// opportunities. Scans without critical entries are silently skipped.
func (c *Client) NotifyCritical(ctx context.Context, result *radar.ScanResult) error {
	if !c.config.Enabled {
		return nil
	}

	critical := criticalOpportunities(result)
	if len(critical) == 0 {
		return nil
	}

	title := fmt.Sprintf("Critical flow: %d opportunit%s", len(critical), plural(len(critical)))
	message := FormatCriticalMessage(critical, result)
	tags := c.config.Tags + ",rotating_light"

	return c.send(ctx, title, message, tags, "urgent")
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

func criticalOpportunities(result *radar.ScanResult) []radar.ScoredOpportunity {
	var out []radar.ScoredOpportunity
	for _, opp := range result.Opportunities {
		if opp.Severity == radar.SeverityCritical {
			out = append(out, opp)
		}
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// NotifyCritical is a no-op.
func (n *NoopNotifier) NotifyCritical(_ context.Context, _ *radar.ScanResult) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
