// Package explain is the client for the external reasoning service that
// produces free-text trade rationale. It is strictly best-effort: the
// radar's synthesizer falls back to a templated rationale whenever this
// client errors, times out, or returns garbage.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/radar"
)

// Config holds the reasoning service connection settings.
type Config struct {
	Enabled bool
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client implements radar.Explainer over HTTP.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}
}

type explainRequest struct {
	Ticker     string   `json:"ticker"`
	Strike     float64  `json:"strike"`
	OptionType string   `json:"option_type"`
	Source     string   `json:"source_type"`
	Severity   string   `json:"severity"`
	Sentiment  string   `json:"sentiment"`
	Confidence int      `json:"confidence"`
	HeatScore  float64  `json:"heat_score"`
	Catalysts  []string `json:"catalysts,omitempty"`
}

// Explain asks the reasoning service for a rationale. The caller's context
// carries the deadline; no retries, one shot.
func (c *Client) Explain(ctx context.Context, opp radar.ScoredOpportunity) (radar.Explanation, error) {
	if !c.config.Enabled {
		return radar.Explanation{}, fmt.Errorf("explainer disabled")
	}

	body, err := json.Marshal(explainRequest{
		Ticker:     opp.Ticker,
		Strike:     opp.Strike,
		OptionType: string(opp.OptionType),
		Source:     string(opp.Source),
		Severity:   opp.Severity.String(),
		Sentiment:  string(opp.Sentiment),
		Confidence: opp.Confidence,
		HeatScore:  opp.HeatScore,
		Catalysts:  opp.Analysis.Catalysts,
	})
	if err != nil {
		return radar.Explanation{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return radar.Explanation{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return radar.Explanation{}, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return radar.Explanation{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return radar.Explanation{}, fmt.Errorf("reading response: %w", err)
	}

	var explanation radar.Explanation
	if err := json.Unmarshal(respBody, &explanation); err != nil {
		return radar.Explanation{}, fmt.Errorf("decoding response: %w", err)
	}
	if explanation.Reasoning == "" {
		return radar.Explanation{}, fmt.Errorf("empty reasoning in response")
	}

	c.logger.Debug("explanation received",
		zap.String("ticker", opp.Ticker),
		zap.String("action", explanation.Action),
	)
	return explanation, nil
}
