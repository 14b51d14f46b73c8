package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type feedResponse struct {
	Data []RawRecord `json:"data"`
}

// FlowAlertClient fetches block/sweep flow alerts.
type FlowAlertClient struct {
	client *Client
}

func NewFlowAlertClient(c *Client) *FlowAlertClient {
	return &FlowAlertClient{client: c}
}

func (f *FlowAlertClient) Fetch(ctx context.Context, minPremium float64) ([]RawRecord, error) {
	q := url.Values{}
	q.Set("premium_min", strconv.FormatFloat(minPremium, 'f', -1, 64))

	var resp feedResponse
	if err := f.client.GetJSON(ctx, "/options/flow-alerts", q, &resp); err != nil {
		return nil, fmt.Errorf("flow alerts: %w", err)
	}
	return resp.Data, nil
}

// UnusualVolumeClient fetches contracts with volume far above open interest.
type UnusualVolumeClient struct {
	client *Client
}

func NewUnusualVolumeClient(c *Client) *UnusualVolumeClient {
	return &UnusualVolumeClient{client: c}
}

func (u *UnusualVolumeClient) Fetch(ctx context.Context) ([]RawRecord, error) {
	var resp feedResponse
	if err := u.client.GetJSON(ctx, "/options/unusual-volume", nil, &resp); err != nil {
		return nil, fmt.Errorf("unusual volume: %w", err)
	}
	return resp.Data, nil
}

// MomentumClient fetches price-momentum breakout signals.
type MomentumClient struct {
	client *Client
}

func NewMomentumClient(c *Client) *MomentumClient {
	return &MomentumClient{client: c}
}

func (m *MomentumClient) Fetch(ctx context.Context) ([]RawRecord, error) {
	var resp feedResponse
	if err := m.client.GetJSON(ctx, "/market/momentum", nil, &resp); err != nil {
		return nil, fmt.Errorf("momentum: %w", err)
	}
	return resp.Data, nil
}

// GexClient fetches the per-strike gamma exposure profile for a ticker.
type GexClient struct {
	client *Client
}

func NewGexClient(c *Client) *GexClient {
	return &GexClient{client: c}
}

func (g *GexClient) Fetch(ctx context.Context, ticker string) ([]GexLevel, error) {
	var resp struct {
		Levels []GexLevel `json:"levels"`
	}
	if err := g.client.GetJSON(ctx, "/stocks/"+url.PathEscape(ticker)+"/gex", nil, &resp); err != nil {
		return nil, fmt.Errorf("gex profile for %s: %w", ticker, err)
	}
	return resp.Levels, nil
}
