package ws

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/flowradar/flowradar/internal/radar"
)

// Encoder converts scan results to the wire format (JSON + Zstd).
type Encoder struct {
	zstdEncoder *zstd.Encoder
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc}, nil
}

// frame is one wire message: the scan it came from plus the opportunities
// relevant to the subscribed group.
type frame struct {
	ScanID        string                    `json:"scanId"`
	Group         string                    `json:"group"`
	Opportunities []radar.ScoredOpportunity `json:"opportunities"`
}

// Encode builds the compressed frame for one group.
func (e *Encoder) Encode(scanID, group string, opps []radar.ScoredOpportunity) ([]byte, error) {
	raw, err := json.Marshal(frame{
		ScanID:        scanID,
		Group:         group,
		Opportunities: opps,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	return e.zstdEncoder.EncodeAll(raw, nil), nil
}

// Publisher fans a scan result out to the hub's active groups.
type Publisher struct {
	hub     *Hub
	encoder *Encoder
}

func NewPublisher(hub *Hub) (*Publisher, error) {
	encoder, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Publisher{hub: hub, encoder: encoder}, nil
}

// Publish broadcasts the scan's opportunities: each subscribed ticker group
// receives its own slice, the firehose receives everything. Groups with no
// subscribers cost nothing.
func (p *Publisher) Publish(result *radar.ScanResult) error {
	active := p.hub.ActiveGroups()
	if len(active) == 0 {
		return nil
	}

	byTicker := make(map[string][]radar.ScoredOpportunity)
	for _, opp := range result.Opportunities {
		byTicker[opp.Ticker] = append(byTicker[opp.Ticker], opp)
	}

	for _, group := range active {
		opps := byTicker[group]
		if group == FirehoseGroup {
			opps = result.Opportunities
		}
		if len(opps) == 0 {
			continue
		}
		payload, err := p.encoder.Encode(result.ScanID, group, opps)
		if err != nil {
			return err
		}
		p.hub.Broadcast(group, payload)
	}
	return nil
}
