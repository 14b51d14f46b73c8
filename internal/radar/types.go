// Package radar implements the opportunity radar pipeline: fuse raw
// records from independent derivatives feeds, normalize them into one
// candidate shape, filter, score, synthesize a recommendation, and rank
// the survivors into a bounded scan result.
package radar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SourceType identifies which feed family produced a candidate.
type SourceType string

const (
	SourceFlow          SourceType = "flow"
	SourceUnusualVolume SourceType = "unusualVolume"
	SourceMomentum      SourceType = "momentum"
)

// OptionType is the contract side.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Alert types attachable to a candidate, matched against ScanSettings.AlertTypes.
const (
	AlertSweep         = "sweep"
	AlertUnusualVolume = "unusual_volume"
	AlertMomentum      = "momentum"
	AlertFlowImbalance = "flow_imbalance"
)

// Severity orders opportunities by urgency. The zero value is the lowest.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for sev, n := range severityNames {
		if n == name {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Sentiment is the directional read on a candidate.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// Action is the synthesized recommendation verb.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionWatch Action = "watch"
	ActionSell  Action = "sell"
)

// Timeframe buckets an opportunity by days to expiry.
type Timeframe string

const (
	ShortTerm  Timeframe = "Short-term"
	MediumTerm Timeframe = "Medium-term"
	LongTerm   Timeframe = "Long-term"
)

// PositionSize tiers a recommendation by the premium behind it.
type PositionSize string

const (
	SizeLarge  PositionSize = "Large"
	SizeMedium PositionSize = "Medium"
	SizeSmall  PositionSize = "Small"
)

// Candidate is the common shape every raw record is normalized into.
// Candidates are immutable once produced.
type Candidate struct {
	Ticker     string     `json:"ticker"`
	Strike     float64    `json:"strike"`
	Expiry     time.Time  `json:"expiry"`
	OptionType OptionType `json:"optionType"`
	Sector     string     `json:"sector,omitempty"`

	UnderlyingPrice   float64  `json:"underlyingPrice"`
	AskPrice          float64  `json:"askPrice"`
	Premium           float64  `json:"premium"`
	Volume            float64  `json:"volume"`
	OpenInterest      float64  `json:"openInterest"`
	AskSidePercentage float64  `json:"askSidePercentage"`
	ImpliedVolatility float64  `json:"impliedVolatility"`
	Delta             float64  `json:"delta,omitempty"`
	Gamma             float64  `json:"gamma,omitempty"`
	HasSweep          bool     `json:"hasSweep"`
	ExecutionTags     []string `json:"executionTags,omitempty"`
	MomentumScore     float64  `json:"momentumScore,omitempty"`
	VolumeRatio       float64  `json:"volumeRatio,omitempty"`

	Source    SourceType `json:"sourceType"`
	AlertType string     `json:"alertType"`
	FetchedAt time.Time  `json:"fetchedAt"`

	// Derived at normalization.
	DaysToExpiry    int     `json:"daysToExpiry"`
	VolumeToOIRatio float64 `json:"volumeToOIRatio"`
	PremiumValue    float64 `json:"premiumValue"`
}

// IdentityKey uniquely identifies the contract a candidate refers to.
// Two raw records for the same contract dedupe to one opportunity.
func (c Candidate) IdentityKey() string {
	return c.Ticker + "|" +
		strconv.FormatFloat(c.Strike, 'f', -1, 64) + "|" +
		c.Expiry.UTC().Format("2006-01-02") + "|" +
		string(c.OptionType)
}

// Analysis carries the scored factors behind a recommendation.
type Analysis struct {
	Sentiment           Sentiment `json:"sentiment"`
	ProbabilityOfProfit float64   `json:"probabilityOfProfit"`
	RiskReward          float64   `json:"riskReward"`
	Catalysts           []string  `json:"catalysts"`
}

// Recommendation is the actionable output for one opportunity.
type Recommendation struct {
	Action          Action       `json:"action"`
	EntryPrice      float64      `json:"entryPrice"`
	StopLoss        float64      `json:"stopLoss"`
	ProfitTarget    float64      `json:"profitTarget"`
	Timeframe       Timeframe    `json:"timeframe"`
	PositionSize    PositionSize `json:"positionSize"`
	Rationale       string       `json:"rationale"`
	RationaleSource string       `json:"rationaleSource"`
}

// ScoredOpportunity is a candidate that survived filtering, with its scores
// and synthesized recommendation.
type ScoredOpportunity struct {
	Candidate

	Confidence     int            `json:"confidence"`
	Severity       Severity       `json:"severity"`
	Sentiment      Sentiment      `json:"sentiment"`
	HeatScore      float64        `json:"heatScore"`
	Analysis       Analysis       `json:"analysis"`
	Recommendation Recommendation `json:"recommendation"`
}

// ScanMetadata summarizes what one scan saw and dropped.
type ScanMetadata struct {
	TotalScanned       int               `json:"totalScanned"`
	OpportunitiesFound int               `json:"opportunitiesFound"`
	FilteredCount      int               `json:"filteredCount"`
	PerSourceErrors    map[string]string `json:"perSourceErrors,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
	Partial            bool              `json:"partial,omitempty"`
}

// ScanResult is the ranked, deduplicated, size-bounded output of one scan.
type ScanResult struct {
	ScanID        string              `json:"scanId"`
	Opportunities []ScoredOpportunity `json:"opportunities"`
	Metadata      ScanMetadata        `json:"metadata"`
}
