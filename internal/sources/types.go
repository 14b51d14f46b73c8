package sources

import "context"

// Source names as they appear in scan metadata and metrics labels.
const (
	NameFlow     = "flow"
	NameVolume   = "unusual_volume"
	NameMomentum = "momentum"
)

// RawRecord is one untyped record from an upstream feed. Providers disagree
// on field names ("ticker" vs "symbol", "premium" vs "total_premium"), so
// records stay loosely typed until normalization.
type RawRecord map[string]any

// GexLevel is the gamma exposure contributed by a single strike.
type GexLevel struct {
	Strike float64 `json:"strike"`
	Gex    float64 `json:"gex"`
}

// FlowAlertSource delivers large block / sweep flow alerts.
type FlowAlertSource interface {
	Fetch(ctx context.Context, minPremium float64) ([]RawRecord, error)
}

// UnusualVolumeSource delivers contracts trading far above open interest.
type UnusualVolumeSource interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// MomentumSource delivers price-momentum breakout signals.
type MomentumSource interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// GammaExposureSource delivers the per-strike GEX profile for one ticker.
type GammaExposureSource interface {
	Fetch(ctx context.Context, ticker string) ([]GexLevel, error)
}
