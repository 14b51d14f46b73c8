package radar

import (
	"math"
	"strings"

	"github.com/flowradar/flowradar/internal/sources"
)

// ScoringInput bundles a candidate with the GEX profile of its underlying,
// when one could be fetched.
type ScoringInput struct {
	Candidate Candidate
	GexLevels []sources.GexLevel
}

// Scores is the pure scoring output for one candidate.
type Scores struct {
	Confidence int
	Severity   Severity
	Sentiment  Sentiment
	HeatScore  float64

	// GexAligned is set when the GEX read and the source read agree and
	// neither is neutral. It feeds the heat score and the catalyst list.
	GexAligned bool
}

// ScoringStrategy supplies the source-specific pieces of scoring: severity
// thresholds and the directional read. Confidence, heat, and all clamping
// live in the engine so the invariants are enforced in exactly one place.
type ScoringStrategy interface {
	Severity(c Candidate) Severity
	Sentiment(c Candidate) Sentiment
}

// ScoringEngine computes confidence, severity, sentiment, and heat score.
// It is pure and deterministic: no clock, no network, no shared state.
type ScoringEngine struct {
	strategies map[SourceType]ScoringStrategy
}

func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{
		strategies: map[SourceType]ScoringStrategy{
			SourceFlow:          flowStrategy{},
			SourceUnusualVolume: volumeStrategy{},
			SourceMomentum:      momentumStrategy{},
		},
	}
}

// Score evaluates one candidate. Sensitivity shifts confidence additively
// by (sensitivity-5)*2.
func (e *ScoringEngine) Score(in ScoringInput, sensitivity int) Scores {
	c := in.Candidate
	strategy, ok := e.strategies[c.Source]
	if !ok {
		strategy = flowStrategy{}
	}

	srcSentiment := strategy.Sentiment(c)
	gexSentiment := gexSentiment(in.GexLevels, c.Strike, c.UnderlyingPrice)
	aligned := gexSentiment != Neutral && gexSentiment == srcSentiment

	return Scores{
		Confidence: confidence(c, sensitivity),
		Severity:   strategy.Severity(c),
		Sentiment:  combineSentiment(srcSentiment, gexSentiment),
		HeatScore:  heatScore(c, aligned),
		GexAligned: aligned,
	}
}

func confidence(c Candidate, sensitivity int) int {
	score := 50

	switch {
	case c.PremiumValue >= 5_000_000:
		score += 25
	case c.PremiumValue >= 2_000_000:
		score += 15
	case c.PremiumValue >= 1_000_000:
		score += 10
	case c.PremiumValue >= 500_000:
		score += 5
	}

	switch {
	case c.VolumeToOIRatio > 5:
		score += 15
	case c.VolumeToOIRatio > 3:
		score += 10
	case c.VolumeToOIRatio > 2:
		score += 5
	}

	if c.HasSweep {
		score += 20
	}

	score += executionTagBonus(c.ExecutionTags)
	score += (sensitivity - 5) * 2

	if c.DaysToExpiry < 7 {
		score -= 10
	} else if c.DaysToExpiry < 14 {
		score -= 5
	}

	return clampInt(score, 50, 95)
}

// Recognized execution-pattern tags and their bonuses. The total tag bonus
// is capped at 10.
var executionTagBonuses = map[string]int{
	"repeated_hits":    5,
	"aggressive_fill":  5,
	"opening_position": 3,
	"floor_trade":      3,
}

func executionTagBonus(tags []string) int {
	bonus := 0
	for _, tag := range tags {
		bonus += executionTagBonuses[strings.ToLower(tag)]
	}
	if bonus > 10 {
		bonus = 10
	}
	return bonus
}

func heatScore(c Candidate, gexAligned bool) float64 {
	heat := math.Min(c.Volume/1000, 10)
	heat += math.Min(c.PremiumValue/100_000, 10)
	if gexAligned {
		heat += 5
	}
	if dteBoost := float64(6-c.DaysToExpiry) * 2; dteBoost > 0 {
		heat += dteBoost
	}
	if c.ImpliedVolatility > 0.30 {
		heat += 3
	}
	return clampFloat(heat, 0, 100)
}

// gexSentiment reads the sign of the gamma exposure near the candidate's
// strike relative to spot. Positive gamma pulls price toward the strike;
// negative gamma pushes it away.
func gexSentiment(levels []sources.GexLevel, strike, spot float64) Sentiment {
	if len(levels) == 0 || strike <= 0 {
		return Neutral
	}

	// Net GEX within 5% of the strike; fall back to the nearest level.
	near := 0.0
	found := false
	for _, lv := range levels {
		if math.Abs(lv.Strike-strike) <= 0.05*strike {
			near += lv.Gex
			found = true
		}
	}
	if !found {
		nearest := levels[0]
		for _, lv := range levels[1:] {
			if math.Abs(lv.Strike-strike) < math.Abs(nearest.Strike-strike) {
				nearest = lv
			}
		}
		near = nearest.Gex
	}

	if near == 0 {
		return Neutral
	}
	above := strike >= spot
	if spot <= 0 {
		above = true
	}
	if near > 0 {
		if above {
			return Bullish
		}
		return Bearish
	}
	if above {
		return Bearish
	}
	return Bullish
}

// combineSentiment resolves the source read against the GEX read,
// defaulting to neutral on disagreement.
func combineSentiment(source, gex Sentiment) Sentiment {
	switch {
	case source == gex:
		return source
	case gex == Neutral:
		return source
	case source == Neutral:
		return gex
	default:
		return Neutral
	}
}

type flowStrategy struct{}

func (flowStrategy) Severity(c Candidate) Severity {
	switch {
	case c.HasSweep && c.PremiumValue > 5_000_000:
		return SeverityCritical
	case c.PremiumValue > 2_000_000:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Ask-side share above 60% signals buyers lifting the offer: bullish for
// calls, bearish for puts. Below 40% the logic inverts.
func (flowStrategy) Sentiment(c Candidate) Sentiment {
	switch {
	case c.AskSidePercentage > 60:
		if c.OptionType == Put {
			return Bearish
		}
		return Bullish
	case c.AskSidePercentage > 0 && c.AskSidePercentage < 40:
		if c.OptionType == Put {
			return Bullish
		}
		return Bearish
	default:
		return Neutral
	}
}

type volumeStrategy struct{}

func (volumeStrategy) Severity(c Candidate) Severity {
	if c.VolumeRatio > 5 {
		return SeverityHigh
	}
	return SeverityMedium
}

func (volumeStrategy) Sentiment(c Candidate) Sentiment {
	if c.OptionType == Put {
		return Bearish
	}
	return Bullish
}

type momentumStrategy struct{}

func (momentumStrategy) Severity(c Candidate) Severity {
	if math.Abs(c.MomentumScore) > 0.8 {
		return SeverityHigh
	}
	return SeverityMedium
}

func (momentumStrategy) Sentiment(c Candidate) Sentiment {
	switch {
	case c.MomentumScore > 0:
		return Bullish
	case c.MomentumScore < 0:
		return Bearish
	default:
		return Neutral
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
