package radar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Explanation is a free-text trade rationale from an external reasoning
// service.
type Explanation struct {
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
}

// Explainer produces free-text rationale for an opportunity. It is
// best-effort: it may time out or fail, and the synthesizer substitutes a
// templated rationale when it does.
type Explainer interface {
	Explain(ctx context.Context, opp ScoredOpportunity) (Explanation, error)
}

// Synthesizer derives the actionable recommendation for a scored candidate.
// Everything except the free-text rationale is deterministic.
type Synthesizer struct {
	explainer      Explainer
	explainTimeout time.Duration
	logger         *zap.Logger
}

func NewSynthesizer(explainer Explainer, explainTimeout time.Duration, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		explainer:      explainer,
		explainTimeout: explainTimeout,
		logger:         logger,
	}
}

// Synthesize builds the full ScoredOpportunity: analysis, recommendation,
// and rationale. It never returns an error; a failing explainer degrades to
// the template.
func (s *Synthesizer) Synthesize(ctx context.Context, c Candidate, scores Scores) ScoredOpportunity {
	analysis := Analysis{
		Sentiment:           scores.Sentiment,
		ProbabilityOfProfit: probabilityOfProfit(c, scores),
		RiskReward:          riskReward(scores.Severity),
		Catalysts:           catalysts(c, scores),
	}

	entry := c.AskPrice
	stopMultiplier := 0.8
	if c.Source == SourceMomentum {
		stopMultiplier = 0.75
	}

	opp := ScoredOpportunity{
		Candidate:  c,
		Confidence: scores.Confidence,
		Severity:   scores.Severity,
		Sentiment:  scores.Sentiment,
		HeatScore:  scores.HeatScore,
		Analysis:   analysis,
		Recommendation: Recommendation{
			Action:       action(c, analysis.ProbabilityOfProfit),
			EntryPrice:   entry,
			StopLoss:     entry * stopMultiplier,
			ProfitTarget: entry * (1 + analysis.RiskReward),
			Timeframe:    timeframe(c.DaysToExpiry),
			PositionSize: positionSize(c.PremiumValue),
		},
	}

	opp.Recommendation.Rationale, opp.Recommendation.RationaleSource = s.rationale(ctx, opp)
	return opp
}

func (s *Synthesizer) rationale(ctx context.Context, opp ScoredOpportunity) (string, string) {
	if s.explainer != nil {
		explainCtx, cancel := context.WithTimeout(ctx, s.explainTimeout)
		explanation, err := s.explainer.Explain(explainCtx, opp)
		cancel()

		if err == nil && strings.TrimSpace(explanation.Reasoning) != "" {
			return explanation.Reasoning, "ai"
		}
		if err != nil {
			s.logger.Debug("explainer fallback",
				zap.String("ticker", opp.Ticker),
				zap.Error(err),
			)
		}
	}
	return templatedRationale(opp), "template"
}

// templatedRationale builds a deterministic rationale from the same
// factors that drove scoring.
func templatedRationale(opp ScoredOpportunity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s: %s severity %s signal",
		opp.Ticker, describeContract(opp.Candidate), string(opp.OptionType),
		opp.Severity, opp.Source)

	if len(opp.Analysis.Catalysts) > 0 {
		fmt.Fprintf(&sb, " on %s", strings.Join(opp.Analysis.Catalysts, ", "))
	}
	fmt.Fprintf(&sb, "; %s read at %d%% confidence", opp.Sentiment, opp.Confidence)
	if opp.DaysToExpiry > 0 {
		fmt.Fprintf(&sb, ", %d days to expiry", opp.DaysToExpiry)
	}
	sb.WriteString(".")
	return sb.String()
}

func describeContract(c Candidate) string {
	if c.Strike <= 0 {
		return "underlying"
	}
	return fmt.Sprintf("$%g", c.Strike)
}

// probabilityOfProfit is an explicit heuristic, not a fitted model: it
// leans on confidence, rewards high severity, and penalizes short-dated
// contracts.
func probabilityOfProfit(c Candidate, scores Scores) float64 {
	pop := float64(scores.Confidence)
	if scores.Severity >= SeverityHigh {
		pop += 5
	}
	if c.DaysToExpiry < 7 {
		pop -= 10
	}
	return clampFloat(pop, 40, 90)
}

func riskReward(severity Severity) float64 {
	switch severity {
	case SeverityCritical:
		return 3.0
	case SeverityHigh:
		return 2.5
	case SeverityMedium:
		return 2.0
	default:
		return 1.5
	}
}

func action(c Candidate, pop float64) Action {
	institutional := c.PremiumValue >= 1_000_000 || c.HasSweep
	if pop > 60 && institutional {
		return ActionBuy
	}
	return ActionWatch
}

func timeframe(daysToExpiry int) Timeframe {
	switch {
	case daysToExpiry <= 14:
		return ShortTerm
	case daysToExpiry <= 45:
		return MediumTerm
	default:
		return LongTerm
	}
}

func positionSize(premiumValue float64) PositionSize {
	switch {
	case premiumValue >= 2_000_000:
		return SizeLarge
	case premiumValue >= 500_000:
		return SizeMedium
	default:
		return SizeSmall
	}
}

// catalysts lists the strongest factors behind the score, at most three,
// in a fixed order for determinism.
func catalysts(c Candidate, scores Scores) []string {
	var out []string
	if c.HasSweep {
		out = append(out, "sweep execution")
	}
	if c.VolumeToOIRatio > 2 {
		out = append(out, fmt.Sprintf("volume %.1fx open interest", c.VolumeToOIRatio))
	}
	if c.PremiumValue >= 1_000_000 {
		out = append(out, fmt.Sprintf("$%.1fM premium", c.PremiumValue/1_000_000))
	}
	if c.Source == SourceMomentum && c.MomentumScore != 0 {
		out = append(out, "momentum breakout")
	}
	if c.ImpliedVolatility > 0.30 {
		out = append(out, "elevated implied volatility")
	}
	if scores.GexAligned {
		out = append(out, "gamma alignment")
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
