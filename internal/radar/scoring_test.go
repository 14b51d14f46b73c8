package radar

import (
	"testing"
	"time"

	"github.com/flowradar/flowradar/internal/sources"
)

func TestScoreSweepWithHeavyPremium(t *testing.T) {
	engine := NewScoringEngine()

	c := Candidate{
		Ticker:            "NVDA",
		Strike:            900,
		Expiry:            time.Now().AddDate(0, 0, 10),
		OptionType:        Call,
		UnderlyingPrice:   880,
		Volume:            2000,
		OpenInterest:      300,
		AskSidePercentage: 70,
		HasSweep:          true,
		Source:            SourceFlow,
		AlertType:         AlertSweep,
		DaysToExpiry:      10,
		VolumeToOIRatio:   2000.0 / 300.0,
		PremiumValue:      6_000_000,
	}

	scores := engine.Score(ScoringInput{Candidate: c}, 7)

	// 50 +25 (premium) +15 (vol/OI > 5) +20 (sweep) +4 (sensitivity 7)
	// -5 (expiry < 14d) = 109, clamped to 95
	if scores.Confidence != 95 {
		t.Errorf("expected confidence 95, got %d", scores.Confidence)
	}
	if scores.Severity != SeverityCritical {
		t.Errorf("expected critical severity, got %s", scores.Severity)
	}
	if scores.Sentiment != Bullish {
		t.Errorf("expected bullish sentiment, got %s", scores.Sentiment)
	}
}

func TestScoreMomentumSignal(t *testing.T) {
	engine := NewScoringEngine()

	c := Candidate{
		Ticker:        "TSLA",
		Source:        SourceMomentum,
		AlertType:     AlertMomentum,
		MomentumScore: 0.9,
		DaysToExpiry:  3,
	}

	scores := engine.Score(ScoringInput{Candidate: c}, 5)

	if scores.Severity != SeverityHigh {
		t.Errorf("expected high severity for momentum 0.9, got %s", scores.Severity)
	}
	if scores.Sentiment != Bullish {
		t.Errorf("expected bullish sentiment for positive momentum, got %s", scores.Sentiment)
	}
	// 50 + 0 - 10 (expiry < 7d) = 40, clamped to the floor
	if scores.Confidence != 50 {
		t.Errorf("expected confidence clamped to 50, got %d", scores.Confidence)
	}
}

func TestConfidenceTiers(t *testing.T) {
	tests := []struct {
		name        string
		candidate   Candidate
		sensitivity int
		want        int
	}{
		{
			name:        "baseline",
			candidate:   Candidate{DaysToExpiry: 30},
			sensitivity: 5,
			want:        50,
		},
		{
			name: "premium half million",
			candidate: Candidate{
				PremiumValue: 500_000,
				DaysToExpiry: 30,
			},
			sensitivity: 5,
			want:        55,
		},
		{
			name: "premium two million and moderate volume",
			candidate: Candidate{
				PremiumValue:    2_000_000,
				VolumeToOIRatio: 3.5,
				DaysToExpiry:    30,
			},
			sensitivity: 5,
			want:        75,
		},
		{
			name: "short dated penalty",
			candidate: Candidate{
				PremiumValue: 1_000_000,
				DaysToExpiry: 5,
			},
			sensitivity: 5,
			want:        50,
		},
		{
			name: "near dated penalty",
			candidate: Candidate{
				PremiumValue: 1_000_000,
				DaysToExpiry: 10,
			},
			sensitivity: 5,
			want:        55,
		},
		{
			name: "low sensitivity subtracts",
			candidate: Candidate{
				PremiumValue: 1_000_000,
				DaysToExpiry: 30,
			},
			sensitivity: 1,
			want:        52,
		},
		{
			name: "max sensitivity adds",
			candidate: Candidate{
				PremiumValue: 1_000_000,
				DaysToExpiry: 30,
			},
			sensitivity: 10,
			want:        70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confidence(tt.candidate, tt.sensitivity)
			if got != tt.want {
				t.Errorf("confidence = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	extremes := []Candidate{
		{},
		{DaysToExpiry: 1},
		{PremiumValue: 100_000_000, VolumeToOIRatio: 50, HasSweep: true,
			ExecutionTags: []string{"repeated_hits", "aggressive_fill", "floor_trade"}},
	}
	for _, c := range extremes {
		for sensitivity := 1; sensitivity <= 10; sensitivity++ {
			got := confidence(c, sensitivity)
			if got < 50 || got > 95 {
				t.Fatalf("confidence %d out of [50,95] for %+v sensitivity %d", got, c, sensitivity)
			}
		}
	}
}

func TestExecutionTagBonusCapped(t *testing.T) {
	bonus := executionTagBonus([]string{"repeated_hits", "aggressive_fill", "opening_position"})
	if bonus != 10 {
		t.Errorf("expected tag bonus capped at 10, got %d", bonus)
	}

	bonus = executionTagBonus([]string{"REPEATED_HITS"})
	if bonus != 5 {
		t.Errorf("expected case-insensitive tag match, got %d", bonus)
	}

	bonus = executionTagBonus([]string{"unknown_tag"})
	if bonus != 0 {
		t.Errorf("expected 0 for unrecognized tag, got %d", bonus)
	}
}

func TestHeatScore(t *testing.T) {
	c := Candidate{
		Volume:            2000,
		PremiumValue:      6_000_000,
		DaysToExpiry:      3,
		ImpliedVolatility: 0.45,
	}
	// min(2000/1000,10)=2 + min(60,10)=10 + (6-3)*2=6 + 3 (iv) = 21
	got := heatScore(c, false)
	if got != 21 {
		t.Errorf("heatScore = %g, want 21", got)
	}

	// gamma alignment adds 5
	got = heatScore(c, true)
	if got != 26 {
		t.Errorf("heatScore with alignment = %g, want 26", got)
	}

	// never below zero or above 100
	if got := heatScore(Candidate{DaysToExpiry: 100}, false); got != 0 {
		t.Errorf("empty candidate heat = %g, want 0", got)
	}
}

func TestGexSentiment(t *testing.T) {
	levels := []sources.GexLevel{
		{Strike: 895, Gex: 1.2e9},
		{Strike: 900, Gex: 2.5e9},
		{Strike: 905, Gex: 0.8e9},
	}

	// Positive gamma at a strike above spot reads bullish.
	if got := gexSentiment(levels, 900, 880); got != Bullish {
		t.Errorf("expected bullish, got %s", got)
	}
	// Positive gamma below spot reads bearish.
	if got := gexSentiment(levels, 900, 950); got != Bearish {
		t.Errorf("expected bearish, got %s", got)
	}

	negative := []sources.GexLevel{{Strike: 900, Gex: -1e9}}
	if got := gexSentiment(negative, 900, 880); got != Bearish {
		t.Errorf("expected bearish for negative gamma above spot, got %s", got)
	}

	if got := gexSentiment(nil, 900, 880); got != Neutral {
		t.Errorf("expected neutral with no levels, got %s", got)
	}
	if got := gexSentiment(levels, 0, 880); got != Neutral {
		t.Errorf("expected neutral with no strike, got %s", got)
	}

	// No level within 5% falls back to the nearest one.
	far := []sources.GexLevel{{Strike: 700, Gex: 1e9}, {Strike: 1200, Gex: -5e9}}
	if got := gexSentiment(far, 900, 880); got != Bullish {
		t.Errorf("expected nearest-level fallback to read bullish, got %s", got)
	}
}

func TestCombineSentiment(t *testing.T) {
	tests := []struct {
		source, gex, want Sentiment
	}{
		{Bullish, Bullish, Bullish},
		{Bearish, Bearish, Bearish},
		{Bullish, Neutral, Bullish},
		{Neutral, Bearish, Bearish},
		{Bullish, Bearish, Neutral},
		{Bearish, Bullish, Neutral},
		{Neutral, Neutral, Neutral},
	}
	for _, tt := range tests {
		if got := combineSentiment(tt.source, tt.gex); got != tt.want {
			t.Errorf("combineSentiment(%s, %s) = %s, want %s", tt.source, tt.gex, got, tt.want)
		}
	}
}

func TestFlowSentimentAskSide(t *testing.T) {
	tests := []struct {
		askSide    float64
		optionType OptionType
		want       Sentiment
	}{
		{70, Call, Bullish},
		{70, Put, Bearish},
		{30, Call, Bearish},
		{30, Put, Bullish},
		{50, Call, Neutral},
		{0, Call, Neutral},
	}
	for _, tt := range tests {
		c := Candidate{AskSidePercentage: tt.askSide, OptionType: tt.optionType}
		if got := (flowStrategy{}).Sentiment(c); got != tt.want {
			t.Errorf("ask %g%% %s = %s, want %s", tt.askSide, tt.optionType, got, tt.want)
		}
	}
}

func TestVolumeStrategySeverity(t *testing.T) {
	if got := (volumeStrategy{}).Severity(Candidate{VolumeRatio: 6}); got != SeverityHigh {
		t.Errorf("expected high severity for ratio 6, got %s", got)
	}
	if got := (volumeStrategy{}).Severity(Candidate{VolumeRatio: 3}); got != SeverityMedium {
		t.Errorf("expected medium severity for ratio 3, got %s", got)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	engine := NewScoringEngine()
	in := ScoringInput{
		Candidate: Candidate{
			Ticker:          "AMD",
			Strike:          150,
			OptionType:      Call,
			UnderlyingPrice: 148,
			Volume:          5000,
			PremiumValue:    2_500_000,
			VolumeToOIRatio: 4.2,
			DaysToExpiry:    21,
			Source:          SourceFlow,
		},
		GexLevels: []sources.GexLevel{{Strike: 150, Gex: 3e9}},
	}

	first := engine.Score(in, 7)
	for i := 0; i < 10; i++ {
		if got := engine.Score(in, 7); got != first {
			t.Fatalf("scoring not deterministic: %+v vs %+v", got, first)
		}
	}
}
