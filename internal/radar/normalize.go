package radar

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flowradar/flowradar/internal/sources"
)

// ErrMalformedRecord marks a raw record that cannot become a Candidate.
// Malformed records are dropped and counted, never propagated.
var ErrMalformedRecord = errors.New("malformed record")

// Normalizer converts heterogeneous raw feed records into Candidates.
// Normalization is pure: the same record and clock always produce the same
// Candidate.
type Normalizer struct{}

// Normalize maps one raw record into a Candidate and computes the derived
// fields. Records missing required identity fields (ticker, and
// strike/expiry for contract-level sources) are rejected.
func (Normalizer) Normalize(source SourceType, rec sources.RawRecord, now time.Time) (Candidate, error) {
	ticker := getString(rec, "ticker", "symbol", "underlying_symbol")
	if ticker == "" {
		return Candidate{}, fmt.Errorf("%w: missing ticker", ErrMalformedRecord)
	}

	strike := getFloat(rec, "strike", "strike_price")
	expiry, hasExpiry := getTime(rec, "expiry", "expiration", "expiration_date", "expires")

	// Flow and unusual-volume records describe a specific contract;
	// momentum signals are underlying-level and may omit the contract.
	if source != SourceMomentum {
		if strike <= 0 {
			return Candidate{}, fmt.Errorf("%w: missing strike", ErrMalformedRecord)
		}
		if !hasExpiry {
			return Candidate{}, fmt.Errorf("%w: missing expiry", ErrMalformedRecord)
		}
	}

	optionType := parseOptionType(getString(rec, "option_type", "type", "put_call"))
	volume := getFloat(rec, "volume", "total_volume")
	openInterest := getFloat(rec, "open_interest", "oi")
	ask := getFloat(rec, "ask", "ask_price", "current_ask")

	premium := getFloat(rec, "premium", "total_premium", "premium_value")
	premiumValue := premium
	if premiumValue == 0 {
		premiumValue = ask * volume * 100
	}

	daysToExpiry := 0
	if hasExpiry {
		daysToExpiry = int(math.Ceil(expiry.Sub(now).Hours() / 24))
		if daysToExpiry < 0 {
			daysToExpiry = 0
		}
	}

	askSide := getFloat(rec, "ask_side_percentage", "ask_side_pct", "ask_pct")
	if askSide > 0 && askSide <= 1 {
		askSide *= 100 // some feeds report a fraction
	}

	c := Candidate{
		Ticker:     strings.ToUpper(ticker),
		Strike:     strike,
		Expiry:     expiry,
		OptionType: optionType,
		Sector:     getString(rec, "sector", "industry"),

		UnderlyingPrice:   getFloat(rec, "underlying_price", "spot", "stock_price"),
		AskPrice:          ask,
		Premium:           premium,
		Volume:            volume,
		OpenInterest:      openInterest,
		AskSidePercentage: askSide,
		ImpliedVolatility: getFloat(rec, "implied_volatility", "iv"),
		Delta:             getFloat(rec, "delta"),
		Gamma:             getFloat(rec, "gamma"),
		HasSweep:          getBool(rec, "has_sweep", "is_sweep", "sweep"),
		ExecutionTags:     getStrings(rec, "execution_tags", "rule_names", "tags"),
		MomentumScore:     getFloat(rec, "momentum_score", "score"),
		VolumeRatio:       getFloat(rec, "volume_ratio", "relative_volume"),

		Source:    source,
		FetchedAt: now,

		DaysToExpiry:    daysToExpiry,
		VolumeToOIRatio: volume / math.Max(openInterest, 1),
		PremiumValue:    premiumValue,
	}
	c.AlertType = alertTypeFor(c)

	return c, nil
}

func alertTypeFor(c Candidate) string {
	switch c.Source {
	case SourceUnusualVolume:
		return AlertUnusualVolume
	case SourceMomentum:
		return AlertMomentum
	default:
		if c.HasSweep {
			return AlertSweep
		}
		return AlertFlowImbalance
	}
}

func parseOptionType(raw string) OptionType {
	switch strings.ToLower(raw) {
	case "put", "p":
		return Put
	default:
		return Call
	}
}

func getString(rec sources.RawRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func getFloat(rec sources.RawRecord, keys ...string) float64 {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func getBool(rec sources.RawRecord, keys ...string) bool {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
	}
	return false
}

func getStrings(rec sources.RawRecord, keys ...string) []string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch list := v.(type) {
		case []string:
			return list
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// getTime accepts RFC3339 timestamps, YYYY-MM-DD dates, and unix seconds.
func getTime(rec sources.RawRecord, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch raw := v.(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				return t, true
			}
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				return t, true
			}
		case float64:
			return time.Unix(int64(raw), 0).UTC(), true
		case int64:
			return time.Unix(raw, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
