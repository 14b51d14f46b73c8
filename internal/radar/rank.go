package radar

import "sort"

// RankingAggregator merges scored opportunities from all sources into the
// final ordered, deduplicated, size-bounded list.
type RankingAggregator struct{}

// Aggregate dedupes by contract identity (keeping the higher-confidence
// instance), sorts by (severity desc, confidence desc, timestamp desc,
// identity asc), and truncates to maxAlerts. The order is a strict total
// order: identical inputs always rank identically.
func (RankingAggregator) Aggregate(opps []ScoredOpportunity, maxAlerts int) []ScoredOpportunity {
	byContract := make(map[string]ScoredOpportunity, len(opps))
	for _, opp := range opps {
		key := opp.IdentityKey()
		existing, ok := byContract[key]
		if !ok || wins(opp, existing) {
			byContract[key] = opp
		}
	}

	ranked := make([]ScoredOpportunity, 0, len(byContract))
	for _, opp := range byContract {
		ranked = append(ranked, opp)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.FetchedAt.Equal(b.FetchedAt) {
			return a.FetchedAt.After(b.FetchedAt)
		}
		return a.IdentityKey() < b.IdentityKey()
	})

	if len(ranked) > maxAlerts {
		ranked = ranked[:maxAlerts]
	}
	return ranked
}

// wins decides a dedupe collision: higher confidence, then fresher fetch.
func wins(challenger, incumbent ScoredOpportunity) bool {
	if challenger.Confidence != incumbent.Confidence {
		return challenger.Confidence > incumbent.Confidence
	}
	return challenger.FetchedAt.After(incumbent.FetchedAt)
}
