package notify

import (
	"fmt"
	"strings"

	"github.com/flowradar/flowradar/internal/radar"
)

// FormatCriticalMessage creates the notification body for critical
// opportunities. At most five entries are listed.
func FormatCriticalMessage(critical []radar.ScoredOpportunity, result *radar.ScanResult) string {
	var sb strings.Builder

	limit := 5
	if len(critical) < limit {
		limit = len(critical)
	}
	for i := 0; i < limit; i++ {
		opp := critical[i]
		sb.WriteString(fmt.Sprintf("%s $%g %s: %s, confidence %d, heat %.0f\n",
			opp.Ticker, opp.Strike, opp.OptionType,
			opp.Sentiment, opp.Confidence, opp.HeatScore))
	}
	if len(critical) > limit {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(critical)-limit))
	}

	sb.WriteString(fmt.Sprintf("\nScanned: %d | Filtered: %d | Found: %d",
		result.Metadata.TotalScanned,
		result.Metadata.FilteredCount,
		result.Metadata.OpportunitiesFound))

	return sb.String()
}
