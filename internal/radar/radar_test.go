package radar

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/sources"
)

type mockGateway struct {
	records map[string][]sources.RawRecord
	errs    map[string]string
	gex     map[string][]sources.GexLevel
}

func (m *mockGateway) FetchAll(ctx context.Context, minPremium float64) (map[string][]sources.RawRecord, map[string]string) {
	return m.records, m.errs
}

func (m *mockGateway) FetchGexProfiles(ctx context.Context, tickers []string) map[string][]sources.GexLevel {
	return m.gex
}

func newTestRadar(gateway Gateway, explainer Explainer) *Radar {
	synthesizer := NewSynthesizer(explainer, 50*time.Millisecond, zap.NewNop())
	return New(gateway, synthesizer, 2, nil, zap.NewNop())
}

func flowRecord(ticker string, strike, premium float64, daysOut int) sources.RawRecord {
	return sources.RawRecord{
		"ticker":              ticker,
		"strike":              strike,
		"expiry":              time.Now().UTC().AddDate(0, 0, daysOut).Format("2006-01-02"),
		"option_type":         "call",
		"premium":             premium,
		"volume":              2000.0,
		"open_interest":       300.0,
		"ask":                 12.5,
		"ask_side_percentage": 70.0,
		"has_sweep":           true,
	}
}

func TestScanHappyPath(t *testing.T) {
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow: {flowRecord("NVDA", 900, 6_000_000, 20)},
		},
	}
	r := newTestRadar(gateway, nil)

	result, err := r.Scan(context.Background(), DefaultSettings())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.ScanID == "" {
		t.Error("scan must carry an ID")
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(result.Opportunities))
	}
	opp := result.Opportunities[0]
	if opp.Ticker != "NVDA" {
		t.Errorf("unexpected ticker %s", opp.Ticker)
	}
	if opp.Severity != SeverityCritical {
		t.Errorf("sweep over 5M should be critical, got %s", opp.Severity)
	}
	if opp.Recommendation.Rationale == "" {
		t.Error("every opportunity needs a rationale")
	}
	if result.Metadata.TotalScanned != 1 {
		t.Errorf("expected 1 scanned, got %d", result.Metadata.TotalScanned)
	}
	if result.Metadata.Partial {
		t.Error("uncancelled scan must not be partial")
	}
}

func TestScanAllSourcesFailing(t *testing.T) {
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow:     nil,
			sources.NameVolume:   nil,
			sources.NameMomentum: nil,
		},
		errs: map[string]string{
			sources.NameFlow:     "connection refused",
			sources.NameVolume:   "status 500",
			sources.NameMomentum: "timeout",
		},
	}
	r := newTestRadar(gateway, nil)

	result, err := r.Scan(context.Background(), DefaultSettings())
	if err != nil {
		t.Fatalf("total upstream failure must still succeed: %v", err)
	}

	if len(result.Opportunities) != 0 {
		t.Errorf("expected no opportunities, got %d", len(result.Opportunities))
	}
	if result.Metadata.TotalScanned != 0 {
		t.Errorf("expected 0 scanned, got %d", result.Metadata.TotalScanned)
	}
	if len(result.Metadata.PerSourceErrors) != 3 {
		t.Errorf("expected 3 per-source errors, got %v", result.Metadata.PerSourceErrors)
	}
}

func TestScanInvalidSettings(t *testing.T) {
	r := newTestRadar(&mockGateway{}, nil)

	settings := DefaultSettings()
	settings.Sensitivity = 99

	if _, err := r.Scan(context.Background(), settings); err == nil {
		t.Error("invalid settings must be the one fatal error")
	}
}

func TestScanCountsMalformedAndRejected(t *testing.T) {
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow: {
				flowRecord("NVDA", 900, 6_000_000, 20),
				{"strike": 100.0}, // no ticker
				flowRecord("XYZ", 50, 10_000, 20), // below min premium
			},
		},
	}
	r := newTestRadar(gateway, nil)

	result, err := r.Scan(context.Background(), DefaultSettings())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Metadata.TotalScanned != 3 {
		t.Errorf("expected 3 scanned, got %d", result.Metadata.TotalScanned)
	}
	if result.Metadata.FilteredCount != 2 {
		t.Errorf("expected 2 filtered (1 malformed + 1 rejected), got %d", result.Metadata.FilteredCount)
	}
	if len(result.Opportunities) != 1 {
		t.Errorf("expected 1 survivor, got %d", len(result.Opportunities))
	}
}

func TestScanRejectedCandidatesNeverSynthesized(t *testing.T) {
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow: {
				flowRecord("NVDA", 900, 6_000_000, 20),
				flowRecord("XYZ", 50, 10_000, 20), // rejected by min premium
			},
		},
	}
	explainer := &stubExplainer{explanation: Explanation{Reasoning: "fine"}}
	r := newTestRadar(gateway, explainer)

	if _, err := r.Scan(context.Background(), DefaultSettings()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if explainer.calls != 1 {
		t.Errorf("rejected candidates must not reach synthesis, saw %d calls", explainer.calls)
	}
}

func TestScanDropsLowConfidence(t *testing.T) {
	// Small premium, no sweep, distant expiry: confidence stays at the floor.
	rec := sources.RawRecord{
		"ticker":        "XYZ",
		"strike":        50.0,
		"expiry":        time.Now().UTC().AddDate(0, 0, 40).Format("2006-01-02"),
		"option_type":   "call",
		"premium":       150_000.0,
		"volume":        100.0,
		"open_interest": 1000.0,
	}
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{sources.NameFlow: {rec}},
	}
	r := newTestRadar(gateway, nil)

	settings := DefaultSettings()
	settings.MinConfidence = 75

	result, err := r.Scan(context.Background(), settings)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(result.Opportunities) != 0 {
		t.Errorf("expected low-confidence candidate dropped, got %d", len(result.Opportunities))
	}
}

func TestScanDeduplicatesAcrossSources(t *testing.T) {
	expiry := time.Now().UTC().AddDate(0, 0, 20).Format("2006-01-02")
	flowRec := flowRecord("NVDA", 900, 6_000_000, 20)
	volumeRec := sources.RawRecord{
		"ticker":        "NVDA",
		"strike":        900.0,
		"expiry":        expiry,
		"option_type":   "call",
		"premium":       6_000_000.0,
		"volume":        2000.0,
		"open_interest": 300.0,
		"volume_ratio":  6.0,
	}

	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow:   {flowRec},
			sources.NameVolume: {volumeRec},
		},
	}
	r := newTestRadar(gateway, nil)

	result, err := r.Scan(context.Background(), DefaultSettings())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(result.Opportunities) != 1 {
		t.Errorf("same contract from two sources must dedupe to one, got %d", len(result.Opportunities))
	}
}

func TestScanRespectsMaxAlerts(t *testing.T) {
	var recs []sources.RawRecord
	for i := 0; i < 20; i++ {
		recs = append(recs, flowRecord("NVDA", float64(800+i*5), 6_000_000, 20))
	}
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{sources.NameFlow: recs},
	}
	r := newTestRadar(gateway, nil)

	settings := DefaultSettings()
	settings.MaxAlerts = 5

	result, err := r.Scan(context.Background(), settings)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(result.Opportunities) != 5 {
		t.Errorf("expected max 5 alerts, got %d", len(result.Opportunities))
	}
}

func TestStatsAccumulate(t *testing.T) {
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow: {flowRecord("NVDA", 900, 6_000_000, 20)},
		},
	}
	r := newTestRadar(gateway, nil)

	if stats := r.Stats(); stats.TotalScans != 0 {
		t.Errorf("fresh radar should report 0 scans, got %d", stats.TotalScans)
	}

	for i := 0; i < 3; i++ {
		if _, err := r.Scan(context.Background(), DefaultSettings()); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
	}

	stats := r.Stats()
	if stats.TotalScans != 3 {
		t.Errorf("expected 3 scans, got %d", stats.TotalScans)
	}
	if stats.TotalScanned != 3 {
		t.Errorf("expected 3 records scanned, got %d", stats.TotalScanned)
	}
	if stats.OpportunitiesFound != 3 {
		t.Errorf("expected 3 opportunities across scans, got %d", stats.OpportunitiesFound)
	}
	if stats.AvgConfidence < 50 || stats.AvgConfidence > 95 {
		t.Errorf("average confidence out of range: %g", stats.AvgConfidence)
	}
	if stats.LastScanAt.IsZero() {
		t.Error("last scan timestamp not recorded")
	}
}

func TestScanCancelledContextIsPartial(t *testing.T) {
	gateway := &mockGateway{
		records: map[string][]sources.RawRecord{
			sources.NameFlow: {flowRecord("NVDA", 900, 6_000_000, 20)},
		},
	}
	r := newTestRadar(gateway, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Scan(ctx, DefaultSettings())
	if err != nil {
		t.Fatalf("cancelled scan must still return a result: %v", err)
	}
	if !result.Metadata.Partial {
		t.Error("cancelled scan must be tagged partial")
	}
}
