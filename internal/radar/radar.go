package radar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/sources"
)

// Gateway is the upstream fan-out the radar scans through.
type Gateway interface {
	FetchAll(ctx context.Context, minPremium float64) (map[string][]sources.RawRecord, map[string]string)
	FetchGexProfiles(ctx context.Context, tickers []string) map[string][]sources.GexLevel
}

// Metrics receives pipeline measurements. The radar works fine with a nil
// registry; see internal/metrics for the prometheus implementation.
type Metrics interface {
	ScanStarted()
	ScanCompleted(duration time.Duration, opportunities int)
	RecordsScanned(source string, count int)
	RecordsFiltered(count int)
	SourceError(source string)
}

type noopMetrics struct{}

func (noopMetrics) ScanStarted()                     {}
func (noopMetrics) ScanCompleted(time.Duration, int) {}
func (noopMetrics) RecordsScanned(string, int)       {}
func (noopMetrics) RecordsFiltered(int)              {}
func (noopMetrics) SourceError(string)               {}

// Stats is the rolling counter snapshot accumulated across scans.
type Stats struct {
	TotalScans         int       `json:"totalScans"`
	TotalScanned       int       `json:"totalScanned"`
	OpportunitiesFound int       `json:"opportunitiesFound"`
	AvgConfidence      float64   `json:"avgConfidence"`
	ScanRate           float64   `json:"scanRate"` // scans per minute since start
	LastScanAt         time.Time `json:"lastScanAt"`
}

// Radar orchestrates one scan end to end. It holds no state between scans
// except the rolling statistics counters.
type Radar struct {
	gateway     Gateway
	normalizer  Normalizer
	filter      FilterStage
	engine      *ScoringEngine
	synthesizer *Synthesizer
	aggregator  RankingAggregator
	workers     int
	metrics     Metrics
	logger      *zap.Logger

	mu            sync.Mutex
	startedAt     time.Time
	totalScans    int
	totalScanned  int
	totalFound    int
	confidenceSum int64
	lastScanAt    time.Time
}

func New(gateway Gateway, synthesizer *Synthesizer, workers int, metrics Metrics, logger *zap.Logger) *Radar {
	if workers < 1 {
		workers = 4
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Radar{
		gateway:     gateway,
		engine:      NewScoringEngine(),
		synthesizer: synthesizer,
		workers:     workers,
		metrics:     metrics,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// Scan runs one full cycle: fetch, normalize, filter, score, synthesize,
// rank. Per-record and per-source failures are absorbed into counters;
// only invalid settings return an error. A cancelled scan returns whatever
// completed, tagged partial.
func (r *Radar) Scan(ctx context.Context, settings ScanSettings) (*ScanResult, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	start := time.Now()
	r.metrics.ScanStarted()
	r.logger.Debug("scan started", zap.String("scanId", scanID))

	records, perSourceErrs := r.gateway.FetchAll(ctx, settings.MinPremium)
	for source := range perSourceErrs {
		r.metrics.SourceError(source)
	}

	now := time.Now().UTC()
	totalScanned := 0
	filtered := 0
	var admitted []Candidate

	for source, recs := range records {
		sourceType := sourceTypeFor(source)
		totalScanned += len(recs)
		r.metrics.RecordsScanned(source, len(recs))

		for _, rec := range recs {
			c, err := r.normalizer.Normalize(sourceType, rec, now)
			if err != nil {
				filtered++
				r.logger.Debug("record dropped", zap.String("source", source), zap.Error(err))
				continue
			}
			if ok, reason := r.filter.Admit(c, settings); !ok {
				filtered++
				r.logger.Debug("candidate rejected",
					zap.String("ticker", c.Ticker),
					zap.String("reason", reason),
				)
				continue
			}
			admitted = append(admitted, c)
		}
	}
	r.metrics.RecordsFiltered(filtered)

	gexProfiles := r.gateway.FetchGexProfiles(ctx, uniqueTickers(admitted))

	scored := r.scoreAll(ctx, admitted, gexProfiles, settings)

	kept := scored[:0:0]
	for _, opp := range scored {
		if opp.Confidence >= settings.MinConfidence {
			kept = append(kept, opp)
		}
	}

	ranked := r.aggregator.Aggregate(kept, settings.MaxAlerts)

	result := &ScanResult{
		ScanID:        scanID,
		Opportunities: ranked,
		Metadata: ScanMetadata{
			TotalScanned:       totalScanned,
			OpportunitiesFound: len(ranked),
			FilteredCount:      filtered,
			PerSourceErrors:    perSourceErrs,
			Timestamp:          now,
			Partial:            ctx.Err() != nil,
		},
	}

	r.recordScan(result)
	r.metrics.ScanCompleted(time.Since(start), len(ranked))
	r.logger.Info("scan completed",
		zap.String("scanId", scanID),
		zap.Int("scanned", totalScanned),
		zap.Int("filtered", filtered),
		zap.Int("found", len(ranked)),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("partial", result.Metadata.Partial),
	)

	return result, nil
}

// scoreAll runs scoring and synthesis over a bounded worker pool.
// Candidates are independent; output order does not matter because the
// aggregator sorts afterwards.
func (r *Radar) scoreAll(ctx context.Context, candidates []Candidate, gex map[string][]sources.GexLevel, settings ScanSettings) []ScoredOpportunity {
	if len(candidates) == 0 {
		return nil
	}

	jobs := make(chan Candidate, len(candidates))
	results := make(chan ScoredOpportunity, len(candidates))

	workers := r.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				scores := r.engine.Score(ScoringInput{Candidate: c, GexLevels: gex[c.Ticker]}, settings.Sensitivity)
				results <- r.synthesizer.Synthesize(ctx, c, scores)
			}
		}()
	}

	for _, c := range candidates {
		jobs <- c
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]ScoredOpportunity, 0, len(candidates))
	for opp := range results {
		out = append(out, opp)
	}
	return out
}

// Stats returns the rolling statistics snapshot. Counters are monotonic
// and reset only on process restart.
func (r *Radar) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		TotalScans:         r.totalScans,
		TotalScanned:       r.totalScanned,
		OpportunitiesFound: r.totalFound,
		LastScanAt:         r.lastScanAt,
	}
	if r.totalFound > 0 {
		stats.AvgConfidence = float64(r.confidenceSum) / float64(r.totalFound)
	}
	if elapsed := time.Since(r.startedAt).Minutes(); elapsed > 0 {
		stats.ScanRate = float64(r.totalScans) / elapsed
	}
	return stats
}

func (r *Radar) recordScan(result *ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalScans++
	r.totalScanned += result.Metadata.TotalScanned
	r.totalFound += len(result.Opportunities)
	for _, opp := range result.Opportunities {
		r.confidenceSum += int64(opp.Confidence)
	}
	r.lastScanAt = result.Metadata.Timestamp
}

func sourceTypeFor(source string) SourceType {
	switch source {
	case sources.NameVolume:
		return SourceUnusualVolume
	case sources.NameMomentum:
		return SourceMomentum
	default:
		return SourceFlow
	}
}

func uniqueTickers(candidates []Candidate) []string {
	seen := make(map[string]bool, len(candidates))
	var tickers []string
	for _, c := range candidates {
		if !seen[c.Ticker] {
			seen[c.Ticker] = true
			tickers = append(tickers, c.Ticker)
		}
	}
	return tickers
}
