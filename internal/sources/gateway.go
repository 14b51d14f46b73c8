package sources

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Gateway fans one scan out to every configured feed under a shared
// deadline. A feed that errors or times out contributes an empty record set
// and an entry in the error map; it never fails the scan. Retries live in
// the feed clients, not here.
type Gateway struct {
	flow     FlowAlertSource
	volume   UnusualVolumeSource
	momentum MomentumSource
	gex      GammaExposureSource

	fetchTimeout time.Duration
	gexWorkers   int
	logger       *zap.Logger
}

func NewGateway(flow FlowAlertSource, volume UnusualVolumeSource, momentum MomentumSource, gex GammaExposureSource, fetchTimeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		flow:         flow,
		volume:       volume,
		momentum:     momentum,
		gex:          gex,
		fetchTimeout: fetchTimeout,
		gexWorkers:   4,
		logger:       logger,
	}
}

// SourceNames returns the names of the configured feeds.
func (g *Gateway) SourceNames() []string {
	var names []string
	if g.flow != nil {
		names = append(names, NameFlow)
	}
	if g.volume != nil {
		names = append(names, NameVolume)
	}
	if g.momentum != nil {
		names = append(names, NameMomentum)
	}
	return names
}

type fetchResult struct {
	name    string
	records []RawRecord
	err     error
}

// FetchAll fetches all configured feeds concurrently and returns records
// keyed by source name plus the per-source error messages.
func (g *Gateway) FetchAll(ctx context.Context, minPremium float64) (map[string][]RawRecord, map[string]string) {
	fetchCtx, cancel := context.WithTimeout(ctx, g.fetchTimeout)
	defer cancel()

	type fetchFn func(context.Context) ([]RawRecord, error)
	fetches := map[string]fetchFn{}
	if g.flow != nil {
		fetches[NameFlow] = func(ctx context.Context) ([]RawRecord, error) {
			return g.flow.Fetch(ctx, minPremium)
		}
	}
	if g.volume != nil {
		fetches[NameVolume] = g.volume.Fetch
	}
	if g.momentum != nil {
		fetches[NameMomentum] = g.momentum.Fetch
	}

	results := make(chan fetchResult, len(fetches))
	var wg sync.WaitGroup
	for name, fetch := range fetches {
		wg.Add(1)
		go func(name string, fetch fetchFn) {
			defer wg.Done()
			start := time.Now()
			records, err := fetch(fetchCtx)
			g.logger.Debug("source fetched",
				zap.String("source", name),
				zap.Int("records", len(records)),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			results <- fetchResult{name: name, records: records, err: err}
		}(name, fetch)
	}
	wg.Wait()
	close(results)

	records := make(map[string][]RawRecord, len(fetches))
	errs := make(map[string]string)
	for r := range results {
		if r.err != nil {
			records[r.name] = nil
			errs[r.name] = r.err.Error()
			continue
		}
		records[r.name] = r.records
	}
	return records, errs
}

// FetchGexProfiles fetches GEX levels for each ticker with bounded
// concurrency. Tickers whose profile cannot be fetched are simply absent
// from the result; sentiment degrades to flow-only for them.
func (g *Gateway) FetchGexProfiles(ctx context.Context, tickers []string) map[string][]GexLevel {
	profiles := make(map[string][]GexLevel, len(tickers))
	if g.gex == nil || len(tickers) == 0 {
		return profiles
	}

	jobs := make(chan string, len(tickers))
	for _, t := range tickers {
		jobs <- t
	}
	close(jobs)

	var mu sync.Mutex
	var wg sync.WaitGroup
	workers := g.gexWorkers
	if workers > len(tickers) {
		workers = len(tickers)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				levels, err := g.gex.Fetch(ctx, ticker)
				if err != nil {
					g.logger.Debug("gex profile unavailable", zap.String("ticker", ticker), zap.Error(err))
					continue
				}
				mu.Lock()
				profiles[ticker] = levels
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return profiles
}
