package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/config"
	"github.com/flowradar/flowradar/internal/market"
	"github.com/flowradar/flowradar/internal/notify"
	"github.com/flowradar/flowradar/internal/radar"
	"github.com/flowradar/flowradar/internal/ws"
)

// scanLoop runs periodic scans on trading days, streams results to WebSocket
// subscribers, and pushes critical alerts. Failures are logged and the loop
// keeps going; the next tick gets a fresh attempt.
type scanLoop struct {
	scanner   *radar.Radar
	settings  radar.ScanSettings
	watchlist map[string]bool
	interval  time.Duration
	calendar  *market.Calendar
	publisher *ws.Publisher
	notifier  notify.Notifier
	logger    *zap.Logger
}

func newScanLoop(scanner *radar.Radar, cfg *config.Config, publisher *ws.Publisher, notifier notify.Notifier, logger *zap.Logger) *scanLoop {
	watchlist := make(map[string]bool, len(cfg.Scan.Watchlist))
	for _, t := range cfg.Scan.Watchlist {
		watchlist[t] = true
	}
	return &scanLoop{
		scanner:   scanner,
		settings:  cfg.ScanSettings(),
		watchlist: watchlist,
		interval:  time.Duration(cfg.Scan.IntervalSeconds) * time.Second,
		calendar:  market.NewCalendar(cfg.Scan.Timezone),
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// Run ticks until the context is cancelled.
func (l *scanLoop) Run(ctx context.Context) {
	l.logger.Info("scan loop started",
		zap.Duration("interval", l.interval),
		zap.Int("watchlist", len(l.watchlist)),
	)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scan loop stopped")
			return

		case <-ticker.C:
			now := time.Now().In(l.calendar.Location())
			if !l.calendar.IsTradingDay(now) {
				l.logger.Debug("skipping scan, not a trading day", zap.Time("now", now))
				continue
			}
			l.runOnce(ctx)
		}
	}
}

func (l *scanLoop) runOnce(ctx context.Context) {
	result, err := l.scanner.Scan(ctx, l.settings)
	if err != nil {
		l.logger.Error("scheduled scan failed", zap.Error(err))
		return
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(result); err != nil {
			l.logger.Warn("failed to publish scan result", zap.Error(err))
		}
	}

	// A non-empty watchlist limits push alerts to the names being watched;
	// the WebSocket stream always carries the full scan.
	notifyResult := result
	if len(l.watchlist) > 0 {
		notifyResult = l.filterToWatchlist(result)
	}
	if err := l.notifier.NotifyCritical(ctx, notifyResult); err != nil {
		l.logger.Warn("failed to send critical alert", zap.Error(err))
	}
}

func (l *scanLoop) filterToWatchlist(result *radar.ScanResult) *radar.ScanResult {
	filtered := *result
	filtered.Opportunities = nil
	for _, opp := range result.Opportunities {
		if l.watchlist[opp.Ticker] {
			filtered.Opportunities = append(filtered.Opportunities, opp)
		}
	}
	return &filtered
}
