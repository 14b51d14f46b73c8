package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/explain"
	"github.com/flowradar/flowradar/internal/radar"
	"github.com/flowradar/flowradar/internal/sources"
)

func scanCmd() *cobra.Command {
	var (
		preset        string
		sensitivity   int
		minConfidence int
		minPremium    float64
		maxExpiry     int
		maxAlerts     int
		alertTypes    []string
		sectors       []string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the result as JSON",
		Long: `Run one scan across all configured feeds and print the scored
opportunities to stdout as JSON.

Examples:
  # Scan with the configured defaults
  radar scan

  # Start from a saved preset
  radar scan --preset combined_high_conviction

  # Tighten the filters for one run
  radar scan --min-premium 500000 --min-confidence 80`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings := cfg.ScanSettings()
			if preset != "" {
				p, err := radar.PresetByName(preset)
				if err != nil {
					return err
				}
				settings = p.Settings
			}
			if cmd.Flags().Changed("sensitivity") {
				settings.Sensitivity = sensitivity
			}
			if cmd.Flags().Changed("min-confidence") {
				settings.MinConfidence = minConfidence
			}
			if cmd.Flags().Changed("min-premium") {
				settings.MinPremium = minPremium
			}
			if cmd.Flags().Changed("max-expiry") {
				settings.MaxTimeToExpiry = maxExpiry
			}
			if cmd.Flags().Changed("max-alerts") {
				settings.MaxAlerts = maxAlerts
			}
			if len(alertTypes) > 0 {
				settings.AlertTypes = alertTypes
			}
			if len(sectors) > 0 {
				settings.Sectors = sectors
			}

			scanner := buildScanner()

			start := time.Now()
			result, err := scanner.Scan(ctx, settings)
			if err != nil {
				return err
			}

			logger.Info("scan finished",
				zap.Int("scanned", result.Metadata.TotalScanned),
				zap.Int("found", result.Metadata.OpportunitiesFound),
				zap.Duration("duration", time.Since(start)),
			)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "start from a named preset (see 'radar presets')")
	cmd.Flags().IntVar(&sensitivity, "sensitivity", 0, "scoring sensitivity 1-10")
	cmd.Flags().IntVar(&minConfidence, "min-confidence", 0, "minimum confidence 50-95")
	cmd.Flags().Float64Var(&minPremium, "min-premium", 0, "minimum premium in dollars")
	cmd.Flags().IntVar(&maxExpiry, "max-expiry", 0, "maximum days to expiry")
	cmd.Flags().IntVar(&maxAlerts, "max-alerts", 0, "maximum opportunities returned")
	cmd.Flags().StringSliceVar(&alertTypes, "alert-types", nil, "alert types to include")
	cmd.Flags().StringSliceVar(&sectors, "sectors", nil, "sector allow-list")

	return cmd
}

// buildScanner wires the one-shot pipeline: feed clients, gateway, optional
// explainer, scorer. No metrics registry; a single run has nothing to scrape.
func buildScanner() *radar.Radar {
	client := sources.NewClient("feeds", sources.ClientConfig{
		BaseURL:       cfg.Sources.BaseURL,
		APIKey:        cfg.Sources.APIKey,
		Timeout:       time.Duration(cfg.Sources.TimeoutSec) * time.Second,
		RetryCount:    cfg.Sources.RetryCount,
		RetryDelay:    time.Duration(cfg.Sources.RetryDelaySec) * time.Second,
		RatePerSecond: cfg.Sources.RatePerSecond,
	}, logger)

	gateway := sources.NewGateway(
		sources.NewFlowAlertClient(client),
		sources.NewUnusualVolumeClient(client),
		sources.NewMomentumClient(client),
		sources.NewGexClient(client),
		cfg.FetchTimeout(),
		logger,
	)

	var explainer radar.Explainer
	if cfg.Explainer.Enabled {
		explainer = explain.NewClient(&explain.Config{
			Enabled: true,
			URL:     cfg.Explainer.URL,
			APIKey:  cfg.Explainer.APIKey,
			Timeout: cfg.ExplainTimeout(),
		}, logger)
	}
	synthesizer := radar.NewSynthesizer(explainer, cfg.ExplainTimeout(), logger)

	return radar.New(gateway, synthesizer, cfg.Scan.Workers, nil, logger)
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the saved scan presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range radar.Presets() {
				fmt.Printf("%-30s %s\n", p.Name, p.Description)
				fmt.Printf("%-30s   premium >= $%.0f, expiry <= %dd, confidence >= %d, alerts: %v\n",
					"", p.Settings.MinPremium, p.Settings.MaxTimeToExpiry, p.Settings.MinConfidence, p.Settings.AlertTypes)
			}
			return nil
		},
	}
}
