package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stockDecoder/config"
	"stockDecoder/internal/bootstrap"
	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
	"stockDecoder/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		seriesName string
		provider   string
		apiKey     string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "fetch_records SYMBOL",
		Short: "Fetch a validated price series and save it as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Load Configuration
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// 2. Initialize Logger
			appLogger := bootstrap.NewLogger(cfg)
			defer bootstrap.SyncLogger(appLogger)

			series := cfg.DefaultSeries
			if seriesName != "" {
				if series, err = domain.ParseTimeSeriesType(seriesName); err != nil {
					return err
				}
			}

			// 3. Initialize Providers and Service (no persistence needed)
			components, err := bootstrap.Build(cfg, appLogger, false)
			if err != nil {
				appLogger.Error(context.Background(), err, "FATAL: Failed to initialize application")
				return err
			}

			symbol := strings.ToUpper(args[0])
			fmt.Printf("Fetching %s %s series...\n", symbol, series)
			records, err := components.Service.FetchRecords(cmd.Context(), ports.FetchRequest{Symbol: symbol, Series: series, APIKey: apiKey}, provider)
			if err != nil {
				appLogger.Error(context.Background(), err, "Error fetching records")
				return err
			}
			appLogger.Info(context.Background(), "Fetched records", map[string]interface{}{"count": len(records)})

			filename := filepath.Join(outDir, csvName(symbol, series, records))
			if err := utils.WriteRecordsToCSV(records, symbol, filename); err != nil {
				appLogger.Error(context.Background(), err, "Error writing CSV")
				return err
			}
			appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": filename})
			return nil
		},
	}

	cmd.Flags().StringVarP(&seriesName, "series", "s", "", "Series granularity: monthly, weekly or daily (DEFAULT_SERIES if empty)")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Market data provider (DATA_PROVIDER if empty)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key overriding the configured one")
	cmd.Flags().StringVarP(&outDir, "out", "o", "data", "Output directory")
	return cmd
}

// csvName names the file after the symbol, series and covered date range.
func csvName(symbol string, series domain.TimeSeriesType, records []domain.StockRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("%s_%s.csv", symbol, series)
	}
	first := strings.ReplaceAll(records[0].Date, "-", "")
	last := strings.ReplaceAll(records[len(records)-1].Date, "-", "")
	return fmt.Sprintf("%s_%s_%s_to_%s.csv", symbol, series, first, last)
}
