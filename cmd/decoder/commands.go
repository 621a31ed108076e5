package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stockDecoder/config"
	"stockDecoder/internal/app"
	"stockDecoder/internal/bootstrap"
	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
)

const version = "1.0.0"

// session holds what a subcommand needs once configuration is loaded.
type session struct {
	cfg        *config.Config
	logger     ports.Logger
	components *bootstrap.Components
}

func (s *session) close() {
	if s.components != nil {
		if err := s.components.Close(); err != nil {
			s.logger.Error(context.Background(), err, "Error closing database repository")
		}
	}
	if s.logger != nil {
		bootstrap.SyncLogger(s.logger)
	}
}

// open loads configuration and wires the service; withRepo opens the prediction store.
func open(withRepo bool) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := bootstrap.NewLogger(cfg)
	components, err := bootstrap.Build(cfg, log, withRepo)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: log, components: components}, nil
}

// seriesFlags are shared by commands that fetch a series.
type seriesFlags struct {
	series   string
	provider string
	date     string
	apiKey   string
}

func (f *seriesFlags) register(cmd *cobra.Command, withDate bool) {
	cmd.Flags().StringVarP(&f.series, "series", "s", "", "Series granularity: monthly, weekly or daily (DEFAULT_SERIES if empty)")
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Market data provider: alphavantage, binance or yahoo (DATA_PROVIDER if empty)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Provider API key overriding the configured one")
	if withDate {
		cmd.Flags().StringVarP(&f.date, "date", "d", "", "Date of the record to classify (latest if empty)")
	}
}

func (f *seriesFlags) request(symbol string) (app.PredictRequest, error) {
	req := app.PredictRequest{Symbol: symbol, Provider: f.provider, Date: f.date, APIKey: f.apiKey}
	if f.series != "" {
		series, err := domain.ParseTimeSeriesType(f.series)
		if err != nil {
			return req, err
		}
		req.Series = series
	}
	return req, nil
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "decoder",
		Short: "Stock Decoder - decision tree up/down predictions",
		Long: `Stock Decoder trains a decision tree on a symbol's price history and predicts
whether a period closes above its open.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newScorecardCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// newPredictCmd creates the predict command
func newPredictCmd() *cobra.Command {
	var flags seriesFlags
	var noStore bool

	cmd := &cobra.Command{
		Use:   "predict SYMBOL",
		Short: "Predict the direction of a record",
		Long: `Train on the full series and classify one record.
Example: decoder predict IBM --series monthly --date 2024-03-28`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			s, err := open(!noStore)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.components.Service.Predict(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderError(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPrediction(res.Prediction))
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the prediction")
	return cmd
}

// newTreeCmd creates the tree command
func newTreeCmd() *cobra.Command {
	var flags seriesFlags

	cmd := &cobra.Command{
		Use:   "tree SYMBOL",
		Short: "Print the decision tree trained on a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			s, err := open(false)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.components.Service.Predict(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderError(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTree(res))
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

// newHistoryCmd creates the history command
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Show stored predictions for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(true)
			if err != nil {
				return err
			}
			defer s.close()

			predictions, err := s.components.Service.History(cmd.Context(), args[0], limit)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderError(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(args[0], predictions))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of predictions")
	return cmd
}

// newScorecardCmd creates the scorecard command
func newScorecardCmd() *cobra.Command {
	var flags seriesFlags

	cmd := &cobra.Command{
		Use:   "scorecard SYMBOL",
		Short: "Score stored predictions against what happened next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			s, err := open(true)
			if err != nil {
				return err
			}
			defer s.close()

			sc, err := s.components.Service.Scorecard(cmd.Context(), req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderError(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderScorecard(args[0], sc))
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Stock Decoder v%s\n", version)
		},
	}
}
