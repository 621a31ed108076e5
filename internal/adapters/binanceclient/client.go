package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

// ProviderName is the registry name of this adapter.
const ProviderName = "binance"

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	maxKlineLimit = 1500
)

// Client implements ports.MarketDataProvider using the go-binance futures klines endpoint.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	limit         int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // Overrides the production/testnet URL when set
	KlineLimit int    // Number of klines per series request
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// Klines are public; keys are only needed for rate-limit headroom.
		cfg.Logger.Debug(context.Background(), "Binance APIKey or SecretKey is empty, using public endpoints only")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL, "testnet": cfg.UseTestnet})

	limit := cfg.KlineLimit
	if limit <= 0 {
		limit = 500
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		limit:         limit,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "provider": ProviderName}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Signature or API-key rejected
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1120, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	err := c.futuresClient.NewPingService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// Interval maps a series granularity onto a Binance kline interval.
func Interval(series domain.TimeSeriesType) (string, error) {
	switch series {
	case domain.SeriesMonthly:
		return "1M", nil
	case domain.SeriesWeekly:
		return "1w", nil
	case domain.SeriesDaily:
		return "1d", nil
	default:
		return "", fmt.Errorf("%w: %q", ports.ErrUnsupportedSeries, series)
	}
}

// FetchSeries retrieves the most recent klines for the requested series.
// req.APIKey is ignored: klines are a public endpoint.
func (c *Client) FetchSeries(ctx context.Context, req ports.FetchRequest) ([]domain.RawRecord, error) {
	op := "FetchSeries"
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%s failed: %w: symbol is required", op, ports.ErrInvalidRequest)
	}
	series := req.Series
	if series == "" {
		series = domain.SeriesMonthly
	}
	interval, err := Interval(series)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	return c.GetKlines(ctx, symbol, interval, c.limit)
}

// GetKlines retrieves historical klines for the given symbol as raw records.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]domain.RawRecord, error) {
	op := "GetKlines"
	binanceKlines, err := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	records := make([]domain.RawRecord, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		rec, err := translateBinanceKline(bk)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w", err), op)
		}
		records = append(records, rec)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "interval": interval, "records": len(records)})
	return records, nil
}

// translateBinanceKline keys the kline by its UTC open date. Prices are passed through
// untouched; base-asset volume is rounded to whole units.
func translateBinanceKline(bk *futures.Kline) (domain.RawRecord, error) {
	if bk == nil {
		return domain.RawRecord{}, errors.New("received nil historical kline")
	}
	volume := bk.Volume
	if v, err := strconv.ParseFloat(bk.Volume, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		volume = strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}

	return domain.RawRecord{
		Date:   time.UnixMilli(bk.OpenTime).UTC().Format("2006-01-02"),
		Open:   bk.Open,
		High:   bk.High,
		Low:    bk.Low,
		Close:  bk.Close,
		Volume: volume,
	}, nil
}
