package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
)

// ProviderName is the registry name of this adapter.
const ProviderName = "yahoo"

// BarFetcher loads chart bars for params.
type BarFetcher func(params *chart.Params) ([]*finance.ChartBar, error)

// Config holds configuration for the Yahoo Finance adapter.
type Config struct {
	Logger  ports.Logger
	Fetcher BarFetcher       // Defaults to the live chart API
	Now     func() time.Time // Clock used to compute the lookback window
}

// Client implements ports.MarketDataProvider on top of finance-go chart bars.
type Client struct {
	fetch  BarFetcher
	now    func() time.Time
	logger ports.Logger
}

// New creates a new Yahoo Finance adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	fetch := cfg.Fetcher
	if fetch == nil {
		fetch = chartBars
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{fetch: fetch, now: now, logger: cfg.Logger}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

func chartBars(params *chart.Params) ([]*finance.ChartBar, error) {
	iter := chart.Get(params)
	bars := make([]*finance.ChartBar, 0)
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// window returns the chart interval and lookback start for a series.
func window(series domain.TimeSeriesType, now time.Time) (datetime.Interval, time.Time, error) {
	switch series {
	case domain.SeriesMonthly:
		return datetime.OneMonth, now.AddDate(-20, 0, 0), nil
	case domain.SeriesWeekly:
		return datetime.Interval("1wk"), now.AddDate(-5, 0, 0), nil
	case domain.SeriesDaily:
		return datetime.OneDay, now.AddDate(-1, 0, 0), nil
	default:
		return "", time.Time{}, fmt.Errorf("%w: %q", ports.ErrUnsupportedSeries, series)
	}
}

type fetchResult struct {
	bars []*finance.ChartBar
	err  error
}

// FetchSeries loads the lookback window for the series. The chart API has no
// context support, so the call runs in its own goroutine and ctx only bounds the wait.
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
	interval, start, err := window(series, c.now())
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	end := c.now()
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: interval,
	}

	resCh := make(chan fetchResult, 1)
	go func() {
		bars, err := c.fetch(params)
		resCh <- fetchResult{bars: bars, err: err}
	}()

	var res fetchResult
	select {
	case <-ctx.Done():
		return nil, c.handleError(ctx, ctx.Err(), op)
	case res = <-resCh:
	}
	if res.err != nil {
		return nil, c.handleError(ctx, res.err, op)
	}

	records := make([]domain.RawRecord, 0, len(res.bars))
	skipped := 0
	for _, bar := range res.bars {
		if bar == nil || (bar.Open.IsZero() && bar.Close.IsZero()) {
			skipped++
			continue
		}
		records = append(records, translateBar(bar))
	}
	if len(records) == 0 {
		return nil, c.handleError(ctx, fmt.Errorf("%w: no chart data for %s", ports.ErrNotFound, symbol), op)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "series": string(series), "records": len(records), "skipped": skipped})
	return records, nil
}

// translateBar keys the bar by its UTC date and renders decimal prices back to strings.
func translateBar(bar *finance.ChartBar) domain.RawRecord {
	return domain.RawRecord{
		Date:   time.Unix(int64(bar.Timestamp), 0).UTC().Format("2006-01-02"),
		Open:   bar.Open.String(),
		High:   bar.High.String(),
		Low:    bar.Low.String(),
		Close:  bar.Close.String(),
		Volume: strconv.Itoa(bar.Volume),
	}
}

func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	fields := map[string]interface{}{"operation": operation, "provider": ProviderName}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.Is(err, ports.ErrNotFound):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrProviderUnavailable, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}
