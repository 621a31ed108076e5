package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
)

// ProviderName is the registry name of this adapter.
const ProviderName = "alphavantage"

const defaultBaseURL = "https://www.alphavantage.co/query"

// Field keys inside each series entry. Dots are escaped for gjson paths.
const (
	fieldOpen   = `1\. open`
	fieldHigh   = `2\. high`
	fieldLow    = `3\. low`
	fieldClose  = `4\. close`
	fieldVolume = `5\. volume`
)

// Config holds configuration for the Alpha Vantage adapter.
type Config struct {
	BaseURL    string
	APIKey     string // Used when a request carries no key of its own
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
	Logger     ports.Logger
}

// Client implements ports.MarketDataProvider against the Alpha Vantage REST API.
type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	logger  ports.Logger
}

// New creates a new Alpha Vantage adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Alpha Vantage client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryWait := cfg.RetryWait
	if retryWait <= 0 {
		retryWait = 500 * time.Millisecond
	}
	if cfg.APIKey == "" {
		cfg.Logger.Warn(context.Background(), "Alpha Vantage API key is empty. Requests must supply their own key.")
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(retryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	cfg.Logger.Info(context.Background(), "Alpha Vantage client configured", map[string]interface{}{"baseURL": baseURL, "timeout": timeout.String()})
	return &Client{http: client, baseURL: baseURL, apiKey: cfg.APIKey, logger: cfg.Logger}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchSeries requests the full series for req.Symbol and returns every entry as a RawRecord.
func (c *Client) FetchSeries(ctx context.Context, req ports.FetchRequest) ([]domain.RawRecord, error) {
	op := "FetchSeries"
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%s failed: %w: symbol is required", op, ports.ErrInvalidRequest)
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s failed: %w: apiKey is required", op, ports.ErrInvalidRequest)
	}
	series := req.Series
	if series == "" {
		series = domain.SeriesMonthly
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": series.Function(),
			"symbol":   symbol,
			"apikey":   apiKey,
		}).
		Get(c.baseURL)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if err := statusError(resp.StatusCode()); err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("%w: HTTP %d", err, resp.StatusCode()), op)
	}

	records, err := parseSeries(resp.Body(), series)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "series": string(series), "records": len(records)})
	return records, nil
}

// parseSeries extracts the entries stored under the series key.
func parseSeries(body []byte, series domain.TimeSeriesType) ([]domain.RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ports.ErrUnknown)
	}
	if msg := gjson.GetBytes(body, "Error Message"); msg.Exists() {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidRequest, msg.String())
	}
	for _, key := range []string{"Note", "Information"} {
		if msg := gjson.GetBytes(body, key); msg.Exists() {
			return nil, fmt.Errorf("%w: %s", ports.ErrRateLimited, msg.String())
		}
	}

	data := gjson.GetBytes(body, gjson.Escape(series.Key()))
	if !data.Exists() || !data.IsObject() {
		return nil, fmt.Errorf("%w: response has no %q section", ports.ErrNotFound, series.Key())
	}

	records := make([]domain.RawRecord, 0)
	data.ForEach(func(date, entry gjson.Result) bool {
		records = append(records, domain.RawRecord{
			Date:   date.String(),
			Open:   entry.Get(fieldOpen).String(),
			High:   entry.Get(fieldHigh).String(),
			Low:    entry.Get(fieldLow).String(),
			Close:  entry.Get(fieldClose).String(),
			Volume: entry.Get(fieldVolume).String(),
		})
		return true
	})
	return records, nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ports.ErrAuthenticationFailed
	case code == http.StatusTooManyRequests:
		return ports.ErrRateLimited
	case code == http.StatusNotFound:
		return ports.ErrNotFound
	case code >= http.StatusInternalServerError:
		return ports.ErrProviderUnavailable
	default:
		return ports.ErrUnknown
	}
}

// handleError attaches a standard ports error to transport failures and logs them.
// The request URL carries the API key, so transport errors are redacted first.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	fields := map[string]interface{}{"operation": operation, "provider": ProviderName}

	var ue *url.Error
	if errors.As(err, &ue) {
		ue = &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
		err = ue
	}

	var finalErr error
	switch {
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.Is(err, context.DeadlineExceeded), ue != nil && ue.Timeout():
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case isPortsError(err):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// redactURL masks the apikey query parameter.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isPortsError(err error) bool {
	for _, target := range []error{
		ports.ErrInvalidRequest, ports.ErrNotFound, ports.ErrRateLimited, ports.ErrAuthenticationFailed,
		ports.ErrProviderUnavailable, ports.ErrUnknown,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
