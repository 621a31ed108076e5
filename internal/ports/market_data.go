package ports

import (
	"context"

	"stockDecoder/internal/domain"
)

// FetchRequest describes one historical series to load from a provider.
type FetchRequest struct {
	Symbol string                // Security symbol (e.g., "IBM", "BTCUSDT")
	Series domain.TimeSeriesType // Granularity of the series
	APIKey string                // Optional per-request credential; empty uses the provider's configured key
}

// MarketDataProvider loads historical OHLCV records from an external source.
// Records are returned unvalidated; the order of the returned slice carries no meaning.
type MarketDataProvider interface {
	// Name returns the provider's registry name (e.g., "alphavantage").
	Name() string
	// FetchSeries retrieves every record of the requested series.
	FetchSeries(ctx context.Context, req FetchRequest) ([]domain.RawRecord, error)
}

// HealthChecker is implemented by providers that can check their own connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ProviderRegistry resolves providers by name. An empty name selects the default provider.
type ProviderRegistry interface {
	Get(name string) (MarketDataProvider, error)
	Names() []string
}
