package domain

import (
	"fmt"
	"strings"
)

// RawRecord is a provider-shaped OHLCV tuple before validation.
// Numeric fields are kept exactly as the provider delivered them.
type RawRecord struct {
	Date   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// StockRecord represents one validated observation of a security's price activity
// over a time interval.
type StockRecord struct {
	Date   string  // Opaque identifier for the interval (e.g., "2024-01-31")
	Open   float64 // Price at interval start
	High   float64 // Maximum price during the interval
	Low    float64 // Minimum price during the interval
	Close  float64 // Price at interval end
	Volume int64   // Units traded during the interval
}

// Label is the binary direction class.
type Label string

const (
	LabelDown Label = "down"
	LabelUp   Label = "up"
)

// LabelFor returns up iff close > open.
func LabelFor(open, close float64) Label {
	if close > open {
		return LabelUp
	}
	return LabelDown
}

// Feature identifies a position in a FeatureVector.
type Feature int

// Feature order doubles as the tie-breaking priority used by the trainer.
const (
	FeatureOpen Feature = iota
	FeatureHigh
	FeatureLow
	FeatureClose
	FeatureVolume
)

// NumFeatures is the dimensionality of a FeatureVector.
const NumFeatures = 5

// String returns the feature's attribute name.
func (f Feature) String() string {
	switch f {
	case FeatureOpen:
		return "open"
	case FeatureHigh:
		return "high"
	case FeatureLow:
		return "low"
	case FeatureClose:
		return "close"
	case FeatureVolume:
		return "volume"
	default:
		return fmt.Sprintf("feature[%d]", int(f))
	}
}

// Features returns the record's feature vector ordered open, high, low, close, volume.
func (r StockRecord) Features() []float64 {
	return []float64{r.Open, r.High, r.Low, r.Close, float64(r.Volume)}
}

// TimeSeriesType is the granularity of a price series.
type TimeSeriesType string

const (
	SeriesMonthly TimeSeriesType = "monthly"
	SeriesWeekly  TimeSeriesType = "weekly"
	SeriesDaily   TimeSeriesType = "daily"
)

// ParseTimeSeriesType converts a case-insensitive name into a TimeSeriesType.
func ParseTimeSeriesType(s string) (TimeSeriesType, error) {
	switch TimeSeriesType(strings.ToLower(strings.TrimSpace(s))) {
	case SeriesMonthly:
		return SeriesMonthly, nil
	case SeriesWeekly:
		return SeriesWeekly, nil
	case SeriesDaily:
		return SeriesDaily, nil
	default:
		return "", fmt.Errorf("unknown time series type %q (want monthly, weekly or daily)", s)
	}
}

// Key returns the Alpha Vantage response key holding the series.
func (t TimeSeriesType) Key() string {
	switch t {
	case SeriesWeekly:
		return "Weekly Time Series"
	case SeriesDaily:
		return "Time Series (Daily)"
	default:
		return "Monthly Time Series"
	}
}

// Function returns the Alpha Vantage function name for the series.
func (t TimeSeriesType) Function() string {
	switch t {
	case SeriesWeekly:
		return "TIME_SERIES_WEEKLY"
	case SeriesDaily:
		return "TIME_SERIES_DAILY"
	default:
		return "TIME_SERIES_MONTHLY"
	}
}
