package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"stockDecoder/internal/analytics"
	"stockDecoder/internal/classifier"
	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
	"stockDecoder/internal/trace"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// PredictRequest identifies the series to train on and, optionally, the record to classify.
type PredictRequest struct {
	Symbol   string
	Series   domain.TimeSeriesType // Empty selects the service default
	Provider string                // Empty selects the registry default
	Date     string                // Query record date; empty selects the latest record
	APIKey   string                // Optional per-request provider credential
}

// PredictResult carries the stored prediction together with the tree that produced it.
type PredictResult struct {
	Prediction *domain.Prediction
	Tree       *classifier.Tree
	Query      domain.StockRecord
}

// PredictionService orchestrates fetching, validation, training and classification.
// It holds no per-request state and is safe for concurrent use.
type PredictionService struct {
	logger        ports.Logger
	providers     ports.ProviderRegistry
	repo          ports.PredictionRepository
	trainer       *classifier.Trainer
	defaultSeries domain.TimeSeriesType
	now           func() time.Time
}

// Config holds the dependencies of a PredictionService.
type Config struct {
	Logger        ports.Logger
	Providers     ports.ProviderRegistry
	Repository    ports.PredictionRepository // Optional; predictions are not recorded when nil
	Trainer       *classifier.Trainer
	DefaultSeries domain.TimeSeriesType
	Now           func() time.Time
}

// NewPredictionService creates a new application service instance.
func NewPredictionService(cfg Config) (*PredictionService, error) {
	if cfg.Logger == nil || cfg.Providers == nil || cfg.Trainer == nil {
		return nil, fmt.Errorf("missing required dependencies for PredictionService")
	}
	series := cfg.DefaultSeries
	if series == "" {
		series = domain.SeriesMonthly
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PredictionService{
		logger:        cfg.Logger,
		providers:     cfg.Providers,
		repo:          cfg.Repository,
		trainer:       cfg.Trainer,
		defaultSeries: series,
		now:           now,
	}, nil
}

// DefaultSeries returns the series used when a request leaves it empty.
func (s *PredictionService) DefaultSeries() domain.TimeSeriesType {
	return s.defaultSeries
}

// FetchRecords loads a series from a provider and returns its validated records
// in chronological order.
func (s *PredictionService) FetchRecords(ctx context.Context, req ports.FetchRequest, providerName string) ([]domain.StockRecord, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrInvalidRequest)
	}
	if req.Series == "" {
		req.Series = s.defaultSeries
	}

	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{"symbol": req.Symbol, "series": string(req.Series), "provider": provider.Name()}

	ctx, span := trace.StartSpan(ctx, "FetchRecords",
		attribute.String("symbol", req.Symbol),
		attribute.String("series", string(req.Series)),
		attribute.String("provider", provider.Name()))
	raw, err := provider.FetchSeries(ctx, req)
	trace.EndSpan(span, err)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to fetch series", fields)
		return nil, fmt.Errorf("fetch %s %s series from %s: %w", req.Symbol, req.Series, provider.Name(), err)
	}
	s.logger.Debug(ctx, "Series fetched", fields, map[string]interface{}{"rawRecords": len(raw)})

	_, span = trace.StartSpan(ctx, "ValidateRecords", attribute.Int("records", len(raw)))
	records, err := classifier.ValidateRecords(raw)
	trace.EndSpan(span, err)
	if err != nil {
		s.logger.Warn(ctx, "Series failed validation", fields, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	domain.SortByDate(records)
	return records, nil
}

// Predict trains a tree on the requested series and classifies one of its records.
func (s *PredictionService) Predict(ctx context.Context, req PredictRequest) (*PredictResult, error) {
	series := req.Series
	if series == "" {
		series = s.defaultSeries
	}
	provider, err := s.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	ctx, span := trace.StartSpan(ctx, "Predict",
		attribute.String("symbol", req.Symbol),
		attribute.String("series", string(series)))
	result, err := s.predict(ctx, req, series, provider.Name())
	trace.EndSpan(span, err)
	return result, err
}

func (s *PredictionService) predict(ctx context.Context, req PredictRequest, series domain.TimeSeriesType, providerName string) (*PredictResult, error) {
	records, err := s.FetchRecords(ctx, ports.FetchRequest{Symbol: req.Symbol, Series: series, APIKey: req.APIKey}, providerName)
	if err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	query, err := selectQuery(records, req.Date)
	if err != nil {
		return nil, err
	}

	_, span := trace.StartSpan(ctx, "BuildDataset", attribute.Int("records", len(records)))
	set, err := classifier.BuildDataset(records)
	trace.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	_, span = trace.StartSpan(ctx, "TrainTree", attribute.Int("examples", len(set)))
	tree, err := s.trainer.Train(set)
	trace.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("train tree: %w", err)
	}

	_, span = trace.StartSpan(ctx, "Classify", attribute.String("queryDate", query.Date))
	decision, err := classifier.Predict(tree, query.Features())
	trace.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	p := &domain.Prediction{
		Symbol:       symbol,
		Series:       series,
		Provider:     providerName,
		QueryDate:    query.Date,
		Label:        decision.Label,
		Gain:         decision.Gain,
		Depth:        decision.Depth,
		TrainingSize: len(set),
		CreatedAt:    s.now().UTC(),
	}
	if s.repo != nil {
		if _, err := s.repo.Create(ctx, p); err != nil {
			s.logger.Warn(ctx, "Failed to record prediction", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		}
	}

	up, down := set.Counts()
	s.logger.Info(ctx, "Prediction made", map[string]interface{}{
		"symbol":    symbol,
		"series":    string(series),
		"provider":  providerName,
		"queryDate": query.Date,
		"label":     string(decision.Label),
		"gain":      decision.Gain,
		"depth":     decision.Depth,
		"treeDepth": tree.Depth(),
		"leaves":    tree.Leaves(),
		"upCount":   up,
		"downCount": down,
	})

	return &PredictResult{Prediction: p, Tree: tree, Query: query}, nil
}

// selectQuery picks the record named by date, or the latest record when date is empty.
func selectQuery(records []domain.StockRecord, date string) (domain.StockRecord, error) {
	if len(records) == 0 {
		return domain.StockRecord{}, &classifier.EmptyDatasetError{}
	}
	date = strings.TrimSpace(date)
	if date == "" {
		latest, _ := domain.Latest(records)
		return latest, nil
	}
	rec, ok := domain.FindByDate(records, date)
	if !ok {
		return domain.StockRecord{}, fmt.Errorf("no record dated %s: %w", date, ports.ErrNotFound)
	}
	return rec, nil
}

// History returns the most recent stored predictions for symbol, newest first.
func (s *PredictionService) History(ctx context.Context, symbol string, limit int) ([]*domain.Prediction, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("prediction history is not configured: %w", ports.ErrConfigurationError)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrInvalidRequest)
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	predictions, err := s.repo.FindBySymbol(ctx, symbol, limit)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load prediction history", map[string]interface{}{"symbol": symbol})
		return nil, err
	}
	return predictions, nil
}

// Scorecard scores stored predictions for one symbol and series against freshly fetched records.
func (s *PredictionService) Scorecard(ctx context.Context, req PredictRequest) (*analytics.Scorecard, error) {
	series := req.Series
	if series == "" {
		series = s.defaultSeries
	}
	history, err := s.History(ctx, req.Symbol, maxHistoryLimit)
	if err != nil {
		return nil, err
	}
	provider, err := s.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	matching := make([]*domain.Prediction, 0, len(history))
	for _, p := range history {
		if p.Series == series && p.Provider == provider.Name() {
			matching = append(matching, p)
		}
	}

	records, err := s.FetchRecords(ctx, ports.FetchRequest{Symbol: req.Symbol, Series: series, APIKey: req.APIKey}, provider.Name())
	if err != nil {
		return nil, fmt.Errorf("score predictions: %w", err)
	}

	sc := analytics.Evaluate(matching, records)
	sc.Series = series
	sc.Provider = provider.Name()
	s.logger.Info(ctx, "Scorecard computed", map[string]interface{}{
		"symbol":  strings.ToUpper(strings.TrimSpace(req.Symbol)),
		"series":  string(series),
		"total":   sc.Total,
		"hits":    sc.Hits,
		"misses":  sc.Misses,
		"hitRate": sc.HitRate,
	})
	return sc, nil
}

// Prediction returns one stored prediction by ID.
func (s *PredictionService) Prediction(ctx context.Context, id string) (*domain.Prediction, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("prediction history is not configured: %w", ports.ErrConfigurationError)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("prediction id is required: %w", ports.ErrInvalidRequest)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load prediction", map[string]interface{}{"predictionID": id})
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("prediction %s: %w", id, ports.ErrNotFound)
	}
	return p, nil
}

// ProviderStatus is the result of one provider connectivity check.
type ProviderStatus struct {
	Name    string
	Checked bool // False when the provider has no connectivity check
	Err     error
}

// CheckProviders pings every registered provider that implements ports.HealthChecker.
func (s *PredictionService) CheckProviders(ctx context.Context) []ProviderStatus {
	names := s.providers.Names()
	statuses := make([]ProviderStatus, 0, len(names))
	for _, name := range names {
		status := ProviderStatus{Name: name}
		provider, err := s.providers.Get(name)
		if err != nil {
			status.Checked, status.Err = true, err
			statuses = append(statuses, status)
			continue
		}
		if hc, ok := provider.(ports.HealthChecker); ok {
			spanCtx, span := trace.StartSpan(ctx, "provider.ping", attribute.String("provider", name))
			status.Checked = true
			status.Err = hc.Ping(spanCtx)
			trace.EndSpan(span, status.Err)
			if status.Err != nil {
				s.logger.Warn(ctx, "Provider health check failed", map[string]interface{}{"provider": name, "error": status.Err.Error()})
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
