// Package httpapi exposes the prediction service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"stockDecoder/internal/analytics"
	"stockDecoder/internal/app"
	"stockDecoder/internal/classifier"
	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
	"stockDecoder/internal/trace"
)

const requestIDHeader = "X-Request-ID"

// Service is the subset of the application service the HTTP layer depends on.
type Service interface {
	FetchRecords(ctx context.Context, req ports.FetchRequest, provider string) ([]domain.StockRecord, error)
	Predict(ctx context.Context, req app.PredictRequest) (*app.PredictResult, error)
	History(ctx context.Context, symbol string, limit int) ([]*domain.Prediction, error)
	Scorecard(ctx context.Context, req app.PredictRequest) (*analytics.Scorecard, error)
	Prediction(ctx context.Context, id string) (*domain.Prediction, error)
	CheckProviders(ctx context.Context) []app.ProviderStatus
}

// Config holds configuration for the HTTP server.
type Config struct {
	Addr         string
	Service      Service
	Logger       ports.Logger
	Providers    []string // Reported by the health endpoint
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the stock prediction API.
type Server struct {
	svc       Service
	logger    ports.Logger
	providers []string
	router    *mux.Router
	http      *http.Server
}

// NewServer creates a server and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("service and logger are required for HTTP server")
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Minute
	}

	s := &Server{
		svc:       cfg.Service,
		logger:    cfg.Logger,
		providers: cfg.Providers,
		router:    mux.NewRouter(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(s.requestMiddleware)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/stocks").Subrouter()
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/scorecard", s.handleScorecard).Methods(http.MethodGet)
	api.HandleFunc("/predictions/{id}", s.handlePrediction).Methods(http.MethodGet)
	api.HandleFunc("/{series:monthly|weekly|daily}", s.handleRecords).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		ctx, span := trace.StartSpan(r.Context(), "HTTP "+r.Method,
			attribute.String("http.path", r.URL.Path),
			attribute.String("request.id", reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		trace.EndSpan(span, nil)

		fields := map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
			"requestID":  reqID,
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn(ctx, "HTTP request failed", fields)
		} else {
			s.logger.Debug(ctx, "HTTP request served", fields)
		}
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type recordJSON struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type recordsResponse struct {
	Symbol  string                `json:"symbol"`
	Series  string                `json:"series"`
	Count   int                   `json:"count"`
	Records map[string]recordJSON `json:"records"`
}

type predictionJSON struct {
	ID           string    `json:"id,omitempty"`
	Symbol       string    `json:"symbol"`
	Series       string    `json:"series"`
	Provider     string    `json:"provider"`
	QueryDate    string    `json:"queryDate"`
	Label        string    `json:"label"`
	Gain         float64   `json:"gain"`
	Depth        int       `json:"depth"`
	TrainingSize int       `json:"trainingSize"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

type historyResponse struct {
	Symbol      string           `json:"symbol"`
	Predictions []predictionJSON `json:"predictions"`
}

type outcomeJSON struct {
	PredictionID string `json:"predictionId"`
	QueryDate    string `json:"queryDate"`
	NextDate     string `json:"nextDate,omitempty"`
	Predicted    string `json:"predicted"`
	Actual       string `json:"actual,omitempty"`
	Status       string `json:"status"`
}

type labelStatsJSON struct {
	Predicted int     `json:"predicted"`
	Hits      int     `json:"hits"`
	Precision float64 `json:"precision"`
}

type scorecardResponse struct {
	Symbol            string                    `json:"symbol"`
	Series            string                    `json:"series"`
	Provider          string                    `json:"provider"`
	Total             int                       `json:"total"`
	Hits              int                       `json:"hits"`
	Misses            int                       `json:"misses"`
	Pending           int                       `json:"pending"`
	Unknown           int                       `json:"unknown"`
	HitRate           float64                   `json:"hitRate"`
	LongestHitStreak  int                       `json:"longestHitStreak"`
	LongestMissStreak int                       `json:"longestMissStreak"`
	ByLabel           map[string]labelStatsJSON `json:"byLabel"`
	Outcomes          []outcomeJSON             `json:"outcomes"`
}

type providerStatusJSON struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "providers": s.providers})
}

// handleReady pings providers that support it and reports 503 if any check fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	statuses := s.svc.CheckProviders(r.Context())
	status, code := "ok", http.StatusOK
	resp := make([]providerStatusJSON, 0, len(statuses))
	for _, st := range statuses {
		item := providerStatusJSON{Name: st.Name, Checked: st.Checked}
		if st.Err != nil {
			item.Error = st.Err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}
		resp = append(resp, item)
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "providers": resp})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Prediction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionJSON(p))
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	series, err := domain.ParseTimeSeriesType(mux.Vars(r)["series"])
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err))
		return
	}
	q := r.URL.Query()
	symbol := q.Get("symbol")
	records, err := s.svc.FetchRecords(r.Context(), ports.FetchRequest{Symbol: symbol, Series: series, APIKey: q.Get("apiKey")}, q.Get("provider"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := recordsResponse{
		Symbol:  strings.ToUpper(strings.TrimSpace(symbol)),
		Series:  string(series),
		Count:   len(records),
		Records: make(map[string]recordJSON, len(records)),
	}
	for _, rec := range records {
		resp.Records[rec.Date] = recordJSON{Open: rec.Open, High: rec.High, Low: rec.Low, Close: rec.Close, Volume: rec.Volume}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	req, err := predictRequestFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Predict(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionJSON(res.Prediction))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", ports.ErrInvalidRequest))
			return
		}
		limit = n
	}
	symbol := q.Get("symbol")
	predictions, err := s.svc.History(r.Context(), symbol, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := historyResponse{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Predictions: make([]predictionJSON, 0, len(predictions))}
	for _, p := range predictions {
		resp.Predictions = append(resp.Predictions, toPredictionJSON(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScorecard(w http.ResponseWriter, r *http.Request) {
	req, err := predictRequestFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.svc.Scorecard(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := scorecardResponse{
		Symbol:            strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Series:            string(sc.Series),
		Provider:          sc.Provider,
		Total:             sc.Total,
		Hits:              sc.Hits,
		Misses:            sc.Misses,
		Pending:           sc.Pending,
		Unknown:           sc.Unknown,
		HitRate:           sc.HitRate,
		LongestHitStreak:  sc.LongestHitStreak,
		LongestMissStreak: sc.LongestMissStreak,
		ByLabel:           make(map[string]labelStatsJSON, len(sc.ByLabel)),
		Outcomes:          make([]outcomeJSON, 0, len(sc.Outcomes)),
	}
	for label, st := range sc.ByLabel {
		if st == nil {
			continue
		}
		resp.ByLabel[string(label)] = labelStatsJSON{Predicted: st.Predicted, Hits: st.Hits, Precision: st.Precision}
	}
	for _, o := range sc.Outcomes {
		resp.Outcomes = append(resp.Outcomes, outcomeJSON{
			PredictionID: o.PredictionID,
			QueryDate:    o.QueryDate,
			NextDate:     o.NextDate,
			Predicted:    string(o.Predicted),
			Actual:       string(o.Actual),
			Status:       string(o.Status),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func predictRequestFrom(r *http.Request) (app.PredictRequest, error) {
	q := r.URL.Query()
	req := app.PredictRequest{
		Symbol:   q.Get("symbol"),
		Provider: q.Get("provider"),
		Date:     q.Get("date"),
		APIKey:   q.Get("apiKey"),
	}
	if raw := q.Get("series"); raw != "" {
		series, err := domain.ParseTimeSeriesType(raw)
		if err != nil {
			return req, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err)
		}
		req.Series = series
	}
	return req, nil
}

func toPredictionJSON(p *domain.Prediction) predictionJSON {
	return predictionJSON{
		ID:           p.ID,
		Symbol:       p.Symbol,
		Series:       string(p.Series),
		Provider:     p.Provider,
		QueryDate:    p.QueryDate,
		Label:        string(p.Label),
		Gain:         p.Gain,
		Depth:        p.Depth,
		TrainingSize: p.TrainingSize,
		Message:      p.Message(),
		CreatedAt:    p.CreatedAt,
	}
}

// StatusFor maps application errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, classifier.ErrMalformedRecord), errors.Is(err, classifier.ErrEmptyDataset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, classifier.ErrInvalidQuery),
		errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, ports.ErrUnknownProvider),
		errors.Is(err, ports.ErrUnsupportedSeries):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ports.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ports.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ports.ErrConfigurationError):
		return http.StatusServiceUnavailable
	case errors.Is(err, ports.ErrProviderUnavailable),
		errors.Is(err, ports.ErrConnectionFailed),
		errors.Is(err, ports.ErrContextCanceled),
		errors.Is(err, ports.ErrUnknown):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	fields := map[string]interface{}{"path": r.URL.Path, "status": status}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", fields)
	} else {
		s.logger.Info(r.Context(), "Request rejected", fields, map[string]interface{}{"error": err.Error()})
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
