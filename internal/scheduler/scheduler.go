// Package scheduler runs watchlist predictions on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stockDecoder/internal/app"
	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"
)

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Predictor is the part of the application service the scheduler drives.
type Predictor interface {
	Predict(ctx context.Context, req app.PredictRequest) (*app.PredictResult, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron      *cron.Cron
	predictor Predictor
	logger    ports.Logger
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. timeout bounds each scheduled prediction; zero disables it.
func New(predictor Predictor, logger ports.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(cron.WithParser(cronParser)),
		predictor: predictor,
		logger:    logger,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds a job for every watchlist entry.
func (s *Scheduler) Register(wl *Watchlist) error {
	for _, e := range wl.Entries {
		entry := e
		if _, err := s.cron.AddFunc(entry.Schedule, func() { s.run(entry) }); err != nil {
			return fmt.Errorf("register %s: %w", entry.Symbol, err)
		}
		s.logger.Info(context.Background(), "Scheduled prediction registered", map[string]interface{}{
			"symbol":   entry.Symbol,
			"series":   entry.Series,
			"provider": entry.Provider,
			"schedule": entry.Schedule,
		})
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(context.Background(), "Scheduler started", map[string]interface{}{"jobs": len(s.cron.Entries())})
}

// Stop cancels running predictions and waits for them to return.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	s.cancel()
	<-stopCtx.Done()
	s.wg.Wait()
	s.logger.Info(context.Background(), "Scheduler stopped")
}

// RunNow executes every watchlist entry immediately, one after another.
func (s *Scheduler) RunNow(wl *Watchlist) {
	for _, e := range wl.Entries {
		s.run(e)
	}
}

func (s *Scheduler) run(e Entry) {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	fields := map[string]interface{}{"symbol": e.Symbol, "series": e.Series, "provider": e.Provider}

	series, err := domain.ParseTimeSeriesType(e.Series)
	if err != nil {
		s.logger.Error(ctx, err, "Scheduled prediction skipped", fields)
		return
	}
	res, err := s.predictor.Predict(ctx, app.PredictRequest{Symbol: e.Symbol, Series: series, Provider: e.Provider})
	if err != nil {
		s.logger.Error(ctx, err, "Scheduled prediction failed", fields)
		return
	}
	s.logger.Info(ctx, "Scheduled prediction complete", fields, map[string]interface{}{
		"queryDate": res.Prediction.QueryDate,
		"label":     string(res.Prediction.Label),
		"message":   res.Prediction.Message(),
	})
}
