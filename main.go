package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"
	"time"

	"stockDecoder/config"
	"stockDecoder/internal/adapters/httpapi"
	"stockDecoder/internal/bootstrap"
	"stockDecoder/internal/scheduler"
	"stockDecoder/internal/trace"
)

const version = "1.0.0"

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := bootstrap.NewLogger(cfg)
	defer bootstrap.SyncLogger(appLogger)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Tracing
	if err := trace.Init(trace.Config{Enabled: cfg.TracingEnabled, Version: version}); err != nil {
		log.Fatalf("FATAL: Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(ctx); err != nil {
			appLogger.Error(context.Background(), err, "Error shutting down tracer")
		}
	}()

	// 4. Initialize Providers, Repository and Application Service
	components, err := bootstrap.Build(cfg, appLogger, true)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize application")
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Prediction service initialized")

	// 5. Initialize HTTP Server
	server, err := httpapi.NewServer(httpapi.Config{
		Addr:         cfg.HTTPAddr,
		Service:      components.Service,
		Logger:       appLogger,
		Providers:    components.Registry.Names(),
		WriteTimeout: cfg.RequestTimeout*time.Duration(cfg.MaxRetries+1) + 10*time.Second,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 6. Optional Scheduler
	var sched *scheduler.Scheduler
	if cfg.WatchlistFile != "" {
		wl, err := scheduler.LoadWatchlist(cfg.WatchlistFile)
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to load watchlist", map[string]interface{}{"file": cfg.WatchlistFile})
			log.Fatalf("FATAL: Failed to load watchlist: %v", err)
		}
		sched = scheduler.New(components.Service, appLogger, cfg.RequestTimeout*time.Duration(cfg.MaxRetries+1))
		if err := sched.Register(wl); err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to register watchlist")
			log.Fatalf("FATAL: Failed to register watchlist: %v", err)
		}
		sched.Start()
	}

	// 7. Serve until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			appLogger.Error(context.Background(), err, "HTTP server exited with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(context.Background(), err, "Error shutting down HTTP server")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
