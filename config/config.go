package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockDecoder/internal/adapters/logger"
	"stockDecoder/internal/domain"
)

// Supported market data providers.
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderBinance      = "binance"
	ProviderYahoo        = "yahoo"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	HTTPAddr string

	// Market data
	DataProvider   string                // Default provider for requests that do not name one
	DefaultSeries  domain.TimeSeriesType // Default granularity
	RequestTimeout time.Duration
	MaxRetries     int

	// Alpha Vantage
	AlphaVantageBaseURL string
	AlphaVantageAPIKey  string

	// Binance
	BinanceAPIKey     string
	BinanceSecretKey  string
	BinanceTestnet    bool
	BinanceKlineLimit int

	// Classifier
	MaxTreeDepth int

	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "text" or "json"

	// Tracing
	TracingEnabled bool

	// Scheduler
	WatchlistFile string // YAML watchlist; empty disables scheduled predictions
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Market data
	cfg.DataProvider = strings.ToLower(getEnv("DATA_PROVIDER", ProviderAlphaVantage))
	switch cfg.DataProvider {
	case ProviderAlphaVantage, ProviderBinance, ProviderYahoo:
	default:
		errs = append(errs, fmt.Sprintf("DATA_PROVIDER must be one of %s, %s, %s", ProviderAlphaVantage, ProviderBinance, ProviderYahoo))
	}

	cfg.DefaultSeries, err = domain.ParseTimeSeriesType(getEnv("DEFAULT_SERIES", string(domain.SeriesMonthly)))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_SERIES: %v", err))
	}

	timeoutSeconds, err := getEnvAsIntRequired("REQUEST_TIMEOUT_SECONDS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REQUEST_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT_SECONDS must be positive")
	}
	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.MaxRetries = getEnvAsInt("MAX_RETRIES", 2)
	if cfg.MaxRetries < 0 {
		errs = append(errs, "MAX_RETRIES cannot be negative")
	}

	// Alpha Vantage
	cfg.AlphaVantageBaseURL = getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query")
	cfg.AlphaVantageAPIKey = getEnv("ALPHAVANTAGE_API_KEY", "")
	if cfg.DataProvider == ProviderAlphaVantage && cfg.AlphaVantageBaseURL == "" {
		errs = append(errs, "ALPHAVANTAGE_BASE_URL must be set")
	}

	// Binance
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.BinanceKlineLimit, err = getEnvAsIntRequired("BINANCE_KLINE_LIMIT", 500)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BINANCE_KLINE_LIMIT: %v", err))
	} else if cfg.BinanceKlineLimit <= 0 || cfg.BinanceKlineLimit > 1500 {
		errs = append(errs, "BINANCE_KLINE_LIMIT must be between 1 and 1500")
	}

	// Classifier
	cfg.MaxTreeDepth, err = getEnvAsIntRequired("MAX_TREE_DEPTH", 32)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_TREE_DEPTH: %v", err))
	} else if cfg.MaxTreeDepth <= 0 {
		errs = append(errs, "MAX_TREE_DEPTH must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/stock_decoder.db")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be text or json")
	}

	cfg.TracingEnabled = getEnvAsBool("TRACING_ENABLED", false)
	cfg.WatchlistFile = getEnv("WATCHLIST_FILE", "")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
