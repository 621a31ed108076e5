package bootstrap

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockDecoder/config"
	"stockDecoder/internal/adapters/logger"
	"stockDecoder/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataProvider:        config.ProviderYahoo,
		DefaultSeries:       domain.SeriesWeekly,
		RequestTimeout:      time.Second,
		AlphaVantageBaseURL: "http://127.0.0.1:1/query",
		BinanceKlineLimit:   10,
		MaxTreeDepth:        8,
		DBPath:              filepath.Join(t.TempDir(), "decoder.db"),
		LogLevel:            logger.LevelError,
		LogFormat:           "text",
	}
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t)
	assert.IsType(t, &logger.StdLogger{}, NewLogger(cfg))

	cfg.LogFormat = "json"
	l := NewLogger(cfg)
	assert.IsType(t, &logger.ZapLogger{}, l)
	SyncLogger(l)
}

func TestNewRegistry(t *testing.T) {
	cfg := testConfig(t)
	registry, err := NewRegistry(cfg, NewLogger(cfg))
	require.NoError(t, err)
	assert.Equal(t, []string{"alphavantage", "binance", "yahoo"}, registry.Names())

	p, err := registry.Get("")
	require.NoError(t, err)
	assert.Equal(t, config.ProviderYahoo, p.Name())
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	log := NewLogger(cfg)

	c, err := Build(cfg, log, false)
	require.NoError(t, err)
	assert.Nil(t, c.Repo)
	assert.Equal(t, domain.SeriesWeekly, c.Service.DefaultSeries())
	assert.NoError(t, c.Close())

	c, err = Build(cfg, log, true)
	require.NoError(t, err)
	require.NotNil(t, c.Repo)
	assert.NoError(t, c.Close())
}
