package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockDecoder/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "stock-decoder-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "nested", "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestRepository_CreateAndFindByID(t *testing.T) {
	tests := []struct {
		name string
		pred *domain.Prediction
	}{
		{
			name: "generated id and timestamp",
			pred: &domain.Prediction{
				Symbol:       "IBM",
				Series:       domain.SeriesMonthly,
				Provider:     "alphavantage",
				QueryDate:    "2024-02-29",
				Label:        domain.LabelUp,
				Gain:         0.918,
				Depth:        1,
				TrainingSize: 3,
			},
		},
		{
			name: "caller supplied id",
			pred: &domain.Prediction{
				ID:           "6f1c3c9e-0000-4000-8000-000000000001",
				Symbol:       "ETHUSDT",
				Series:       domain.SeriesDaily,
				Provider:     "binance",
				QueryDate:    "2024-03-01",
				Label:        domain.LabelDown,
				TrainingSize: 1,
				CreatedAt:    time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cleanup := setupTestDB(t)
			defer cleanup()
			ctx := context.Background()

			suppliedID := tt.pred.ID
			id, err := repo.Create(ctx, tt.pred)
			require.NoError(t, err)
			if suppliedID != "" {
				assert.Equal(t, suppliedID, id)
			} else {
				_, err := uuid.Parse(id)
				assert.NoError(t, err)
			}

			found, err := repo.FindByID(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, found)

			assert.Equal(t, tt.pred.Symbol, found.Symbol)
			assert.Equal(t, tt.pred.Series, found.Series)
			assert.Equal(t, tt.pred.Provider, found.Provider)
			assert.Equal(t, tt.pred.QueryDate, found.QueryDate)
			assert.Equal(t, tt.pred.Label, found.Label)
			assert.InDelta(t, tt.pred.Gain, found.Gain, 1e-9)
			assert.Equal(t, tt.pred.Depth, found.Depth)
			assert.Equal(t, tt.pred.TrainingSize, found.TrainingSize)
			assert.True(t, tt.pred.CreatedAt.Equal(found.CreatedAt), "created_at %v != %v", tt.pred.CreatedAt, found.CreatedAt)
		})
	}
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	found, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_Create_Nil(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestRepository_FindBySymbol(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, date := range []string{"2024-01-31", "2024-02-29", "2024-03-31"} {
		_, err := repo.Create(ctx, &domain.Prediction{
			Symbol:    "IBM",
			Series:    domain.SeriesMonthly,
			Provider:  "alphavantage",
			QueryDate: date,
			Label:     domain.LabelUp,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &domain.Prediction{Symbol: "AAPL", Series: domain.SeriesMonthly, Provider: "yahoo", QueryDate: "2024-03-31", Label: domain.LabelDown})
	require.NoError(t, err)

	tests := []struct {
		name      string
		symbol    string
		limit     int
		wantDates []string
	}{
		{name: "newest first", symbol: "IBM", limit: 10, wantDates: []string{"2024-03-31", "2024-02-29", "2024-01-31"}},
		{name: "limited", symbol: "IBM", limit: 2, wantDates: []string{"2024-03-31", "2024-02-29"}},
		{name: "other symbol", symbol: "AAPL", limit: 10, wantDates: []string{"2024-03-31"}},
		{name: "unknown symbol", symbol: "MSFT", limit: 10, wantDates: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindBySymbol(ctx, tt.symbol, tt.limit)
			require.NoError(t, err)
			dates := make([]string, 0, len(found))
			for _, p := range found {
				assert.Equal(t, tt.symbol, p.Symbol)
				dates = append(dates, p.QueryDate)
			}
			assert.Equal(t, tt.wantDates, dates)
		})
	}
}
