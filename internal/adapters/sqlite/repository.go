package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stockDecoder/internal/domain"
	"stockDecoder/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.PredictionRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
	now    func() time.Time
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/stock_decoder.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single writer connection avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger, now: time.Now}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		series TEXT NOT NULL,
		provider TEXT NOT NULL,
		query_date TEXT NOT NULL,
		label TEXT NOT NULL,
		gain REAL NOT NULL,
		depth INTEGER NOT NULL,
		training_size INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_symbol_created_at ON predictions (symbol, created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Create saves a new prediction, assigning ID and CreatedAt when they are unset.
func (r *Repository) Create(ctx context.Context, p *domain.Prediction) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil prediction: %w", ports.ErrInvalidRequest)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}

	const query = `
	INSERT INTO predictions (id, symbol, series, provider, query_date, label, gain, depth, training_size, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Symbol, string(p.Series), p.Provider, p.QueryDate, string(p.Label), p.Gain, p.Depth, p.TrainingSize, p.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert prediction for symbol %s: %w: %w", p.Symbol, ports.ErrQueryFailed, err)
	}

	r.logger.Debug(ctx, "Prediction stored", map[string]interface{}{"predictionID": p.ID, "symbol": p.Symbol, "label": p.Label})
	return p.ID, nil
}

// FindByID retrieves a prediction by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Prediction, error) {
	const query = `
	SELECT id, symbol, series, provider, query_date, label, gain, depth, training_size, created_at
	FROM predictions
	WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Prediction not found by ID", map[string]interface{}{"predictionID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query prediction by ID %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return p, nil
}

// FindBySymbol retrieves the most recent predictions for a symbol, up to limit.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Prediction, error) {
	const query = `
	SELECT id, symbol, series, provider, query_date, label, gain, depth, training_size, created_at
	FROM predictions
	WHERE symbol = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions for symbol %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	predictions := make([]*domain.Prediction, 0)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction during FindBySymbol: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction rows: %w", err)
	}
	return predictions, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(s scanner) (*domain.Prediction, error) {
	p := &domain.Prediction{}
	var series, label string
	err := s.Scan(
		&p.ID, &p.Symbol, &series, &p.Provider, &p.QueryDate, &label,
		&p.Gain, &p.Depth, &p.TrainingSize, &p.CreatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	p.Series = domain.TimeSeriesType(series)
	p.Label = domain.Label(label)
	return p, nil
}
