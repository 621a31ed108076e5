package ports

import (
	"context"

	"stockDecoder/internal/domain"
)

// PredictionRepository stores and retrieves prediction outcomes.
type PredictionRepository interface {
	// Create saves a new prediction and returns its assigned ID.
	Create(ctx context.Context, p *domain.Prediction) (string, error)
	// FindByID retrieves a prediction by its ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id string) (*domain.Prediction, error)
	// FindBySymbol retrieves the most recent predictions for a symbol, newest first, up to limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Prediction, error)
}
