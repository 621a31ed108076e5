package domain

import "time"

// Prediction is the stored outcome of one classification request.
// The trained tree itself is never persisted.
type Prediction struct {
	ID           string         // UUID assigned on creation
	Symbol       string         // Security symbol (e.g., "IBM")
	Series       TimeSeriesType // Granularity of the training data
	Provider     string         // Market data provider name
	QueryDate    string         // Date of the record that was classified
	Label        Label          // Predicted direction
	Gain         float64        // Information gain of the last split on the decision path
	Depth        int            // Depth of the leaf that produced the label
	TrainingSize int            // Number of labeled examples the tree was trained on
	CreatedAt    time.Time
}

// Message returns the human readable verdict for the label.
func (p *Prediction) Message() string {
	if p.Label == LabelUp {
		return "Stock going up 📈"
	}
	return "Stock going down 📉"
}
