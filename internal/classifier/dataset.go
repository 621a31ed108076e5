package classifier

import "stockDecoder/internal/domain"

// LabeledExample pairs a feature vector with its direction label.
type LabeledExample struct {
	Features []float64
	Label    domain.Label
}

// TrainingSet is built fresh for every prediction and never reused.
type TrainingSet []LabeledExample

// BuildDataset labels every record: up iff close > open.
// Order and cardinality of the input are preserved.
func BuildDataset(records []domain.StockRecord) (TrainingSet, error) {
	if len(records) == 0 {
		return nil, &EmptyDatasetError{}
	}
	set := make(TrainingSet, 0, len(records))
	for _, r := range records {
		set = append(set, LabeledExample{
			Features: r.Features(),
			Label:    domain.LabelFor(r.Open, r.Close),
		})
	}
	return set, nil
}

// Counts returns the number of up and down examples.
func (s TrainingSet) Counts() (up, down int) {
	for _, ex := range s {
		if ex.Label == domain.LabelUp {
			up++
		} else {
			down++
		}
	}
	return up, down
}
