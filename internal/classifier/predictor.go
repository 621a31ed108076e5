package classifier

import "stockDecoder/internal/domain"

// Decision is the outcome of classifying one query vector.
type Decision struct {
	Label domain.Label
	Gain  float64 // Information gain of the last split taken; 0 when the root is a leaf
	Depth int     // Number of splits taken to reach the leaf
}

// Predict walks tree with query until a leaf is reached.
func Predict(tree *Tree, query []float64) (Decision, error) {
	if tree == nil || tree.Root == nil {
		return Decision{}, &InvalidQueryError{Got: len(query)}
	}
	if len(query) != tree.Dimensions {
		return Decision{}, &InvalidQueryError{Want: tree.Dimensions, Got: len(query)}
	}

	var d Decision
	n := tree.Root
	for !n.IsLeaf() {
		d.Gain = n.Gain
		d.Depth++
		if query[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	d.Label = n.Label
	return d, nil
}

// Classify builds the training set, trains a tree and predicts the query record in one call.
// The query record is chosen by the caller; no ordering of records is assumed.
func Classify(trainer *Trainer, records []domain.StockRecord, query domain.StockRecord) (*Tree, Decision, error) {
	set, err := BuildDataset(records)
	if err != nil {
		return nil, Decision{}, err
	}
	tree, err := trainer.Train(set)
	if err != nil {
		return nil, Decision{}, err
	}
	d, err := Predict(tree, query.Features())
	if err != nil {
		return nil, Decision{}, err
	}
	return tree, d, nil
}
