package classifier

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockDecoder/internal/domain"
)

func record(date string, open, high, low, close float64, volume int64) domain.StockRecord {
	return domain.StockRecord{Date: date, Open: open, High: high, Low: low, Close: close, Volume: volume}
}

// monthly returns the three-record example used throughout the tests: up, down, up.
func monthly() []domain.StockRecord {
	return []domain.StockRecord{
		record("M1", 10, 13, 9, 12, 100),
		record("M2", 12, 13, 10, 11, 200),
		record("M3", 8, 10, 7, 9, 150),
	}
}

// syntheticRecords produces a mixed up/down series with distinct volumes.
func syntheticRecords(n int) []domain.StockRecord {
	records := make([]domain.StockRecord, 0, n)
	for i := 0; i < n; i++ {
		open := 100 + float64((i*37)%23)
		cls := open + float64((i*13)%7-3)
		records = append(records, record(
			"d"+string(rune('A'+i%26))+string(rune('a'+i/26)),
			open,
			math.Max(open, cls)+1+float64(i%3),
			math.Min(open, cls)-1-float64(i%2),
			cls,
			int64(1000+i*17),
		))
	}
	return records
}

func vec(x ...float64) []float64 {
	v := make([]float64, domain.NumFeatures)
	copy(v, x)
	return v
}

func mustTrainer(t *testing.T, maxDepth int) *Trainer {
	t.Helper()
	tr, err := NewTrainer(Config{MaxDepth: maxDepth})
	require.NoError(t, err)
	return tr
}

func collectLeaves(n *Node, out *[]*Node) {
	if n.IsLeaf() {
		*out = append(*out, n)
		return
	}
	collectLeaves(n.Left, out)
	collectLeaves(n.Right, out)
}

func TestNewTrainer(t *testing.T) {
	tests := []struct {
		name      string
		maxDepth  int
		wantDepth int
		wantErr   bool
	}{
		{name: "default depth", maxDepth: 0, wantDepth: DefaultMaxDepth},
		{name: "custom depth", maxDepth: 4, wantDepth: 4},
		{name: "negative depth", maxDepth: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTrainer(Config{MaxDepth: tt.maxDepth})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDepth, tr.MaxDepth())
		})
	}
}

func TestTrainer_Train_MonthlyExample(t *testing.T) {
	set, err := BuildDataset(monthly())
	require.NoError(t, err)

	tree, err := mustTrainer(t, 0).Train(set)
	require.NoError(t, err)

	require.False(t, tree.Root.IsLeaf())
	assert.Equal(t, domain.FeatureOpen, tree.Root.Feature)
	assert.Equal(t, 11.0, tree.Root.Threshold)
	assert.InDelta(t, 0.918296, tree.Root.Gain, 1e-6)
	assert.Equal(t, domain.LabelUp, tree.Root.Left.Label)
	assert.Equal(t, domain.LabelDown, tree.Root.Right.Label)
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, 2, tree.Leaves())
	assert.Equal(t, "open <= 11: up (2)\nopen > 11: down (1)", tree.String())
}

func TestTrainer_Train_SingleExample(t *testing.T) {
	set, err := BuildDataset([]domain.StockRecord{record("only", 10, 13, 9, 12, 100)})
	require.NoError(t, err)

	tree, err := mustTrainer(t, 0).Train(set)
	require.NoError(t, err)

	require.True(t, tree.Root.IsLeaf())
	assert.Equal(t, domain.LabelUp, tree.Root.Label)
	assert.Equal(t, ": up (1)", tree.String())

	for _, q := range [][]float64{vec(1, 2, 3, 4, 5), vec(1000, 1000, 1000, 1000, 1e9)} {
		d, err := Predict(tree, q)
		require.NoError(t, err)
		assert.Equal(t, domain.LabelUp, d.Label)
	}
}

func TestTrainer_Train_Errors(t *testing.T) {
	tr := mustTrainer(t, 0)

	_, err := tr.Train(nil)
	assert.True(t, errors.Is(err, ErrEmptyDataset))
	var empty *EmptyDatasetError
	assert.True(t, errors.As(err, &empty))

	_, err = tr.Train(TrainingSet{
		{Features: vec(1), Label: domain.LabelUp},
		{Features: []float64{1, 2}, Label: domain.LabelDown},
	})
	assert.Error(t, err)
}

func TestTrainer_Train_TieBreaking(t *testing.T) {
	tests := []struct {
		name          string
		set           TrainingSet
		wantFeature   domain.Feature
		wantThreshold float64
	}{
		{
			name: "feature priority prefers open",
			set: TrainingSet{
				{Features: vec(1, 3, 0.5, 2, 100), Label: domain.LabelUp},
				{Features: vec(5, 6, 3, 4, 100), Label: domain.LabelDown},
			},
			wantFeature:   domain.FeatureOpen,
			wantThreshold: 3,
		},
		{
			name: "feature priority prefers high over close",
			set: TrainingSet{
				{Features: vec(7, 1, 7, 1, 7), Label: domain.LabelUp},
				{Features: vec(7, 2, 7, 2, 7), Label: domain.LabelDown},
			},
			wantFeature:   domain.FeatureHigh,
			wantThreshold: 1.5,
		},
		{
			name: "equal gains prefer the smaller threshold",
			set: TrainingSet{
				{Features: vec(1, 1, 1, 1, 1), Label: domain.LabelUp},
				{Features: vec(2, 1, 1, 1, 1), Label: domain.LabelDown},
				{Features: vec(3, 1, 1, 1, 1), Label: domain.LabelUp},
			},
			wantFeature:   domain.FeatureOpen,
			wantThreshold: 1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := mustTrainer(t, 0).Train(tt.set)
			require.NoError(t, err)
			require.False(t, tree.Root.IsLeaf())
			assert.Equal(t, tt.wantFeature, tree.Root.Feature)
			assert.Equal(t, tt.wantThreshold, tree.Root.Threshold)
		})
	}
}

func TestTrainer_Train_MajorityLeaf(t *testing.T) {
	tests := []struct {
		name  string
		set   TrainingSet
		label domain.Label
	}{
		{
			name: "identical features with a label tie resolve to down",
			set: TrainingSet{
				{Features: vec(1, 1, 1, 1, 1), Label: domain.LabelUp},
				{Features: vec(1, 1, 1, 1, 1), Label: domain.LabelDown},
			},
			label: domain.LabelDown,
		},
		{
			name: "identical features with an up majority",
			set: TrainingSet{
				{Features: vec(1, 1, 1, 1, 1), Label: domain.LabelUp},
				{Features: vec(1, 1, 1, 1, 1), Label: domain.LabelDown},
				{Features: vec(1, 1, 1, 1, 1), Label: domain.LabelUp},
			},
			label: domain.LabelUp,
		},
		{
			name: "no split with positive gain",
			set: TrainingSet{
				{Features: vec(1, 1), Label: domain.LabelUp},
				{Features: vec(1, 2), Label: domain.LabelDown},
				{Features: vec(2, 1), Label: domain.LabelDown},
				{Features: vec(2, 2), Label: domain.LabelUp},
			},
			label: domain.LabelDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := mustTrainer(t, 0).Train(tt.set)
			require.NoError(t, err)
			require.True(t, tree.Root.IsLeaf())
			assert.Equal(t, tt.label, tree.Root.Label)
			assert.Equal(t, len(tt.set), tree.Root.Samples)
		})
	}
}

func TestTrainer_Train_DepthGuard(t *testing.T) {
	set := TrainingSet{
		{Features: vec(1), Label: domain.LabelUp},
		{Features: vec(2), Label: domain.LabelDown},
		{Features: vec(3), Label: domain.LabelUp},
	}

	unbounded, err := mustTrainer(t, 0).Train(set)
	require.NoError(t, err)
	assert.Equal(t, 2, unbounded.Depth())

	guarded, err := mustTrainer(t, 1).Train(set)
	require.NoError(t, err)
	assert.Equal(t, 1, guarded.Depth())

	// the right partition {down, up} is cut off and resolves to down
	d, err := Predict(guarded, vec(3))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelDown, d.Label)
}

func TestTrainer_Train_LeavesCarryBinaryLabels(t *testing.T) {
	set, err := BuildDataset(syntheticRecords(60))
	require.NoError(t, err)

	tree, err := mustTrainer(t, 0).Train(set)
	require.NoError(t, err)

	var leaves []*Node
	collectLeaves(tree.Root, &leaves)
	require.NotEmpty(t, leaves)
	for _, leaf := range leaves {
		assert.Contains(t, []domain.Label{domain.LabelUp, domain.LabelDown}, leaf.Label)
	}
	assert.Equal(t, len(leaves), tree.Leaves())
}

func TestTrainer_Train_ReproducesTrainingLabels(t *testing.T) {
	set, err := BuildDataset(syntheticRecords(40))
	require.NoError(t, err)

	tree, err := mustTrainer(t, 0).Train(set)
	require.NoError(t, err)
	require.Less(t, tree.Depth(), DefaultMaxDepth)

	for _, ex := range set {
		d, err := Predict(tree, ex.Features)
		require.NoError(t, err)
		assert.Equal(t, ex.Label, d.Label)
	}
}

func TestTrainer_Train_OrderIndependent(t *testing.T) {
	set, err := BuildDataset(syntheticRecords(50))
	require.NoError(t, err)

	tr := mustTrainer(t, 0)
	reference, err := tr.Train(set)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	queries := [][]float64{vec(100, 105, 95, 102, 1200), vec(110, 112, 108, 109, 1500), vec(120, 125, 119, 121, 1800)}
	for i := 0; i < 5; i++ {
		shuffled := make(TrainingSet, len(set))
		copy(shuffled, set)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		tree, err := tr.Train(shuffled)
		require.NoError(t, err)
		assert.Equal(t, reference.String(), tree.String())

		for _, q := range queries {
			want, err := Predict(reference, q)
			require.NoError(t, err)
			got, err := Predict(tree, q)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, midpoint(1, 2))
	a := 1.0
	b := math.Nextafter(a, 2)
	assert.Equal(t, a, midpoint(a, b))
}
