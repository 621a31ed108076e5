package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockDecoder/internal/domain"
)

func series() []domain.StockRecord {
	// up, down, up, up, down in chronological order; input deliberately shuffled
	return []domain.StockRecord{
		{Date: "2024-03-31", Open: 10, Close: 11},
		{Date: "2024-01-31", Open: 10, Close: 12},
		{Date: "2024-05-31", Open: 11, Close: 9},
		{Date: "2024-02-29", Open: 12, Close: 11},
		{Date: "2024-04-30", Open: 11, Close: 12},
	}
}

func pred(id, date string, label domain.Label, created time.Time) *domain.Prediction {
	return &domain.Prediction{ID: id, QueryDate: date, Label: label, CreatedAt: created}
}

func TestEvaluate(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	predictions := []*domain.Prediction{
		pred("p1", "2024-01-31", domain.LabelDown, base),                   // next Feb: down -> hit
		pred("p2", "2024-02-29", domain.LabelDown, base),                   // next Mar: up -> miss
		pred("p2-old", "2024-02-29", domain.LabelUp, base.Add(-time.Hour)), // superseded
		pred("p3", "2024-03-31", domain.LabelDown, base),                   // next Apr: up -> miss
		pred("p4", "2024-04-30", domain.LabelDown, base),                   // next May: down -> hit
		pred("p5", "2024-05-31", domain.LabelUp, base),                     // no later record
		pred("p6", "2023-12-31", domain.LabelUp, base),                     // not in series
	}

	sc := Evaluate(predictions, series())

	assert.Equal(t, 6, sc.Total)
	assert.Equal(t, 2, sc.Hits)
	assert.Equal(t, 2, sc.Misses)
	assert.Equal(t, 1, sc.Pending)
	assert.Equal(t, 1, sc.Unknown)
	assert.Equal(t, 0.5, sc.HitRate)
	assert.Equal(t, 1, sc.LongestHitStreak)
	assert.Equal(t, 2, sc.LongestMissStreak)

	require.Len(t, sc.Outcomes, 6)
	ids := make([]string, 0, len(sc.Outcomes))
	for _, o := range sc.Outcomes {
		ids = append(ids, o.PredictionID)
	}
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, ids)
	assert.Equal(t, Outcome{PredictionID: "p1", QueryDate: "2024-01-31", NextDate: "2024-02-29", Predicted: domain.LabelDown, Actual: domain.LabelDown, Status: StatusHit}, sc.Outcomes[0])
	assert.Equal(t, StatusPending, sc.Outcomes[4].Status)
	assert.Equal(t, StatusUnknown, sc.Outcomes[5].Status)

	assert.Equal(t, 4, sc.ByLabel[domain.LabelDown].Predicted)
	assert.Equal(t, 2, sc.ByLabel[domain.LabelDown].Hits)
	assert.Equal(t, 0.5, sc.ByLabel[domain.LabelDown].Precision)
	assert.Equal(t, 0, sc.ByLabel[domain.LabelUp].Predicted)
}

func TestEvaluate_Empty(t *testing.T) {
	sc := Evaluate(nil, nil)
	assert.Equal(t, 0, sc.Total)
	assert.Equal(t, 0.0, sc.HitRate)
	assert.Empty(t, sc.Outcomes)
}

func TestEvaluate_DoesNotReorderInput(t *testing.T) {
	records := series()
	Evaluate([]*domain.Prediction{pred("p", "2024-01-31", domain.LabelUp, time.Now())}, records)
	assert.Equal(t, "2024-03-31", records[0].Date)
}
