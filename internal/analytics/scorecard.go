// Package analytics scores stored predictions against the records that followed them.
package analytics

import (
	"sort"

	"stockDecoder/internal/domain"
)

// OutcomeStatus describes how a prediction fared.
type OutcomeStatus string

const (
	StatusHit     OutcomeStatus = "hit"
	StatusMiss    OutcomeStatus = "miss"
	StatusPending OutcomeStatus = "pending" // No later record observed yet
	StatusUnknown OutcomeStatus = "unknown" // Query date is absent from the series
)

// Outcome pairs one prediction with the direction of the record that followed it.
type Outcome struct {
	PredictionID string
	QueryDate    string
	NextDate     string
	Predicted    domain.Label
	Actual       domain.Label
	Status       OutcomeStatus
}

// LabelStats counts resolved predictions for one label.
type LabelStats struct {
	Predicted int
	Hits      int
	Precision float64
}

// Scorecard summarises prediction accuracy for one symbol and series.
type Scorecard struct {
	Series   domain.TimeSeriesType // Set by the caller that fetched the records
	Provider string

	Total   int
	Hits    int
	Misses  int
	Pending int
	Unknown int
	HitRate float64 // Hits over resolved (hit + miss) predictions

	LongestHitStreak  int
	LongestMissStreak int

	ByLabel  map[domain.Label]*LabelStats
	Outcomes []Outcome
}

// Evaluate scores predictions against records. When several predictions share a
// query date only the most recently created one counts.
func Evaluate(predictions []*domain.Prediction, records []domain.StockRecord) *Scorecard {
	sc := &Scorecard{
		ByLabel: map[domain.Label]*LabelStats{
			domain.LabelUp:   {},
			domain.LabelDown: {},
		},
		Outcomes: make([]Outcome, 0),
	}

	sorted := make([]domain.StockRecord, len(records))
	copy(sorted, records)
	domain.SortByDate(sorted)
	index := make(map[string]int, len(sorted))
	for i, r := range sorted {
		index[r.Date] = i
	}

	latest := make(map[string]*domain.Prediction)
	for _, p := range predictions {
		if p == nil {
			continue
		}
		if cur, ok := latest[p.QueryDate]; !ok || p.CreatedAt.After(cur.CreatedAt) {
			latest[p.QueryDate] = p
		}
	}
	dates := make([]string, 0, len(latest))
	for d := range latest {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		_, iOk := index[dates[i]]
		_, jOk := index[dates[j]]
		if iOk && jOk {
			return index[dates[i]] < index[dates[j]]
		}
		if iOk != jOk {
			return iOk
		}
		return dates[i] < dates[j]
	})

	var hitStreak, missStreak int
	for _, d := range dates {
		p := latest[d]
		o := Outcome{PredictionID: p.ID, QueryDate: p.QueryDate, Predicted: p.Label}
		sc.Total++

		i, ok := index[p.QueryDate]
		switch {
		case !ok:
			o.Status = StatusUnknown
			sc.Unknown++
		case i+1 >= len(sorted):
			o.Status = StatusPending
			sc.Pending++
		default:
			next := sorted[i+1]
			o.NextDate = next.Date
			o.Actual = domain.LabelFor(next.Open, next.Close)
			stats := sc.ByLabel[p.Label]
			if stats == nil {
				stats = &LabelStats{}
				sc.ByLabel[p.Label] = stats
			}
			stats.Predicted++
			if o.Actual == p.Label {
				o.Status = StatusHit
				sc.Hits++
				stats.Hits++
				hitStreak++
				missStreak = 0
			} else {
				o.Status = StatusMiss
				sc.Misses++
				missStreak++
				hitStreak = 0
			}
			if hitStreak > sc.LongestHitStreak {
				sc.LongestHitStreak = hitStreak
			}
			if missStreak > sc.LongestMissStreak {
				sc.LongestMissStreak = missStreak
			}
		}
		sc.Outcomes = append(sc.Outcomes, o)
	}

	if resolved := sc.Hits + sc.Misses; resolved > 0 {
		sc.HitRate = float64(sc.Hits) / float64(resolved)
	}
	for _, stats := range sc.ByLabel {
		if stats.Predicted > 0 {
			stats.Precision = float64(stats.Hits) / float64(stats.Predicted)
		}
	}
	return sc
}
