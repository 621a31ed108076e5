package domain

import (
	"sort"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate interprets a record date key. Providers use plain dates, Alpha Vantage
// intraday keys add a time, and some feeds send RFC3339.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateBefore orders unparseable keys lexically ahead of every parseable date,
// so they are never chosen as the latest record.
func dateBefore(a, b string) bool {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		if ta.Equal(tb) {
			return a < b
		}
		return ta.Before(tb)
	case okA != okB:
		return okB
	default:
		return a < b
	}
}

// SortByDate orders records oldest first, in place.
func SortByDate(records []StockRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return dateBefore(records[i].Date, records[j].Date)
	})
}

// Latest returns the chronologically most recent record.
func Latest(records []StockRecord) (StockRecord, bool) {
	if len(records) == 0 {
		return StockRecord{}, false
	}
	latest := records[0]
	for _, r := range records[1:] {
		if dateBefore(latest.Date, r.Date) {
			latest = r
		}
	}
	return latest, true
}

// FindByDate returns the record keyed by date.
func FindByDate(records []StockRecord, date string) (StockRecord, bool) {
	for _, r := range records {
		if r.Date == date {
			return r, true
		}
	}
	return StockRecord{}, false
}
