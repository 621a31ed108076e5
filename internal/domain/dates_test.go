package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-31", "2024-01-31 16:00:00", "2024-01-31T16:00:00Z"} {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseDate("January")
	assert.False(t, ok)
}

func TestSortByDate(t *testing.T) {
	records := []StockRecord{
		{Date: "zzz"},
		{Date: "2024-02-29"},
		{Date: "2023-12-29"},
		{Date: "2024-01-31 16:00:00"},
		{Date: "aaa"},
	}
	SortByDate(records)

	dates := make([]string, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	assert.Equal(t, []string{"aaa", "zzz", "2023-12-29", "2024-01-31 16:00:00", "2024-02-29"}, dates)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	// map-ordered input must not decide the query record
	latest, ok := Latest([]StockRecord{{Date: "2024-01-31"}, {Date: "2024-03-28"}, {Date: "2024-02-29"}})
	require.True(t, ok)
	assert.Equal(t, "2024-03-28", latest.Date)

	latest, ok = Latest([]StockRecord{{Date: "2024-01-31"}, {Date: "zzz"}, {Date: "2024-02-29"}})
	require.True(t, ok)
	assert.Equal(t, "2024-02-29", latest.Date)
}

func TestFindByDate(t *testing.T) {
	records := []StockRecord{{Date: "2024-01-31", Open: 1}, {Date: "2024-02-29", Open: 2}}

	r, ok := FindByDate(records, "2024-02-29")
	require.True(t, ok)
	assert.Equal(t, 2.0, r.Open)

	_, ok = FindByDate(records, "2024-03-31")
	assert.False(t, ok)
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, LabelUp, LabelFor(10, 12))
	assert.Equal(t, LabelDown, LabelFor(12, 11))
	assert.Equal(t, LabelDown, LabelFor(10, 10))
}

func TestParseTimeSeriesType(t *testing.T) {
	tests := []struct {
		input    string
		want     TimeSeriesType
		key      string
		function string
	}{
		{"monthly", SeriesMonthly, "Monthly Time Series", "TIME_SERIES_MONTHLY"},
		{" Weekly ", SeriesWeekly, "Weekly Time Series", "TIME_SERIES_WEEKLY"},
		{"DAILY", SeriesDaily, "Time Series (Daily)", "TIME_SERIES_DAILY"},
	}
	for _, tt := range tests {
		got, err := ParseTimeSeriesType(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.key, got.Key())
		assert.Equal(t, tt.function, got.Function())
	}

	_, err := ParseTimeSeriesType("hourly")
	assert.Error(t, err)
}

func TestPrediction_Message(t *testing.T) {
	assert.Equal(t, "Stock going up 📈", (&Prediction{Label: LabelUp}).Message())
	assert.Equal(t, "Stock going down 📉", (&Prediction{Label: LabelDown}).Message())
}
