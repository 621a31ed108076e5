package classifier

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockDecoder/internal/domain"
)

func raw(date, open, high, low, close, volume string) domain.RawRecord {
	return domain.RawRecord{Date: date, Open: open, High: high, Low: low, Close: close, Volume: volume}
}

func TestValidateRecords(t *testing.T) {
	tests := []struct {
		name      string
		input     []domain.RawRecord
		want      []domain.StockRecord
		wantDate  string
		wantField string
	}{
		{
			name:  "valid records",
			input: []domain.RawRecord{raw("2024-01-31", "10", "13", "9", "12", "1000"), raw("2024-02-29", " 12.5 ", "13.0", "10.25", "11", "2000")},
			want: []domain.StockRecord{
				{Date: "2024-01-31", Open: 10, High: 13, Low: 9, Close: 12, Volume: 1000},
				{Date: "2024-02-29", Open: 12.5, High: 13, Low: 10.25, Close: 11, Volume: 2000},
			},
		},
		{
			name:  "integral decimal volume",
			input: []domain.RawRecord{raw("d1", "10", "11", "9", "10", "1200.0")},
			want:  []domain.StockRecord{{Date: "d1", Open: 10, High: 11, Low: 9, Close: 10, Volume: 1200}},
		},
		{
			name:  "zero volume is allowed",
			input: []domain.RawRecord{raw("d1", "10", "11", "9", "10", "0")},
			want:  []domain.StockRecord{{Date: "d1", Open: 10, High: 11, Low: 9, Close: 10, Volume: 0}},
		},
		{
			name:      "high below low",
			input:     []domain.RawRecord{raw("2024-03-31", "10", "9", "11", "10", "100")},
			wantDate:  "2024-03-31",
			wantField: "high",
		},
		{
			name:      "unparseable open",
			input:     []domain.RawRecord{raw("d1", "abc", "11", "9", "10", "100")},
			wantDate:  "d1",
			wantField: "open",
		},
		{
			name:      "NaN close",
			input:     []domain.RawRecord{raw("d1", "10", "11", "9", "NaN", "100")},
			wantDate:  "d1",
			wantField: "close",
		},
		{
			name:      "infinite low",
			input:     []domain.RawRecord{raw("d1", "10", "11", "-Inf", "10", "100")},
			wantDate:  "d1",
			wantField: "low",
		},
		{
			name:      "empty high",
			input:     []domain.RawRecord{raw("d1", "10", "", "9", "10", "100")},
			wantDate:  "d1",
			wantField: "high",
		},
		{
			name:      "negative volume",
			input:     []domain.RawRecord{raw("d1", "10", "11", "9", "10", "-5")},
			wantDate:  "d1",
			wantField: "volume",
		},
		{
			name:      "fractional volume",
			input:     []domain.RawRecord{raw("d1", "10", "11", "9", "10", "12.5")},
			wantDate:  "d1",
			wantField: "volume",
		},
		{
			name:      "zero price",
			input:     []domain.RawRecord{raw("d1", "0", "11", "9", "10", "100")},
			wantDate:  "d1",
			wantField: "open",
		},
		{
			name:      "high below close",
			input:     []domain.RawRecord{raw("d1", "10", "11", "9", "12", "100")},
			wantDate:  "d1",
			wantField: "high",
		},
		{
			name:      "low above open",
			input:     []domain.RawRecord{raw("d1", "10", "12", "10.5", "11", "100")},
			wantDate:  "d1",
			wantField: "low",
		},
		{
			name: "first violation fails the batch",
			input: []domain.RawRecord{
				raw("ok", "10", "11", "9", "10", "100"),
				raw("first", "10", "9", "11", "10", "100"),
				raw("second", "x", "11", "9", "10", "100"),
			},
			wantDate:  "first",
			wantField: "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRecords(tt.input)
			if tt.wantField != "" {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.True(t, errors.Is(err, ErrMalformedRecord))

				var mre *MalformedRecordError
				require.True(t, errors.As(err, &mre))
				assert.Equal(t, tt.wantDate, mre.Date)
				assert.Equal(t, tt.wantField, mre.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRecords_VolumeOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		volume string
	}{
		{name: "two to the 63rd", volume: "9223372036854775808"},
		{name: "decimal two to the 63rd", volume: "9223372036854775808.0"},
		{name: "far above int64", volume: "1e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRecords([]domain.RawRecord{raw("d1", "10", "11", "9", "10", tt.volume)})
			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, "volume", mre.Field)
			assert.Equal(t, strconv.ErrRange.Error(), mre.Reason)
		})
	}

	got, err := ValidateRecords([]domain.RawRecord{raw("d1", "10", "11", "9", "10", "9223372036854775807")})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got[0].Volume)
}

func TestValidateRecords_Empty(t *testing.T) {
	got, err := ValidateRecords(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
