package classifier

import (
	"math"
	"strconv"
	"strings"

	"stockDecoder/internal/domain"
)

// ValidateRecords converts provider records into StockRecords.
// The first violation fails the whole batch; nothing is coerced or dropped.
func ValidateRecords(raw []domain.RawRecord) ([]domain.StockRecord, error) {
	records := make([]domain.StockRecord, 0, len(raw))
	for _, r := range raw {
		rec, err := validateRecord(r)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func validateRecord(r domain.RawRecord) (domain.StockRecord, error) {
	rec := domain.StockRecord{Date: r.Date}

	prices := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"open", r.Open, &rec.Open},
		{"high", r.High, &rec.High},
		{"low", r.Low, &rec.Low},
		{"close", r.Close, &rec.Close},
	}
	for _, p := range prices {
		v, err := parseFinite(p.value)
		if err != nil {
			return rec, &MalformedRecordError{Date: r.Date, Field: p.name, Reason: err.Error()}
		}
		*p.dst = v
	}

	vol, err := parseVolume(r.Volume)
	if err != nil {
		return rec, &MalformedRecordError{Date: r.Date, Field: "volume", Reason: err.Error()}
	}
	rec.Volume = vol

	for _, p := range prices {
		if *p.dst <= 0 {
			return rec, &MalformedRecordError{Date: r.Date, Field: p.name, Reason: "price must be positive"}
		}
	}
	if rec.Volume < 0 {
		return rec, &MalformedRecordError{Date: r.Date, Field: "volume", Reason: "volume must not be negative"}
	}
	if rec.High < rec.Low {
		return rec, &MalformedRecordError{Date: r.Date, Field: "high", Reason: "high is below low"}
	}
	if rec.High < rec.Open || rec.High < rec.Close {
		return rec, &MalformedRecordError{Date: r.Date, Field: "high", Reason: "high is below open or close"}
	}
	if rec.Low > rec.Open || rec.Low > rec.Close {
		return rec, &MalformedRecordError{Date: r.Date, Field: "low", Reason: "low is above open or close"}
	}
	return rec, nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// parseVolume accepts "1200" as well as integral decimals such as "1200.0".
func parseVolume(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, strconv.ErrSyntax
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, strconv.ErrRange
	}
	return int64(f), nil
}
