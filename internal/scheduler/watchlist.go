package scheduler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"stockDecoder/internal/domain"
)

// DefaultSchedule runs at 18:00:00 on weekdays.
const DefaultSchedule = "0 0 18 * * 1-5"

// Entry is one symbol to predict on a cron schedule.
type Entry struct {
	Symbol   string `yaml:"symbol"`
	Series   string `yaml:"series"`
	Provider string `yaml:"provider"`
	Schedule string `yaml:"schedule"` // Six-field cron expression (with seconds)
}

// Watchlist is the YAML document listing scheduled predictions.
type Watchlist struct {
	Entries []Entry `yaml:"entries"`
}

// LoadWatchlist reads and validates a watchlist file.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist decodes YAML data, fills defaults and validates every entry.
func ParseWatchlist(data []byte) (*Watchlist, error) {
	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	var errs []error
	for i := range wl.Entries {
		e := &wl.Entries[i]
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Symbol == "" {
			errs = append(errs, fmt.Errorf("entry %d: symbol is required", i))
		}
		if e.Series == "" {
			e.Series = string(domain.SeriesMonthly)
		}
		if _, err := domain.ParseTimeSeriesType(e.Series); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
		if strings.TrimSpace(e.Schedule) == "" {
			e.Schedule = DefaultSchedule
		}
		if _, err := cronParser.Parse(e.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: invalid schedule %q: %w", i, e.Schedule, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid watchlist: %w", errors.Join(errs...))
	}
	return &wl, nil
}
