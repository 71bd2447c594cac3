package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when a date filter is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

type Granularity string

const (
	GranularityDay  Granularity = "day"
	GranularityHour Granularity = "hour"
)

// Partitioner maps record timestamps and date filters onto partition keys.
// Days run from 00:00:00 inclusive to the next midnight exclusive in Location.
type Partitioner struct {
	Granularity Granularity
	Location    *time.Location
}

func NewPartitioner(granularity string, tz string) (Partitioner, error) {
	p := Partitioner{Granularity: GranularityDay, Location: time.UTC}
	switch Granularity(granularity) {
	case "", GranularityDay:
	case GranularityHour:
		p.Granularity = GranularityHour
	default:
		return Partitioner{}, fmt.Errorf("unknown partition granularity: %q", granularity)
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Partitioner{}, fmt.Errorf("load tz: %w", err)
		}
		p.Location = loc
	}
	return p, nil
}

func (p Partitioner) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p Partitioner) Key(ts int64) string {
	t := time.Unix(ts, 0).In(p.loc())
	if p.Granularity == GranularityHour {
		return t.Format("2006-01-02T15")
	}
	return t.Format(dateLayout)
}

// KeysForDate returns every partition covering date.
func (p Partitioner) KeysForDate(date string) ([]string, error) {
	start, err := time.ParseInLocation(dateLayout, date, p.loc())
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if p.Granularity != GranularityHour {
		return []string{start.Format(dateLayout)}, nil
	}
	end := start.AddDate(0, 0, 1)
	keys := make([]string, 0, 24)
	seen := make(map[string]struct{}, 25)
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		k := t.Format("2006-01-02T15")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// ValidateDate reports ErrInvalidDate for anything other than an empty
// string or a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
