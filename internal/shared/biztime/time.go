// Package biztime keeps time handling in one place. Everything is stored and
// compared in UTC; the configured location is only used to cut report
// buckets on local day boundaries.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const DefaultTimezone = "UTC"

var (
	bizLocation   *time.Location
	bizLocationMu sync.RWMutex
)

// Init sets the reporting timezone. An empty name selects UTC.
func Init(tz string) error {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	bizLocationMu.Lock()
	bizLocation = loc
	bizLocationMu.Unlock()
	return nil
}

// Location returns the reporting timezone, UTC until Init is called.
func Location() *time.Location {
	bizLocationMu.RLock()
	defer bizLocationMu.RUnlock()
	if bizLocation == nil {
		return time.UTC
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDayUTC returns local midnight of t's day, expressed in UTC.
func StartOfDayUTC(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location()).UTC()
}

// TruncateToHourInBiz truncates t to the start of its local hour, in UTC.
func TruncateToHourInBiz(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, Location()).UTC()
}

// ParseDateInBizTimezone parses YYYY-MM-DD as local midnight, returned in UTC.
func ParseDateInBizTimezone(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, dateStr, Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q: %w", dateStr, err)
	}
	return t.UTC(), nil
}
