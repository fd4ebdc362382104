// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"fmt"
	"time"
)

// Location is the registry's time zone. It falls back to UTC when tzdata is
// unavailable.
var Location = loadLocation("Europe/Brussels")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses a YYYY-MM-DD calendar date in the registry time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// Today returns the current calendar date in the registry time zone.
func Today() time.Time {
	now := time.Now().In(Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
}

// ValidateRange rejects reversed ranges and implausible years.
func ValidateRange(from, to time.Time) error {
	for _, d := range []time.Time{from, to} {
		if d.Year() <= 1900 || d.Year() >= 2100 {
			return fmt.Errorf("date %s out of range", d.Format(DateLayout))
		}
	}
	if from.After(to) {
		return fmt.Errorf("reversed date range: %s is after %s", from.Format(DateLayout), to.Format(DateLayout))
	}
	return nil
}
