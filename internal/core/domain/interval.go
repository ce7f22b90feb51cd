package domain

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultSyncInterval is used when an interval string cannot be parsed.
const DefaultSyncInterval = 24 * time.Hour

var intervalPattern = regexp.MustCompile(`^(\d+)([hdm])$`)

// NextSyncFrom converts an interval such as "6h", "2d" or "30m" into the next
// sync time relative to now. Empty, malformed or unsupported input falls back
// to now + 24h; that fallback is intentional and never an error.
func NextSyncFrom(interval string, now time.Time) time.Time {
	d, ok := ParseInterval(interval)
	if !ok {
		return now.Add(DefaultSyncInterval)
	}
	return now.Add(d)
}

// ParseInterval parses the `<integer><h|d|m>` form. ok is false when the
// string does not match.
func ParseInterval(interval string) (time.Duration, bool) {
	m := intervalPattern.FindStringSubmatch(interval)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}

	var unit time.Duration
	switch m[2] {
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "m":
		unit = time.Minute
	}
	return time.Duration(value) * unit, true
}
