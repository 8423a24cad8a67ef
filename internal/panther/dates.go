package panther

import (
	"fmt"
	"time"
)

// TimeLayout is the ISO 8601 form Panther's APIs expect, with milliseconds
// and a Z suffix.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultLookback is the window used when a tool is given no start date.
const DefaultLookback = 7 * 24 * time.Hour

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts RFC 3339 timestamps, with or without fractional seconds,
// and bare dates.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected ISO 8601, e.g. 2024-03-20T00:00:00Z", s)
}

// DateRange resolves optional start and end timestamps. A missing end is now
// and a missing start is DefaultLookback before the end.
func DateRange(start, end string, now time.Time) (string, string, error) {
	endT := now.UTC()
	if end != "" {
		t, err := ParseTime(end)
		if err != nil {
			return "", "", err
		}
		endT = t
	}
	startT := endT.Add(-DefaultLookback)
	if start != "" {
		t, err := ParseTime(start)
		if err != nil {
			return "", "", err
		}
		startT = t
	}
	if startT.After(endT) {
		return "", "", fmt.Errorf("start date %s is after end date %s", FormatTime(startT), FormatTime(endT))
	}
	return FormatTime(startT), FormatTime(endT), nil
}

// TodayRange returns midnight UTC of now's day and the following midnight.
func TodayRange(now time.Time) (string, string) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return FormatTime(start), FormatTime(start.Add(24 * time.Hour))
}
