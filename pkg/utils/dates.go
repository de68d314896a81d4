package utils

import (
	"fmt"
	"strings"
	"time"
)

// ParseSearchDate accepts a plain date ("2025-07-01") or an RFC 3339 timestamp
func ParseSearchDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse(DATE_LAYOUT, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s", value)
	}
	return t, nil
}

// FormatSearchDate renders t as a search date
func FormatSearchDate(t time.Time) string {
	return t.Format(DATE_LAYOUT)
}

// CoerceDepartureDate returns the normalized departure date, or today when value is unparsable.
// The second return value reports whether a default was used.
func CoerceDepartureDate(value string, now time.Time) (string, bool) {
	t, err := ParseSearchDate(value)
	if err != nil {
		return FormatSearchDate(now), true
	}
	return FormatSearchDate(t), false
}

// CoerceReturnDate returns the normalized return date, or departure + 7 days when value is unparsable
func CoerceReturnDate(value, departure string) (string, bool) {
	if t, err := ParseSearchDate(value); err == nil {
		return FormatSearchDate(t), false
	}

	dep, err := ParseSearchDate(departure)
	if err != nil {
		dep = time.Now()
	}
	return FormatSearchDate(dep.AddDate(0, 0, DefaultReturnOffsetDays)), true
}

// FormatDuration renders minutes as "2h 35m"
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
