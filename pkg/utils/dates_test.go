package utils

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestParseSearchDate(t *testing.T) {
	got, err := ParseSearchDate("2025-07-01")
	assert.NilError(t, err)
	assert.Equal(t, got, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))

	got, err = ParseSearchDate("2025-07-01T10:30:00Z")
	assert.NilError(t, err)
	assert.Equal(t, FormatSearchDate(got), "2025-07-01")

	_, err = ParseSearchDate("07/01/2025")
	assert.ErrorContains(t, err, "invalid date format")

	_, err = ParseSearchDate("  ")
	assert.ErrorContains(t, err, "empty date")
}

func TestCoerceDates(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	dep, defaulted := CoerceDepartureDate("garbage", now)
	assert.Equal(t, dep, "2025-03-10")
	assert.Assert(t, defaulted)

	dep, defaulted = CoerceDepartureDate("2025-04-01", now)
	assert.Equal(t, dep, "2025-04-01")
	assert.Assert(t, !defaulted)

	ret, defaulted := CoerceReturnDate("", "2025-04-01")
	assert.Equal(t, ret, "2025-04-08")
	assert.Assert(t, defaulted)

	ret, defaulted = CoerceReturnDate("2025-04-05", "2025-04-01")
	assert.Equal(t, ret, "2025-04-05")
	assert.Assert(t, !defaulted)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, FormatDuration(155), "2h 35m")
	assert.Equal(t, FormatDuration(120), "2h")
	assert.Equal(t, FormatDuration(45), "45m")
	assert.Equal(t, FormatDuration(-3), "0m")
}
