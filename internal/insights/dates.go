package insights

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedDate marks a transaction date that cannot be normalized to a
// calendar date. It is fatal for the run: skipping the transaction instead
// would corrupt every aggregate denominator.
var ErrMalformedDate = errors.New("malformed transaction date")

// Accepted input layouts, most specific first. RFC 3339 covers both
// Z-suffixed and offset-suffixed datetimes.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normalizeDate parses a transaction date string and truncates it to a
// date-only value in UTC so that day arithmetic and grouping are exact.
func normalizeDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// daysBetween returns the whole number of days from a to b. Both arguments
// must already be date-only values from normalizeDate.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
