package dataset

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a release date in any of the layouts seen in the dataset.
// Unparsable input reports ok == false and is treated as missing.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the whole number of days from ref to t, rounded toward
// negative infinity the way a timedelta's day component is.
// Unix seconds keep dates centuries apart exact where a time.Duration would
// saturate.
func DaysBetween(t, ref time.Time) int {
	const day = 24 * 60 * 60
	secs := t.Unix() - ref.Unix()
	days := secs / day
	if secs%day < 0 {
		days--
	}
	return int(days)
}
