package feedback

import (
	"errors"
	"strings"
	"time"
)

// DisplayLayout is how comment timestamps are shown.
const DisplayLayout = "2006-01-02 15:04"

// ErrUnrecognizedTimestamp is returned for timestamps no known layout accepts.
var ErrUnrecognizedTimestamp = errors.New("feedback: unrecognized timestamp")

// Tried in order. Fractional seconds are accepted after any seconds field.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.UnixDate,
	time.ANSIC,
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the backend has been seen to
// emit. Times are kept in the zone they carry; zoneless values are UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrUnrecognizedTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnrecognizedTimestamp
}

// FormatTimestamp renders raw as DisplayLayout, or returns raw unchanged when
// it cannot be parsed.
func FormatTimestamp(raw string) string {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return t.Format(DisplayLayout)
}
