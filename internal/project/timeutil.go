package project

import (
	"strings"
	"time"
)

// JST is the timezone every stored timestamp is expressed in.
var JST = time.FixedZone("JST", 9*60*60)

const (
	// DateLayout is used for news item dates.
	DateLayout = "2006-01-02"
	// DisplayLayout is the short listing format.
	DisplayLayout = "2006-01-02 15:04"
)

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	DateLayout,
}

// ParseTime accepts ISO-8601 timestamps with or without offset.
// Values without an offset are taken as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t in JST at second precision, e.g. 2025-01-02T09:30:00+09:00.
func FormatTime(t time.Time) string {
	return t.In(JST).Truncate(time.Second).Format(time.RFC3339)
}

// FormatDisplay renders a stored timestamp for listings. Unparseable input is returned as is.
func FormatDisplay(s string) string {
	if t, ok := ParseTime(s); ok {
		return t.In(JST).Format(DisplayLayout)
	}
	return s
}
