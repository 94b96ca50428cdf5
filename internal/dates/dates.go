// Package dates normalizes the date strings found in exported bank files.
//
// Bank exports are inconsistent about date formats, and the common ones are
// visually ambiguous with each other ("01.02.2024" vs "02/01/2024"), so the
// candidate layouts are tried in a fixed priority order to keep parsing
// deterministic.
package dates

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DisplayLayout is the fixed day-first format used when rendering dates back
// to the user and in CSV exports.
const DisplayLayout = "02.01.2006"

// layouts are tried strictly in order. Dot-separated day-first wins over ISO,
// which wins over US slash-separated. Go layouts without zero padding accept
// both padded and unpadded components, so "2.1.2006" covers "1.2.2024" and
// "01.02.2024" alike.
var layouts = []string{
	"2.1.2006",
	"2006-1-2",
	"1/2/2006",
}

// fallbackLayouts are the generic last-resort formats, least predictable and
// therefore tried last.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Parse converts a raw date cell into a calendar date. The second return
// value reports whether any layout matched; callers treat false as "no date".
func Parse(raw string) (civil.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return civil.Date{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// FormatDisplay renders a date as dd.mm.yyyy, or "" for the zero date.
func FormatDisplay(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.In(time.UTC).Format(DisplayLayout)
}
