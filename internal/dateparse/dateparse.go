// Package dateparse normalizes the date and timestamp strings found in panel
// exports. Panels disagree about everything: some sheets carry Excel serial
// numbers, some dd/mm/yyyy with or without a 12h clock, some ISO strings,
// some spelled-out month names. Parsing is best effort and never fails the
// row; callers that need a hard failure use the date-only variant.
package dateparse

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Critical: dd/mm/yyyy layouts MUST come before mm/dd/yyyy. The source
// panels are day-first and an ambiguous 03/04/2025 has to resolve to 3 April.
var timestampLayouts = []string{
	// dd/mm/yyyy variants, with and without time
	"02/01/2006, 03:04:05 pm", "02/01/2006, 03:04:05 PM",
	"2/1/2006, 3:04:05 pm", "2/1/2006, 3:04:05 PM",
	"02/01/2006 03:04:05 pm", "02/01/2006 03:04:05 PM",
	"2/1/2006 3:04:05 pm", "2/1/2006 3:04:05 PM",
	"02/01/2006 15:04:05", "2/1/2006 15:04:05",
	"02/01/2006 15:04", "2/1/2006 15:04",
	"02/01/2006", "2/1/2006",
	// ISO-ish layouts, catches Excel exports that already render as text
	"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339, "2006-01-02",
	// Named month formats
	"January 2, 2006 15:04:05", "January 2, 2006", "January 2 2006",
	"Jan 2, 2006 15:04:05", "Jan 2, 2006", "Jan 2 2006",
	// dd-mm-yyyy variants
	"02-01-2006 15:04:05", "02-01-2006", "2-1-2006",
}

var quoteRe = regexp.MustCompile(`['"]+`)

// ToTimestamp resolves a raw cell into a timestamp. Excel serial numbers are
// tried first, then the layout list, then a generic fallback. A value that
// resolves nowhere yields time.Now() with a warning; a row is never rejected
// for its date alone.
func ToTimestamp(raw string) time.Time {
	if t, ok := parse(raw); ok {
		return t
	}
	if strings.TrimSpace(raw) != "" {
		log.Printf("[WARN] unrecognized date format: %q, defaulting to now", raw)
	}
	return time.Now().UTC()
}

// ToDateOnly is the strict variant used by the panel-ledger import: same
// pattern set, date-only output, and a false flag instead of "now" when
// nothing matches.
func ToDateOnly(raw string) (string, bool) {
	if t, ok := parse(raw); ok {
		return t.Format("2006-01-02"), true
	}
	if strings.TrimSpace(raw) != "" {
		log.Printf("[WARN] unrecognized date format: %q", raw)
	}
	return "", false
}

func parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(quoteRe.ReplaceAllString(raw, ""))
	if s == "" {
		return time.Time{}, false
	}
	if t, err := parseExcelSerial(s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Generic fallback for "dd/mm/yyyy, <anything>" tails the layouts miss.
	if i := strings.IndexAny(s, ", "); i > 0 {
		head := s[:i]
		for _, layout := range []string{"02/01/2006", "2/1/2006", "2006-01-02", "02-01-2006"} {
			if t, err := time.Parse(layout, head); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseExcelSerial converts an Excel serial date (possibly with a fractional
// day for the time of day) into a time.Time. The 1899-12-30 epoch already
// absorbs Excel's phantom 1900-02-29, so no further adjustment is needed.
func parseExcelSerial(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if f < 1 || f > 99999 {
		return time.Time{}, strconv.ErrRange
	}
	days := int(f)
	frac := f - float64(days)
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	d := base.AddDate(0, 0, days)
	d = d.Add(time.Duration(frac * float64(24*time.Hour)))
	return d, nil
}
