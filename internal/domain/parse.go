package domain

import (
	"strconv"
	"strings"
	"time"
)

// MooringTimeLayout is the timestamp format of the mooring exports.
const MooringTimeLayout = "2006/01/02 15:04"

// ctdTimeLayouts are tried in order; the exports are day-first and sometimes
// omit the clock or carry seconds.
var ctdTimeLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// ParseDecimal parses a number that may use a comma decimal separator.
// Returns false for empty or non-numeric input.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseMooringTime parses a mooring export timestamp. Rows with unparseable
// timestamps are dropped by callers.
func ParseMooringTime(s string) (time.Time, bool) {
	t, err := time.Parse(MooringTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseCTDTime parses a day-first CTD cast timestamp.
func ParseCTDTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range ctdTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
