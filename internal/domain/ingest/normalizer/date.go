package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is the spreadsheet day-zero (1899-12-30); serial date numbers
// count days from it.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Date formats grouped by convention. ISO and unambiguous forms appear in
// both groups so the column-wide choice only decides the ambiguous ones.
var monthFirstFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"01-02-2006",
	"01.02.2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var dayFirstFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// DateColumn is the result of normalizing one raw date column. Values and
// Valid are aligned with the input rows; Dropped counts the rows whose
// dates could not be parsed under the chosen interpretation.
type DateColumn struct {
	Values   []time.Time
	Valid    []bool
	Dropped  int
	DayFirst bool
}

// NormalizeDates cleans a whole date column at once. The month-first versus
// day-first choice is column-wide, not per-row: a single export uses one
// convention consistently, and mixing interpretations row-by-row would
// silently corrupt dates.
//
// If the column is uniformly numeric the values are treated as spreadsheet
// serial date numbers. Otherwise month-first parsing runs over the whole
// column; when more than a third of values fail, the column is re-parsed
// day-first and whichever interpretation has strictly fewer failures wins
// (ties keep month-first).
func NormalizeDates(raw []string) DateColumn {
	if numericColumn(raw) {
		return normalizeSerialDates(raw)
	}

	monthFirst, monthFailures := parseColumn(raw, false)
	if monthFailures <= threshold(len(raw)) {
		return monthFirst
	}

	dayFirst, dayFailures := parseColumn(raw, true)
	if dayFailures < monthFailures {
		return dayFirst
	}
	return monthFirst
}

func threshold(total int) int {
	t := total / 3
	if t < 1 {
		t = 1
	}
	return t
}

func parseColumn(raw []string, dayFirst bool) (DateColumn, int) {
	col := DateColumn{
		Values:   make([]time.Time, len(raw)),
		Valid:    make([]bool, len(raw)),
		DayFirst: dayFirst,
	}
	for i, v := range raw {
		t, err := parseDate(v, dayFirst)
		if err != nil {
			col.Dropped++
			continue
		}
		col.Values[i] = t
		col.Valid[i] = true
	}
	return col, col.Dropped
}

// ParsesAsDate reports whether a single value parses as a calendar date
// under the given convention. Used by column detection to validate samples.
func ParsesAsDate(raw string, dayFirst bool) bool {
	_, err := parseDate(raw, dayFirst)
	return err == nil
}

func parseDate(raw string, dayFirst bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}

	formats := monthFirstFormats
	if dayFirst {
		formats = dayFirstFormats
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func normalizeSerialDates(raw []string) DateColumn {
	col := DateColumn{
		Values: make([]time.Time, len(raw)),
		Valid:  make([]bool, len(raw)),
	}
	for i, v := range raw {
		if v == "" {
			col.Dropped++
			continue
		}
		serial, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			col.Dropped++
			continue
		}
		days := math.Floor(serial)
		frac := serial - days
		col.Values[i] = serialEpoch.
			AddDate(0, 0, int(days)).
			Add(time.Duration(frac * 24 * float64(time.Hour)))
		col.Valid[i] = true
	}
	return col
}

// numericColumn reports whether every non-empty value parses as a plain
// number, with at least one non-empty value present.
func numericColumn(values []string) bool {
	seen := false
	for _, v := range values {
		if v == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err != nil {
			return false
		}
	}
	return seen
}
