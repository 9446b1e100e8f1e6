// Package dates turns the date representations found in CRM and ticketing
// exports into calendar dates.
package dates

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bizdash/internal/tabular"
)

var ErrUnparseable = errors.New("unparseable date")

const (
	monthKeyLayout = "2006-01"
	isoLayout      = "2006-01-02"

	// Serial dates outside this window are almost always amounts or counts
	// that ended up in a date column.
	minSerialYear = 1950
	maxSerialYear = 2100
)

// Unambiguous layouts only. Slashed dates with the year last are handled by
// the day-first / month-first step.
var standardLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	isoLayout,
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"2 January 2006",
	"2 Jan 2006",
	"2 January 2006 15:04",
	"2 Jan 2006 15:04",
	"2 January 2006 15:04:05",
	"02-Jan-2006",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
	"Mon Jan 2 2006",
	"Mon Jan 2 2006 15:04:05",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Mon, 2 Jan 2006",
}

var monthYearPattern = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{4})$`)

var monthNames = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		monthNames[full] = m
		monthNames[full[:3]] = m
	}
	monthNames["sept"] = time.September
}

// Parse converts a cell value to a UTC calendar date.
func Parse(v tabular.Value) (time.Time, error) {
	switch v.Kind() {
	case tabular.KindDate:
		t, _ := v.Time()
		return truncate(t), nil
	case tabular.KindNumber:
		f, _ := v.Float()
		if t, ok := fromSerial(f); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseable, f)
	case tabular.KindText:
		return ParseString(v.String())
	default:
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}
}

// ParseString tries, in order: standard layouts, DD/MM/YYYY then MM/DD/YYYY
// (also with dots), YYYY-MM-DD then DD-MM-YYYY, a bare "<Month> <YYYY>", and
// spreadsheet serials.
func ParseString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}

	// Browser-style strings end with a zone name in parentheses.
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}

	for _, layout := range standardLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), nil
		}
	}

	for _, sep := range []string{"/", "."} {
		if parts := strings.Split(s, sep); len(parts) == 3 {
			day, month, year := parts[0], parts[1], stripTime(parts[2])
			if t, ok := build(year, month, day); ok {
				return t, nil
			}
			if t, ok := build(year, day, month); ok {
				return t, nil
			}
		}
	}

	if strings.Contains(s, "-") {
		if parts := strings.Split(stripTime(s), "-"); len(parts) == 3 {
			if t, ok := build(parts[0], parts[1], parts[2]); ok && len(strings.TrimSpace(parts[0])) == 4 {
				return t, nil
			}
			if t, ok := build(parts[2], parts[1], parts[0]); ok {
				return t, nil
			}
		}
	}

	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[2])
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := fromSerial(f); ok {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
}

func fromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 1000 {
		return time.Time{}, false
	}
	t := SerialToDate(serial)
	if t.Year() < minSerialYear || t.Year() >= maxSerialYear {
		return time.Time{}, false
	}
	return t, true
}

// SerialToDate decodes a spreadsheet serial day number without range checks.
// Serial 60 is the non-existent 1900-02-29, so later serials lose one extra day.
func SerialToDate(serial float64) time.Time {
	days := int(math.Floor(serial))
	offset := 1
	if days > 60 {
		offset = 2
	}
	return time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days-offset)
}

// build validates the parts as a real calendar date; time.Date would
// silently normalize 31/02 into March.
func build(yearStr, monthStr, dayStr string) (time.Time, bool) {
	yearStr = strings.TrimSpace(yearStr)
	if len(yearStr) != 2 && len(yearStr) != 4 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 0 {
		return time.Time{}, false
	}
	if len(yearStr) == 2 {
		year += 2000
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthStr))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayStr))
	if err != nil || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func stripTime(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i]
	}
	return s
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthKey is the YYYY-MM bucket key.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

func FormatISO(t time.Time) string {
	return t.Format(isoLayout)
}

// ParseMonthKey reads a YYYY-MM key back to the first of that month.
func ParseMonthKey(key string) (time.Time, error) {
	return time.Parse(monthKeyLayout, key)
}

// FirstOfMonth returns midnight UTC on the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
