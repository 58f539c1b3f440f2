package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"entrytally/pkg/contracts/domain"
)

// excelEpoch is the serial-date anchor. Serial 1 renders as 1899-12-31.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// phantomLeapDay is the serial at which the nonexistent 1900-02-29 starts
// distorting the serial sequence; serials at or past it are shifted by one.
const phantomLeapDay = 59

// Range expressions seen in the date column of report sheets. The end of the
// range is the reporting date. Spaced and no-space variants are matched
// separately, in this order.
var (
	rangeFull         = regexp.MustCompile(`^(\d{4}[/-]\d{2}[/-]\d{2})\s*[-–]\s*(\d{4}[/-]\d{2}[/-]\d{2})$`)
	rangeShort        = regexp.MustCompile(`^(\d{4})[/-](\d{2})[/-](\d{2})\s*[-–]\s*(\d{2})$`)
	rangeFullCompact  = regexp.MustCompile(`^(\d{4}[/-]\d{2}[/-]\d{2})[-–](\d{4}[/-]\d{2}[/-]\d{2})$`)
	rangeShortCompact = regexp.MustCompile(`^(\d{4})[/-](\d{2})[/-](\d{2})[-–](\d{2})$`)
)

// dateLayouts are the exact formats tried, in order, before the permissive
// fallback. First successful layout wins, so day-first beats month-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
	"02.01.2006",
	"2006.01.02",
	"02 01 2006",
	"2006 01 02",
}

// NormalizeDate converts an arbitrary cell value into a calendar date.
// It is total: any input that cannot be understood yields ok=false, never an
// error. Malformed data is dropped by the caller, not fatal.
func NormalizeDate(c Cell) (domain.Date, bool) {
	switch c.Kind {
	case CellDate:
		return domain.DateOf(c.Date), true
	case CellText:
		return normalizeDateText(strings.TrimSpace(c.Text))
	case CellNumber:
		return dateFromSerial(c.Number)
	default:
		return domain.Date{}, false
	}
}

func normalizeDateText(val string) (domain.Date, bool) {
	if val == "" {
		return domain.Date{}, false
	}

	if m := rangeFull.FindStringSubmatch(val); m != nil {
		if d, ok := parseRangeEnd(m[2]); ok {
			return d, true
		}
	}
	if m := rangeShort.FindStringSubmatch(val); m != nil {
		if d, ok := rollShortRange(m[1], m[2], m[3], m[4]); ok {
			return d, true
		}
	}
	if m := rangeFullCompact.FindStringSubmatch(val); m != nil {
		if d, ok := parseRangeEnd(m[2]); ok {
			return d, true
		}
	}
	if m := rangeShortCompact.FindStringSubmatch(val); m != nil {
		if d, ok := rollShortRange(m[1], m[2], m[3], m[4]); ok {
			return d, true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return domain.DateOf(t), true
		}
	}

	// Last resort: permissive parse preferring day-first interpretation.
	if t, err := dateparse.ParseAny(val, dateparse.PreferMonthFirst(false)); err == nil {
		return domain.DateOf(t), true
	}

	return domain.Date{}, false
}

// parseRangeEnd parses the end date of a full range expression.
func parseRangeEnd(end string) (domain.Date, bool) {
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, end); err == nil {
			return domain.DateOf(t), true
		}
	}
	return domain.Date{}, false
}

// rollShortRange resolves the "YYYY/MM/DD-DD" form: the trailing day shares
// the start's year and month unless it is numerically smaller, in which case
// the range crossed into the next month (and possibly the next year).
func rollShortRange(yearStr, monthStr, startStr, endStr string) (domain.Date, bool) {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	startDay, _ := strconv.Atoi(startStr)
	endDay, _ := strconv.Atoi(endStr)

	if endDay < startDay {
		if month == 12 {
			year++
			month = 1
		} else {
			month++
		}
	}

	return makeDate(year, time.Month(month), endDay)
}

// makeDate builds a Date, rejecting component combinations that time.Date
// would silently normalize (November 31, month 13, ...).
func makeDate(year int, month time.Month, day int) (domain.Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return domain.Date{}, false
	}
	return domain.DateOf(t), true
}

// dateFromSerial interprets a numeric value as a spreadsheet date serial.
// Serials at or past the phantom 1900-02-29 are shifted by one day so that
// serial 59 is 1900-02-28 and serial 60 is 1900-03-01.
func dateFromSerial(v float64) (domain.Date, bool) {
	if v < 1 {
		return domain.Date{}, false
	}
	days := int(v)
	if days >= phantomLeapDay {
		days++
	}
	return domain.DateOf(excelEpoch.AddDate(0, 0, days)), true
}
