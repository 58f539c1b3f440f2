package dataprocessing

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "entrytally/internal/errors"
	"entrytally/pkg/contracts/domain"
)

// Fixed column layout of the source sheets (0-indexed, header rows skipped):
// entry date, region label, and the local/imported status marker.
const (
	dateColumn   = 0
	regionColumn = 4
	statusColumn = 5
	minColumns   = 6
)

// sheetRangePattern recognizes a month/day range in a sheet name, e.g.
// "Oct.1-15" or "Jan 20-Feb.5". The end of the range is the reporting date.
var sheetRangePattern = regexp.MustCompile(`([A-Za-z]+)\.?\s*(\d+)\s*[-–]\s*([A-Za-z]+\.?\s*)?(\d+)`)

// Extractor turns one tabular sheet into validated observations plus
// per-row diagnostics for the rows it drops.
type Extractor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExtractor creates an extractor. A nil logger falls back to slog.Default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger, now: time.Now}
}

// Extract applies the status filter, date normalization, and region
// normalization to the given rows. rowOffset is the number of sheet rows
// skipped before rows[0], used to report 1-based row numbers in diagnostics.
//
// A sheet too narrow to carry the status column fails with
// ErrInsufficientColumns; the caller skips the sheet and moves on.
func (e *Extractor) Extract(ctx context.Context, sheet string, rows [][]Cell, rowOffset int) (*domain.SheetResult, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < minColumns {
		return nil, apperrors.ErrInsufficientColumns
	}

	type candidate struct {
		rowNum     int
		date       domain.Date
		hasDate    bool
		dateCell   Cell
		regionCell Cell
	}

	var candidates []candidate
	for i, row := range rows {
		status := strings.ToLower(strings.TrimSpace(cellAt(row, statusColumn).Raw()))
		if status == "" || status == "-" {
			continue
		}
		if status != "local" && status != "imported" {
			continue
		}

		dateCell := cellAt(row, dateColumn)
		date, ok := NormalizeDate(dateCell)
		candidates = append(candidates, candidate{
			rowNum:     rowOffset + i + 1,
			date:       date,
			hasDate:    ok,
			dateCell:   dateCell,
			regionCell: cellAt(row, regionColumn),
		})
	}

	result := &domain.SheetResult{Sheet: sheet}
	if len(candidates) == 0 {
		return result, nil
	}

	// When no row carries a parseable date the reporting period usually
	// lives in the sheet name instead; recover its end date and apply it
	// to every surviving row.
	anyDate := false
	for _, c := range candidates {
		if c.hasDate {
			anyDate = true
			break
		}
	}
	if !anyDate {
		if recovered, ok := e.dateFromSheetName(sheet); ok {
			e.logger.InfoContext(ctx, "all row dates missing, using end date from sheet name",
				slog.String("sheet", sheet),
				slog.String("date", recovered.String()))
			for i := range candidates {
				candidates[i].date = recovered
				candidates[i].hasDate = true
			}
		}
	}

	for _, c := range candidates {
		if !c.hasDate {
			result.Rejected = append(result.Rejected, domain.RejectedRow{
				Row:       c.rowNum,
				RawDate:   c.dateCell.Raw(),
				RawRegion: c.regionCell.Raw(),
			})
			continue
		}
		result.Observations = append(result.Observations, domain.Observation{
			Date:   c.date,
			Region: NormalizeRegion(c.regionCell),
		})
	}

	return result, nil
}

// dateFromSheetName recovers the end date of a range expression in the sheet
// name. The year is taken from the clock; sheet titles never carry one.
func (e *Extractor) dateFromSheetName(sheet string) (domain.Date, bool) {
	m := sheetRangePattern.FindStringSubmatch(sheet)
	if m == nil {
		return domain.Date{}, false
	}

	monthStr := m[1]
	if m[3] != "" {
		monthStr = m[3]
	}
	month, ok := parseMonthName(monthStr)
	if !ok {
		return domain.Date{}, false
	}

	day, err := strconv.Atoi(m[4])
	if err != nil {
		return domain.Date{}, false
	}

	return makeDate(e.now().Year(), month, day)
}

// parseMonthName accepts abbreviated ("Oct", "Oct.") and full ("October")
// month names, case-insensitively.
func parseMonthName(s string) (time.Month, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if s == "" {
		return 0, false
	}
	// time.Parse month names are case-sensitive.
	s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	if len(s) >= 3 {
		if t, err := time.Parse("Jan", s[:3]); err == nil {
			return t.Month(), true
		}
	}
	if t, err := time.Parse("January", s); err == nil {
		return t.Month(), true
	}
	return 0, false
}

// cellAt returns the cell at idx, tolerating ragged rows.
func cellAt(row []Cell, idx int) Cell {
	if idx >= len(row) {
		return EmptyCell()
	}
	return row[idx]
}
