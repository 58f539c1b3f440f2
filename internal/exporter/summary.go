package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "entrytally/internal/errors"
	"entrytally/pkg/contracts/domain"
)

const (
	titleRow        = 1
	headerRow       = 2
	firstDataRow    = 3
	regionColumn    = 1
	firstDateColumn = 2
)

// SummaryWriter maintains the region-row × date-column summary workbook.
// Two policies are supported: a full rebuild that regenerates the table from
// the complete ledger (no duplicate columns possible), and an incremental
// update that adds counts into an existing table located by header match.
type SummaryWriter struct {
	logger *slog.Logger
}

// NewSummaryWriter creates a summary writer. A nil logger falls back to
// slog.Default.
func NewSummaryWriter(logger *slog.Logger) *SummaryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryWriter{logger: logger}
}

// Rebuild regenerates the summary table from scratch: fixed region rows, one
// column per known date in ascending order, counts straight from the ledger.
// Zero or absent counts become empty cells, never a literal 0.
func (w *SummaryWriter) Rebuild(ctx context.Context, path string, counts map[domain.Region]map[domain.Date]int, dates []domain.Date) error {
	dates = domain.SortDates(append([]domain.Date(nil), dates...))
	if err := validateHeaders(dates); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := w.writeSkeleton(f, sheet, dates); err != nil {
		return err
	}

	regions := domain.AllRegions()
	for i, region := range regions {
		row := firstDataRow + i
		byDate := counts[region]
		for j, date := range dates {
			count := byDate[date]
			if count == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(firstDateColumn+j, row)
			if err != nil {
				return apperrors.NewStorageError("failed to address summary cell", err)
			}
			if err := f.SetCellValue(sheet, cell, count); err != nil {
				return apperrors.NewStorageError("failed to write summary cell", err)
			}
		}
	}

	if err := w.save(f, path); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "summary table rebuilt",
		slog.String("path", path),
		slog.Int("date_columns", len(dates)),
		slog.Int("region_rows", len(regions)))

	return nil
}

// Update adds one region's date→count increments into an existing summary
// table, creating the table when it does not exist yet. Columns are located
// through a side table keyed by rendered header, and increments are added to
// whatever value is present: applying the same increment twice doubles it.
// Dates without a matching column in a pre-existing table are skipped with a
// warning; the update never grows the column set of a table it did not create.
func (w *SummaryWriter) Update(ctx context.Context, path string, region domain.Region, increments map[domain.Date]int, knownDates []domain.Date) error {
	knownDates = domain.SortDates(append([]domain.Date(nil), knownDates...))
	if err := validateHeaders(knownDates); err != nil {
		return err
	}

	f, created, err := w.openOrCreate(path, knownDates)
	if err != nil {
		return err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	if !created {
		// A table from an earlier run may carry a stale title merge;
		// dissolve anything overlapping row 1 before re-merging across
		// the current header span.
		if err := w.remergeTitle(f, sheet); err != nil {
			return err
		}
	}

	dateColumns, err := w.dateColumns(f, sheet, knownDates)
	if err != nil {
		return err
	}

	regionRow, found, err := findRegionRow(f, sheet, region)
	if err != nil {
		return err
	}
	if !found {
		w.logger.WarnContext(ctx, "region not present in summary table, nothing to update",
			slog.String("region", region.String()),
			slog.String("path", path))
		return w.save(f, path)
	}

	for date, count := range increments {
		if count == 0 {
			continue
		}
		col, ok := dateColumns[date]
		if !ok {
			w.logger.WarnContext(ctx, "no column for date in summary table, skipping",
				slog.String("date", date.String()),
				slog.String("header", date.Header()))
			continue
		}

		cell, err := excelize.CoordinatesToCellName(col, regionRow)
		if err != nil {
			return apperrors.NewStorageError("failed to address summary cell", err)
		}
		current, err := readCount(f, sheet, cell)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, current+count); err != nil {
			return apperrors.NewStorageError("failed to write summary cell", err)
		}

		w.logger.DebugContext(ctx, "summary cell updated",
			slog.String("region", region.String()),
			slog.String("date", date.String()),
			slog.Int("previous", current),
			slog.Int("added", count))
	}

	return w.save(f, path)
}

// writeSkeleton lays out the title, header row, region rows, and styling.
func (w *SummaryWriter) writeSkeleton(f *excelize.File, sheet string, dates []domain.Date) error {
	if err := f.SetCellValue(sheet, "A1", summaryTitle(dates)); err != nil {
		return apperrors.NewStorageError("failed to write summary title", err)
	}

	lastCol := firstDateColumn + len(dates) - 1
	if lastCol < regionColumn {
		lastCol = regionColumn
	}
	if lastCol > regionColumn {
		lastColName, err := excelize.ColumnNumberToName(lastCol)
		if err != nil {
			return apperrors.NewStorageError("failed to compute title span", err)
		}
		if err := f.MergeCell(sheet, "A1", lastColName+"1"); err != nil {
			return apperrors.NewStorageError("failed to merge summary title", err)
		}
	}

	if err := f.SetCellValue(sheet, "A2", "REGIONS"); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}
	for j, date := range dates {
		cell, err := excelize.CoordinatesToCellName(firstDateColumn+j, headerRow)
		if err != nil {
			return apperrors.NewStorageError("failed to address header cell", err)
		}
		if err := f.SetCellValue(sheet, cell, date.Header()); err != nil {
			return apperrors.NewStorageError("failed to write header cell", err)
		}
	}

	regions := domain.AllRegions()
	for i, region := range regions {
		cell, err := excelize.CoordinatesToCellName(regionColumn, firstDataRow+i)
		if err != nil {
			return apperrors.NewStorageError("failed to address region cell", err)
		}
		if err := f.SetCellValue(sheet, cell, region.String()); err != nil {
			return apperrors.NewStorageError("failed to write region label", err)
		}
	}

	return w.applyStyles(f, sheet, lastCol, firstDataRow+len(regions)-1)
}

// applyStyles borders the populated grid, bolds and centers the two header
// rows, bolds the region label column, and centers the data cells.
func (w *SummaryWriter) applyStyles(f *excelize.File, sheet string, lastCol, lastRow int) error {
	border := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Border: border,
		Font:   &excelize.Font{Bold: true},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to create label style", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to create data style", err)
	}

	lastColName, err := excelize.ColumnNumberToName(lastCol)
	if err != nil {
		return apperrors.NewStorageError("failed to compute style span", err)
	}

	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s%d", lastColName, headerRow), headerStyle); err != nil {
		return apperrors.NewStorageError("failed to style header rows", err)
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", firstDataRow), fmt.Sprintf("A%d", lastRow), labelStyle); err != nil {
		return apperrors.NewStorageError("failed to style region column", err)
	}
	if lastCol > regionColumn {
		if err := f.SetCellStyle(sheet, fmt.Sprintf("B%d", firstDataRow), fmt.Sprintf("%s%d", lastColName, lastRow), dataStyle); err != nil {
			return apperrors.NewStorageError("failed to style data cells", err)
		}
	}

	return nil
}

// openOrCreate opens the workbook at path, or creates a fresh skeleton with
// one column per known date when the file does not exist.
func (w *SummaryWriter) openOrCreate(path string, knownDates []domain.Date) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f := excelize.NewFile()
		if err := w.writeSkeleton(f, f.GetSheetName(0), knownDates); err != nil {
			f.Close()
			return nil, false, err
		}
		return f, true, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, apperrors.NewStorageError("failed to open summary table", err).
			WithContext("path", path)
	}
	return f, false, nil
}

// remergeTitle dissolves any merge overlapping the title row, then merges
// the title across the current header width. Without this, repeated updates
// against a widened table would stack overlapping merge ranges.
func (w *SummaryWriter) remergeTitle(f *excelize.File, sheet string) error {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return apperrors.NewStorageError("failed to read merged ranges", err)
	}
	for _, merge := range merges {
		_, startRow, err := excelize.CellNameToCoordinates(merge.GetStartAxis())
		if err != nil {
			continue
		}
		if startRow == titleRow {
			if err := f.UnmergeCell(sheet, merge.GetStartAxis(), merge.GetEndAxis()); err != nil {
				return apperrors.NewStorageError("failed to dissolve title merge", err)
			}
		}
	}

	lastCol, err := lastHeaderColumn(f, sheet)
	if err != nil {
		return err
	}
	if lastCol > regionColumn {
		lastColName, err := excelize.ColumnNumberToName(lastCol)
		if err != nil {
			return apperrors.NewStorageError("failed to compute title span", err)
		}
		if err := f.MergeCell(sheet, "A1", lastColName+"1"); err != nil {
			return apperrors.NewStorageError("failed to merge summary title", err)
		}
	}

	return nil
}

// dateColumns builds the column→date side table by matching each header cell
// against the rendered headers of the known date set. The rendered header is
// how pre-existing tables identify columns, so matching goes through it, but
// the result is keyed by the full date.
func (w *SummaryWriter) dateColumns(f *excelize.File, sheet string, knownDates []domain.Date) (map[domain.Date]int, error) {
	byHeader := make(map[string]domain.Date, len(knownDates))
	for _, date := range knownDates {
		byHeader[date.Header()] = date
	}

	lastCol, err := lastHeaderColumn(f, sheet)
	if err != nil {
		return nil, err
	}

	columns := make(map[domain.Date]int)
	for col := firstDateColumn; col <= lastCol; col++ {
		cell, err := excelize.CoordinatesToCellName(col, headerRow)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to address header cell", err)
		}
		header, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to read header cell", err)
		}
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		date, ok := byHeader[header]
		if !ok {
			w.logger.Debug("unrecognized summary column header, leaving untouched",
				slog.String("header", header))
			continue
		}
		columns[date] = col
	}

	return columns, nil
}

// lastHeaderColumn returns the rightmost populated column of the header row.
func lastHeaderColumn(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to read summary sheet", err)
	}
	if len(rows) < headerRow {
		return regionColumn, nil
	}

	last := regionColumn
	for i, value := range rows[headerRow-1] {
		if strings.TrimSpace(value) != "" && i+1 > last {
			last = i + 1
		}
	}
	return last, nil
}

// findRegionRow locates a region's row by label match in the first column.
func findRegionRow(f *excelize.File, sheet string, region domain.Region) (int, bool, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, false, apperrors.NewStorageError("failed to read summary sheet", err)
	}
	for i := firstDataRow - 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && strings.TrimSpace(rows[i][0]) == region.String() {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// readCount reads a count cell, treating empty as zero.
func readCount(f *excelize.File, sheet, cell string) (int, error) {
	value, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to read summary cell", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperrors.NewParsingError("summary cell does not hold a count", err).
			WithContext("cell", cell).
			WithContext("value", value)
	}
	return int(parsed), nil
}

// validateHeaders rejects date sets whose day-month renderings collide, e.g.
// 2024-03-07 and 2025-03-07 both rendering "7-Mar". Header-based column
// lookup cannot distinguish them within one table.
func validateHeaders(dates []domain.Date) error {
	seen := make(map[string]domain.Date, len(dates))
	for _, date := range dates {
		if previous, ok := seen[date.Header()]; ok && previous != date {
			return apperrors.NewValidationError("dates collide on day-month header").
				WithContext("header", date.Header()).
				WithContext("dates", []string{previous.String(), date.String()})
		}
		seen[date.Header()] = date
	}
	return nil
}

// summaryTitle derives the title row from the year span of the known dates.
func summaryTitle(dates []domain.Date) string {
	years := make(map[int]bool)
	for _, date := range dates {
		years[date.Year] = true
	}

	switch len(years) {
	case 0:
		return "Daily Monitoring - Entry Count"
	case 1:
		for year := range years {
			return fmt.Sprintf("%d Daily Monitoring - Entry Count", year)
		}
	}

	first, last := 0, 0
	for year := range years {
		if first == 0 || year < first {
			first = year
		}
		if year > last {
			last = year
		}
	}
	return fmt.Sprintf("%d-%d Daily Monitoring - Entry Count", first, last)
}

// save writes the workbook, creating the parent directory when needed.
func (w *SummaryWriter) save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory for summary table", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save summary table", err).
			WithContext("path", path)
	}
	return nil
}
