package dataprocessing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "entrytally/internal/errors"
	"entrytally/pkg/contracts/domain"
)

func newTestExtractor() *Extractor {
	e := NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time {
		return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
	return e
}

// row builds a sheet row with the fixed column layout: date in column 0,
// region in column 4, status in column 5.
func row(date, region, status string) []Cell {
	return []Cell{
		CellFromString(date),
		EmptyCell(),
		EmptyCell(),
		EmptyCell(),
		CellFromString(region),
		CellFromString(status),
	}
}

func TestExtract_StatusFilter(t *testing.T) {
	rows := [][]Cell{
		row("2024-10-15", "NCR", "local"),
		row("2024-10-15", "NCR", "Imported"),
		row("2024-10-15", "NCR", "LOCAL"),
		row("2024-10-15", "NCR", "-"),
		row("2024-10-15", "NCR", ""),
		row("2024-10-15", "NCR", "pending"),
	}

	result, err := newTestExtractor().Extract(context.Background(), "Sheet1", rows, 2)
	require.NoError(t, err)

	assert.Len(t, result.Observations, 3)
	assert.Empty(t, result.Rejected)
	for _, obs := range result.Observations {
		assert.Equal(t, domain.NewDate(2024, time.October, 15), obs.Date)
		assert.Equal(t, domain.RegionNCR, obs.Region)
	}
}

func TestExtract_NarrowSheet(t *testing.T) {
	rows := [][]Cell{
		{TextCell("2024-10-15"), TextCell("NCR")},
	}

	_, err := newTestExtractor().Extract(context.Background(), "Sheet1", rows, 0)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientColumns)
}

func TestExtract_RejectsRowsWithoutUsableDate(t *testing.T) {
	rows := [][]Cell{
		row("2024-10-15", "NCR", "local"),
		row("no date here", "Region 5", "local"),
	}

	result, err := newTestExtractor().Extract(context.Background(), "Sheet1", rows, 2)
	require.NoError(t, err)

	assert.Len(t, result.Observations, 1)
	require.Len(t, result.Rejected, 1)
	// Row numbers are 1-based sheet positions, counting the skipped header.
	assert.Equal(t, 4, result.Rejected[0].Row)
	assert.Equal(t, "no date here", result.Rejected[0].RawDate)
	assert.Equal(t, "Region 5", result.Rejected[0].RawRegion)
}

func TestExtract_SheetNameRecovery(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
		want  domain.Date
	}{
		{"single month range", "Oct.1-15", domain.NewDate(2024, time.October, 15)},
		{"cross month range", "Jan 20-Feb.5", domain.NewDate(2024, time.February, 5)},
		{"spaced range", "Mar 1 - 15", domain.NewDate(2024, time.March, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]Cell{
				row("", "NCR", "local"),
				row("", "Region 5", "imported"),
			}

			result, err := newTestExtractor().Extract(context.Background(), tt.sheet, rows, 2)
			require.NoError(t, err)

			require.Len(t, result.Observations, 2)
			for _, obs := range result.Observations {
				assert.Equal(t, tt.want, obs.Date)
			}
		})
	}
}

func TestExtract_SheetNameRecoveryOnlyWhenNoRowHasDate(t *testing.T) {
	// One parseable row date disables the sheet-name fallback; the dateless
	// row is rejected instead of inheriting the sheet name's range.
	rows := [][]Cell{
		row("2024-10-15", "NCR", "local"),
		row("", "Region 5", "local"),
	}

	result, err := newTestExtractor().Extract(context.Background(), "Oct.1-15", rows, 2)
	require.NoError(t, err)

	assert.Len(t, result.Observations, 1)
	assert.Len(t, result.Rejected, 1)
}

func TestExtract_UnrecoverableSheetName(t *testing.T) {
	rows := [][]Cell{
		row("", "NCR", "local"),
	}

	result, err := newTestExtractor().Extract(context.Background(), "Totals", rows, 2)
	require.NoError(t, err)

	assert.Empty(t, result.Observations)
	assert.Len(t, result.Rejected, 1)
}

func TestExtract_AllRowsFiltered(t *testing.T) {
	rows := [][]Cell{
		row("2024-10-15", "NCR", "-"),
		row("2024-10-15", "Region 5", "-"),
	}

	result, err := newTestExtractor().Extract(context.Background(), "Sheet1", rows, 2)
	require.NoError(t, err)

	assert.Empty(t, result.Observations)
	assert.Empty(t, result.Rejected)
}

func TestExtract_RaggedRowsTolerated(t *testing.T) {
	rows := [][]Cell{
		row("2024-10-15", "NCR", "local"),
		{TextCell("2024-10-15")},
	}

	result, err := newTestExtractor().Extract(context.Background(), "Sheet1", rows, 0)
	require.NoError(t, err)

	// The short row has no status cell and is filtered out.
	assert.Len(t, result.Observations, 1)
}
