package dataprocessing

import (
	"strconv"
	"strings"
	"time"
)

// CellKind discriminates the Cell variant.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is a tagged union over the value shapes a spreadsheet cell can carry:
// free text, a number (possibly a date serial), a native date, or nothing.
// Normalizers pattern-match on Kind instead of doing runtime type inspection.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

// EmptyCell returns the empty variant.
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// TextCell returns a text variant.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric variant.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// DateCell returns a native date variant.
func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Date: t}
}

// CellFromString classifies a raw cell string the way the sheet reader hands
// them over: blank is empty, something that parses as a number is numeric,
// everything else is text. Leading/trailing whitespace does not change the
// classification but is preserved in the Text variant for diagnostics.
func CellFromString(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EmptyCell()
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberCell(v)
	}
	return TextCell(raw)
}

// IsEmpty reports whether the cell is the empty variant or blank text.
func (c Cell) IsEmpty() bool {
	if c.Kind == CellEmpty {
		return true
	}
	return c.Kind == CellText && strings.TrimSpace(c.Text) == ""
}

// Raw renders the cell for diagnostics output.
func (c Cell) Raw() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}
