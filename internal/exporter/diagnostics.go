package exporter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "entrytally/internal/errors"
	"entrytally/pkg/contracts/domain"
)

// DiagnosticsLog is the append-only per-file breakdown. Every processed file
// contributes one block: a "[filename]" header followed by one
// "date - region - count" line per aggregate pair. The log doubles as a
// recovery source: ParseCounts folds all blocks back into ledger-shaped
// counts so the summary table can be regenerated from it.
type DiagnosticsLog struct {
	path string
}

// NewDiagnosticsLog creates a diagnostics log backed by the given path.
func NewDiagnosticsLog(path string) *DiagnosticsLog {
	return &DiagnosticsLog{path: path}
}

// Path returns the backing file path.
func (d *DiagnosticsLog) Path() string {
	return d.path
}

// AppendFileBlock appends one file's breakdown. Lines are ordered by date
// then region label so blocks are stable across runs. A file with no
// observations still gets its header, recording that it was seen.
func (d *DiagnosticsLog) AppendFileBlock(filename string, agg domain.FileAggregate) error {
	keys := make([]domain.AggregateKey, 0, len(agg))
	for key := range agg {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date.Before(keys[j].Date)
		}
		return keys[i].Region < keys[j].Region
	})

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", filename)
	for _, key := range keys {
		fmt.Fprintf(&b, "%s - %s - %d\n", key.Date, key.Region, agg[key])
	}
	b.WriteString("\n")

	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory for diagnostics file", err)
	}
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to open diagnostics file", err).
			WithContext("path", d.path)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return apperrors.NewStorageError("failed to append diagnostics block", err).
			WithContext("path", d.path)
	}
	return nil
}

// ParseCounts folds every block in the log back into region×date counts.
// Header lines and blanks are skipped; malformed data lines and unknown
// region labels are skipped rather than failing the whole recovery.
func (d *DiagnosticsLog) ParseCounts() (map[domain.Region]map[domain.Date]int, error) {
	f, err := os.Open(d.path)
	if os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError("diagnostics file").
			WithContext("path", d.path)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open diagnostics file", err).
			WithContext("path", d.path)
	}
	defer f.Close()

	counts := make(map[domain.Region]map[domain.Date]int)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}

		parts := strings.Split(line, " - ")
		if len(parts) != 3 {
			continue
		}
		date, err := domain.ParseDate(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		region := domain.Region(strings.TrimSpace(parts[1]))
		if !region.IsCanonical() {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			continue
		}

		if counts[region] == nil {
			counts[region] = make(map[domain.Date]int)
		}
		counts[region][date] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read diagnostics file", err).
			WithContext("path", d.path)
	}

	return counts, nil
}
