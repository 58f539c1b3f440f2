package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "entrytally/internal/errors"
	"entrytally/pkg/contracts/domain"
)

// WriteTotals rewrites the per-region totals file. One line per region that
// has at least one recorded entry, sorted by region label, in the form
// "NCR: 42". The file is replaced wholesale on every run.
func WriteTotals(path string, totals map[domain.Region]int) error {
	labels := make([]string, 0, len(totals))
	for region, total := range totals {
		if total == 0 {
			continue
		}
		labels = append(labels, region.String())
	}
	sort.Strings(labels)

	var b strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&b, "%s: %d\n", label, totals[domain.Region(label)])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory for totals file", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return apperrors.NewStorageError("failed to write totals file", err).
			WithContext("path", path)
	}
	return nil
}
