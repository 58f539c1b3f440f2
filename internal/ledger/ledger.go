package ledger

import (
	"log/slog"

	"entrytally/pkg/contracts/domain"
)

// Ledger is the cumulative region×date count store plus the set of source
// files already counted. Counts only ever grow; the processed set guarantees
// each file contributes at most once across repeated runs.
//
// The ledger is single-writer: one aggregation pass mutates it at a time,
// file by file, and persists after every merge.
type Ledger struct {
	logger       *slog.Logger
	ledgerPath   string
	recordedPath string

	counts    map[domain.Region]map[domain.Date]int
	processed map[string]bool
}

// New creates an empty ledger persisting to the given paths.
func New(logger *slog.Logger, ledgerPath, recordedPath string) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		logger:       logger,
		ledgerPath:   ledgerPath,
		recordedPath: recordedPath,
		counts:       make(map[domain.Region]map[domain.Date]int),
		processed:    make(map[string]bool),
	}
}

// Fold collapses a file's observations into its (date, region) aggregate.
func Fold(observations []domain.Observation) domain.FileAggregate {
	agg := make(domain.FileAggregate)
	for _, obs := range observations {
		agg.Add(obs)
	}
	return agg
}

// AlreadyProcessed reports whether filename was counted in an earlier merge.
// Callers must check this before extracting the file.
func (l *Ledger) AlreadyProcessed(filename string) bool {
	return l.processed[filename]
}

// MergeFile folds a file's aggregate into the global counts, marks the file
// processed, and persists both in one commit. Merging a file that is already
// processed is a no-op, so re-running a pipeline over the same intake cannot
// change the totals.
func (l *Ledger) MergeFile(filename string, agg domain.FileAggregate) error {
	if l.processed[filename] {
		l.logger.Warn("file already counted, skipping merge",
			slog.String("filename", filename))
		return nil
	}

	for key, count := range agg {
		dates, ok := l.counts[key.Region]
		if !ok {
			dates = make(map[domain.Date]int)
			l.counts[key.Region] = dates
		}
		dates[key.Date] += count
	}
	l.processed[filename] = true

	return l.Save()
}

// Count returns the accumulated count for one (region, date) cell.
func (l *Ledger) Count(region domain.Region, date domain.Date) int {
	return l.counts[region][date]
}

// Counts returns a deep copy of the region→date→count mapping.
func (l *Ledger) Counts() map[domain.Region]map[domain.Date]int {
	out := make(map[domain.Region]map[domain.Date]int, len(l.counts))
	for region, dates := range l.counts {
		inner := make(map[domain.Date]int, len(dates))
		for date, count := range dates {
			inner[date] = count
		}
		out[region] = inner
	}
	return out
}

// Dates returns every date with at least one observation, sorted ascending.
func (l *Ledger) Dates() []domain.Date {
	seen := make(map[domain.Date]bool)
	var dates []domain.Date
	for _, byDate := range l.counts {
		for date := range byDate {
			if !seen[date] {
				seen[date] = true
				dates = append(dates, date)
			}
		}
	}
	return domain.SortDates(dates)
}

// Totals sums each region's counts across all dates. Regions without
// observations are absent from the result.
func (l *Ledger) Totals() map[domain.Region]int {
	totals := make(map[domain.Region]int)
	for region, byDate := range l.counts {
		for _, count := range byDate {
			totals[region] += count
		}
	}
	return totals
}

// ProcessedFiles returns the processed filenames, unordered.
func (l *Ledger) ProcessedFiles() []string {
	names := make([]string, 0, len(l.processed))
	for name := range l.processed {
		names = append(names, name)
	}
	return names
}
