package ledger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	apperrors "entrytally/internal/errors"
	"entrytally/pkg/contracts/domain"
)

// ledgerDocument is the persisted form of the ledger. Counts are keyed by
// region label and canonical YYYY-MM-DD date strings so the file stays
// readable and diffable.
type ledgerDocument struct {
	Regions   map[string]map[string]int `json:"regions"`
	Processed []string                  `json:"processed"`
}

// Load reads the persisted ledger state. Missing files are a clean start,
// not an error.
//
// The ledger document's processed list is the floor: a file whose counts are
// committed in ledger.json stays processed even when the recorded-files list
// lags behind it (a crash between the two writes must not re-open the file
// for a second, doubling fold). The recorded list's absences are honored as
// explicit external pruning only when the list was written after the ledger
// document.
func (l *Ledger) Load() error {
	doc, err := readLedgerDocument(l.ledgerPath)
	if err != nil {
		return err
	}
	if doc != nil {
		counts, err := countsFromDocument(doc)
		if err != nil {
			return err
		}
		l.counts = counts
		l.processed = make(map[string]bool, len(doc.Processed))
		for _, name := range doc.Processed {
			l.processed[name] = true
		}
	}

	recorded, recordedAt, found, err := readRecordedFiles(l.recordedPath)
	if err != nil {
		return err
	}
	if found {
		if doc == nil || recordedAt.After(modTime(l.ledgerPath)) {
			l.processed = recorded
		} else {
			for name := range recorded {
				l.processed[name] = true
			}
			for _, name := range doc.Processed {
				if !recorded[name] {
					l.logger.Warn("recorded files list lags behind ledger, keeping file processed",
						slog.String("filename", name))
				}
			}
		}
	}

	l.logger.Info("ledger loaded",
		slog.Int("regions", len(l.counts)),
		slog.Int("processed_files", len(l.processed)))

	return nil
}

// Save persists the ledger. The combined document is written first, with a
// temp-file rename as the commit point, so a crash mid-save leaves the
// previous state intact; the recorded-files list is rewritten from it after.
func (l *Ledger) Save() error {
	doc := ledgerDocument{
		Regions:   make(map[string]map[string]int, len(l.counts)),
		Processed: sortedNames(l.processed),
	}
	for region, byDate := range l.counts {
		inner := make(map[string]int, len(byDate))
		for date, count := range byDate {
			inner[date.String()] = count
		}
		doc.Regions[region.String()] = inner
	}

	if err := writeJSONAtomic(l.ledgerPath, doc); err != nil {
		return apperrors.NewStorageError("failed to write ledger file", err).
			WithContext("path", l.ledgerPath)
	}
	if err := writeJSONAtomic(l.recordedPath, doc.Processed); err != nil {
		return apperrors.NewStorageError("failed to write recorded files list", err).
			WithContext("path", l.recordedPath)
	}

	return nil
}

func readLedgerDocument(path string) (*ledgerDocument, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read ledger file", err).
			WithContext("path", path)
	}

	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewParsingError("ledger file is not valid JSON", err).
			WithContext("path", path)
	}
	return &doc, nil
}

func countsFromDocument(doc *ledgerDocument) (map[domain.Region]map[domain.Date]int, error) {
	counts := make(map[domain.Region]map[domain.Date]int, len(doc.Regions))
	for regionLabel, byDate := range doc.Regions {
		region := domain.Region(regionLabel)
		if !region.IsCanonical() {
			return nil, apperrors.NewValidationError("ledger contains unknown region").
				WithContext("region", regionLabel)
		}
		inner := make(map[domain.Date]int, len(byDate))
		for dateStr, count := range byDate {
			date, err := domain.ParseDate(dateStr)
			if err != nil {
				return nil, apperrors.NewParsingError("ledger contains invalid date", err).
					WithContext("date", dateStr)
			}
			inner[date] = count
		}
		counts[region] = inner
	}
	return counts, nil
}

func readRecordedFiles(path string) (map[string]bool, time.Time, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, apperrors.NewStorageError("failed to read recorded files list", err).
			WithContext("path", path)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, time.Time{}, false, apperrors.NewParsingError("recorded files list is not valid JSON", err).
			WithContext("path", path)
	}

	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set, modTime(path), true, nil
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func writeJSONAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
