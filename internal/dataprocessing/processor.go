package dataprocessing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"entrytally/internal/config"
	apperrors "entrytally/internal/errors"
	"entrytally/internal/exporter"
	"entrytally/internal/files"
	"entrytally/internal/ledger"
	"entrytally/pkg/contracts/domain"
)

// Processor drives one ingestion run over the intake directory: discover
// exports, skip anything already in the ledger, extract and fold each new
// file, persist the ledger, move the source aside, and regenerate the totals
// and summary artifacts from the updated ledger.
type Processor struct {
	logger      *slog.Logger
	cfg         config.ProcessingConfig
	extractor   *Extractor
	ledger      *ledger.Ledger
	discovery   *files.Discovery
	mover       *files.Manager
	diagnostics *exporter.DiagnosticsLog
	summary     *exporter.SummaryWriter
}

// RunSummary reports what a single run did.
type RunSummary struct {
	FilesDiscovered int
	FilesSkipped    int
	FilesProcessed  int
	FilesFailed     int
	RowsRejected    int
	NewEntries      int
}

// NewProcessor wires a processor from configuration. A nil logger falls back
// to slog.Default.
func NewProcessor(logger *slog.Logger, cfg config.ProcessingConfig) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:      logger,
		cfg:         cfg,
		extractor:   NewExtractor(logger),
		ledger:      ledger.New(logger, cfg.LedgerPath(), cfg.RecordedPath()),
		discovery:   files.NewDiscovery(cfg.IntakeDir),
		mover:       files.NewManager(logger, cfg.MoveRetries, cfg.MoveRetryDelay),
		diagnostics: exporter.NewDiagnosticsLog(cfg.DiagnosticsPath()),
		summary:     exporter.NewSummaryWriter(logger),
	}
}

// Run executes one full ingestion pass. Per-file failures are logged and
// skipped without marking the file processed, so a later run retries it.
// Ledger or artifact persistence failures are terminal.
func (p *Processor) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{}

	if err := p.ledger.Load(); err != nil {
		return summary, err
	}

	discovered, err := p.discovery.FindExcelFiles(".")
	if err != nil {
		return summary, err
	}
	summary.FilesDiscovered = len(discovered)

	p.logger.InfoContext(ctx, "ingestion run started",
		slog.String("intake_dir", p.cfg.IntakeDir),
		slog.Int("files_found", len(discovered)))

	for i, file := range discovered {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		p.logger.InfoContext(ctx, "processing file",
			slog.String("file", file.Name),
			slog.Int("position", i+1),
			slog.Int("total", len(discovered)))

		if p.ledger.AlreadyProcessed(file.Name) {
			p.logger.InfoContext(ctx, "file already recorded, skipping",
				slog.String("file", file.Name))
			summary.FilesSkipped++
			continue
		}

		agg, rejected, err := p.processFile(ctx, file)
		if err != nil {
			// Unreadable files stay in the intake dir unrecorded so
			// a later run picks them up again.
			p.logger.ErrorContext(ctx, "failed to process file",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
			summary.FilesFailed++
			continue
		}
		summary.RowsRejected += rejected

		if err := p.diagnostics.AppendFileBlock(file.Name, agg); err != nil {
			p.logger.WarnContext(ctx, "failed to append diagnostics block",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
		}

		if err := p.ledger.MergeFile(file.Name, agg); err != nil {
			return summary, err
		}
		summary.FilesProcessed++
		summary.NewEntries += agg.Total()

		if dst, err := p.mover.MoveToFinished(file.Path, p.cfg.FinishedDir()); err != nil {
			// The file is already folded and recorded, so leaving it
			// behind cannot double count it.
			p.logger.ErrorContext(ctx, "failed to move processed file",
				slog.String("file", file.Name),
				slog.String("destination", dst),
				slog.String("error", err.Error()))
		}
	}

	if err := p.writeArtifacts(ctx); err != nil {
		return summary, err
	}

	p.logger.InfoContext(ctx, "ingestion run finished",
		slog.Int("files_discovered", summary.FilesDiscovered),
		slog.Int("files_processed", summary.FilesProcessed),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("files_failed", summary.FilesFailed),
		slog.Int("rows_rejected", summary.RowsRejected),
		slog.Int("new_entries", summary.NewEntries))

	return summary, nil
}

// RebuildFromDiagnostics regenerates the summary table from the per-file
// breakdown log instead of the ledger. Recovery path for a lost or corrupted
// summary workbook when the diagnostics log survived.
func (p *Processor) RebuildFromDiagnostics(ctx context.Context) error {
	counts, err := p.diagnostics.ParseCounts()
	if err != nil {
		return err
	}

	dateSet := make(map[domain.Date]bool)
	for _, byDate := range counts {
		for date := range byDate {
			dateSet[date] = true
		}
	}
	dates := make([]domain.Date, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}

	p.logger.InfoContext(ctx, "rebuilding summary table from diagnostics log",
		slog.String("source", p.diagnostics.Path()),
		slog.Int("date_columns", len(dates)))

	return p.summary.Rebuild(ctx, p.cfg.SummaryPath(), counts, dates)
}

// processFile opens one workbook and folds every sheet's observations into a
// single per-file aggregate. Sheets that are too narrow are skipped; a sheet
// read failure fails the whole file.
func (p *Processor) processFile(ctx context.Context, file files.FileInfo) (domain.FileAggregate, int, error) {
	f, err := excelize.OpenFile(file.Path)
	if err != nil {
		return nil, 0, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("file", file.Name)
	}
	defer f.Close()

	var observations []domain.Observation
	rejected := 0
	for _, sheet := range f.GetSheetList() {
		result, err := p.processSheet(ctx, f, sheet)
		if err != nil {
			if errors.Is(err, apperrors.ErrInsufficientColumns) {
				p.logger.WarnContext(ctx, "sheet too narrow, skipping",
					slog.String("file", file.Name),
					slog.String("sheet", sheet))
				continue
			}
			return nil, 0, err
		}

		observations = append(observations, result.Observations...)
		rejected += len(result.Rejected)
		for _, reject := range result.Rejected {
			p.logger.WarnContext(ctx, "row rejected, no usable date",
				slog.String("file", file.Name),
				slog.String("sheet", sheet),
				slog.Int("row", reject.Row),
				slog.String("raw_date", reject.RawDate),
				slog.String("raw_region", reject.RawRegion))
		}
	}

	agg := ledger.Fold(observations)
	p.logger.InfoContext(ctx, "file folded",
		slog.String("file", file.Name),
		slog.Int("observations", len(observations)),
		slog.Int("aggregate_pairs", len(agg)))

	return agg, rejected, nil
}

// processSheet reads a sheet with raw cell values so date-styled cells come
// through as serial numbers, strips the header rows, and extracts.
func (p *Processor) processSheet(ctx context.Context, f *excelize.File, sheet string) (*domain.SheetResult, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet rows", err).
			WithContext("sheet", sheet)
	}

	offset := p.cfg.HeaderRows
	if offset > len(raw) {
		offset = len(raw)
	}

	rows := make([][]Cell, 0, len(raw)-offset)
	for _, rawRow := range raw[offset:] {
		row := make([]Cell, len(rawRow))
		for i, value := range rawRow {
			row[i] = CellFromString(value)
		}
		rows = append(rows, row)
	}

	return p.extractor.Extract(ctx, sheet, rows, offset)
}

// writeArtifacts regenerates the totals file and the summary table from the
// ledger. Both are full rewrites, so they are correct even after a run that
// processed nothing.
func (p *Processor) writeArtifacts(ctx context.Context) error {
	totalsPath := p.cfg.TotalsPath()
	if err := exporter.WriteTotals(totalsPath, p.ledger.Totals()); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "totals file written",
		slog.String("path", totalsPath))

	return p.summary.Rebuild(ctx, p.cfg.SummaryPath(), p.ledger.Counts(), p.ledger.Dates())
}
