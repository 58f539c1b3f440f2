// Command processor runs one ingestion pass over a directory of spreadsheet
// exports: new files are parsed, folded into the persistent ledger, moved to
// the finished directory, and the totals and summary artifacts regenerated.
//
// Usage:
//
//	processor [-in DIR] [-out DIR] [-summary FILE] [-rebuild-from-log]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"entrytally/internal/config"
	"entrytally/internal/dataprocessing"
	"entrytally/internal/infrastructure"
)

func main() {
	os.Exit(run())
}

func run() int {
	inDir := flag.String("in", "", "intake directory holding the spreadsheet exports (overrides config)")
	outDir := flag.String("out", "", "directory for generated artifacts (overrides config)")
	summaryFile := flag.String("summary", "", "summary workbook filename (overrides config)")
	rebuildFromLog := flag.Bool("rebuild-from-log", false, "regenerate the summary table from the diagnostics log and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if *inDir != "" {
		cfg.Processing.IntakeDir = *inDir
	}
	if *outDir != "" {
		cfg.Processing.ExportDir = *outDir
	}
	if *summaryFile != "" {
		cfg.Processing.SummaryFile = *summaryFile
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization failed: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithRunID(ctx, uuid.New().String())

	processor := dataprocessing.NewProcessor(logger, cfg.Processing)

	if *rebuildFromLog {
		if err := processor.RebuildFromDiagnostics(ctx); err != nil {
			logger.ErrorContext(ctx, "summary rebuild from diagnostics failed",
				"error", err.Error())
			return 1
		}
		fmt.Printf("Summary table rebuilt at %s\n", cfg.Processing.SummaryPath())
		return 0
	}

	summary, err := processor.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion run failed", "error", err.Error())
		return 1
	}

	fmt.Printf("Processed %d file(s), skipped %d, failed %d, %d new entries\n",
		summary.FilesProcessed, summary.FilesSkipped, summary.FilesFailed, summary.NewEntries)
	fmt.Printf("Summary table: %s\n", cfg.Processing.SummaryPath())
	return 0
}
