package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "entrytally/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "intake", cfg.Processing.IntakeDir)
	assert.Equal(t, "finished files", cfg.Processing.FinishedDirName)
	assert.Equal(t, "summary_list.xlsx", cfg.Processing.SummaryFile)
	assert.Equal(t, "ledger.json", cfg.Processing.LedgerFile)
	assert.Equal(t, 3, cfg.Processing.MoveRetries)
	assert.Equal(t, 2, cfg.Processing.HeaderRows)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENTRYTALLY_PROCESSING_INTAKE_DIR", "/data/exports")
	t.Setenv("ENTRYTALLY_PROCESSING_MOVE_RETRIES", "5")
	t.Setenv("ENTRYTALLY_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/exports", cfg.Processing.IntakeDir)
	assert.Equal(t, 5, cfg.Processing.MoveRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMalformedEnvValue(t *testing.T) {
	t.Setenv("ENTRYTALLY_PROCESSING_MOVE_RETRIES", "many")

	_, err := Load()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Processing.MoveRetries = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Processing.MoveRetries = 11
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestMergeHonorsEveryFileField(t *testing.T) {
	fileCfg := Config{
		Processing: ProcessingConfig{
			IntakeDir:       "exports",
			FinishedDirName: "done",
			ExportDir:       "artifacts",
			SummaryFile:     "summary.xlsx",
			LedgerFile:      "state.json",
			RecordedFile:    "seen.json",
			DiagnosticsFile: "breakdown.txt",
			TotalsFile:      "totals.txt",
			MoveRetries:     7,
			MoveRetryDelay:  2 * time.Second,
			HeaderRows:      1,
		},
		Logging: LoggingConfig{
			Level:    "warn",
			Output:   "console",
			FilePath: "logs/run.log",
		},
	}

	merged := merge(fileCfg, *Default())

	assert.Equal(t, fileCfg, merged)
}

func TestMergeEnvWinsOverFile(t *testing.T) {
	fileCfg := Config{
		Processing: ProcessingConfig{
			IntakeDir:   "exports",
			MoveRetries: 7,
		},
	}
	envCfg := *Default()
	envCfg.Processing.IntakeDir = "/data/exports"

	merged := merge(fileCfg, envCfg)

	// An explicit env value is kept; fields the env left at their default
	// fall back to the file.
	assert.Equal(t, "/data/exports", merged.Processing.IntakeDir)
	assert.Equal(t, 7, merged.Processing.MoveRetries)
}

func TestArtifactPaths(t *testing.T) {
	cfg := Default().Processing
	cfg.IntakeDir = "intake"

	// Without an export dir everything lands next to the sources.
	assert.Equal(t, filepath.Join("intake", "summary_list.xlsx"), cfg.SummaryPath())
	assert.Equal(t, filepath.Join("intake", "ledger.json"), cfg.LedgerPath())
	assert.Equal(t, filepath.Join("intake", "finished files"), cfg.FinishedDir())

	cfg.ExportDir = "out"
	assert.Equal(t, filepath.Join("out", "summary_list.xlsx"), cfg.SummaryPath())
	assert.Equal(t, filepath.Join("out", "recorded_files.json"), cfg.RecordedPath())
	assert.Equal(t, filepath.Join("out", "file_amounts.txt"), cfg.DiagnosticsPath())
	assert.Equal(t, filepath.Join("out", "totaled_amounts.txt"), cfg.TotalsPath())
	// The finished dir stays under the intake dir regardless.
	assert.Equal(t, filepath.Join("intake", "finished files"), cfg.FinishedDir())

	abs := filepath.Join(string(filepath.Separator), "tmp", "summary.xlsx")
	cfg.SummaryFile = abs
	assert.Equal(t, abs, cfg.SummaryPath())
}

func TestIntakePath(t *testing.T) {
	cfg := Default().Processing
	cfg.IntakeDir = "intake"
	assert.Equal(t, filepath.Join("intake", "export.xlsx"), cfg.IntakePath("export.xlsx"))
}
