package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "entrytally/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
}

// ProcessingConfig contains the intake folder layout and run policy.
type ProcessingConfig struct {
	IntakeDir       string        `yaml:"intake_dir" envconfig:"INTAKE_DIR" default:"intake" validate:"required"`
	FinishedDirName string        `yaml:"finished_dir_name" envconfig:"FINISHED_DIR_NAME" default:"finished files" validate:"required"`
	ExportDir       string        `yaml:"export_dir" envconfig:"EXPORT_DIR"`
	SummaryFile     string        `yaml:"summary_file" envconfig:"SUMMARY_FILE" default:"summary_list.xlsx" validate:"required"`
	LedgerFile      string        `yaml:"ledger_file" envconfig:"LEDGER_FILE" default:"ledger.json" validate:"required"`
	RecordedFile    string        `yaml:"recorded_file" envconfig:"RECORDED_FILE" default:"recorded_files.json" validate:"required"`
	DiagnosticsFile string        `yaml:"diagnostics_file" envconfig:"DIAGNOSTICS_FILE" default:"file_amounts.txt" validate:"required"`
	TotalsFile      string        `yaml:"totals_file" envconfig:"TOTALS_FILE" default:"totaled_amounts.txt" validate:"required"`
	MoveRetries     int           `yaml:"move_retries" envconfig:"MOVE_RETRIES" default:"3" validate:"min=1,max=10"`
	MoveRetryDelay  time.Duration `yaml:"move_retry_delay" envconfig:"MOVE_RETRY_DELAY" default:"500ms" validate:"min=0"`
	HeaderRows      int           `yaml:"header_rows" envconfig:"HEADER_ROWS" default:"2" validate:"min=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/entrytally.log"`
}

// Load loads configuration from environment variables and, if present, a
// config.yaml file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ENTRYTALLY", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", configFile)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// merge merges the file config with the env config, field by field. A value
// explicitly set in the environment (different from its default) wins; any
// field the environment left at its default falls back to a value the file
// sets. Fields the file leaves unset (zero) never override.
func merge(fileCfg, envCfg Config) Config {
	out := envCfg
	defaults := defaultConfig()

	pe, fe, de := &out.Processing, &fileCfg.Processing, &defaults.Processing
	pe.IntakeDir = pickString(pe.IntakeDir, fe.IntakeDir, de.IntakeDir)
	pe.FinishedDirName = pickString(pe.FinishedDirName, fe.FinishedDirName, de.FinishedDirName)
	pe.ExportDir = pickString(pe.ExportDir, fe.ExportDir, de.ExportDir)
	pe.SummaryFile = pickString(pe.SummaryFile, fe.SummaryFile, de.SummaryFile)
	pe.LedgerFile = pickString(pe.LedgerFile, fe.LedgerFile, de.LedgerFile)
	pe.RecordedFile = pickString(pe.RecordedFile, fe.RecordedFile, de.RecordedFile)
	pe.DiagnosticsFile = pickString(pe.DiagnosticsFile, fe.DiagnosticsFile, de.DiagnosticsFile)
	pe.TotalsFile = pickString(pe.TotalsFile, fe.TotalsFile, de.TotalsFile)
	pe.MoveRetries = pickInt(pe.MoveRetries, fe.MoveRetries, de.MoveRetries)
	pe.MoveRetryDelay = pickDuration(pe.MoveRetryDelay, fe.MoveRetryDelay, de.MoveRetryDelay)
	pe.HeaderRows = pickInt(pe.HeaderRows, fe.HeaderRows, de.HeaderRows)

	le, fl, dl := &out.Logging, &fileCfg.Logging, &defaults.Logging
	le.Level = pickString(le.Level, fl.Level, dl.Level)
	le.Output = pickString(le.Output, fl.Output, dl.Output)
	le.FilePath = pickString(le.FilePath, fl.FilePath, dl.FilePath)

	return out
}

func pickString(env, file, def string) string {
	if env == def && file != "" {
		return file
	}
	return env
}

func pickInt(env, file, def int) int {
	if env == def && file != 0 {
		return file
	}
	return env
}

func pickDuration(env, file, def time.Duration) time.Duration {
	if env == def && file != 0 {
		return file
	}
	return env
}

// Validate checks the configuration with struct-tag rules.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// SummaryPath resolves the summary table location: an absolute SummaryFile is
// used as-is, otherwise it lands in ExportDir when set, else the intake dir.
func (c *ProcessingConfig) SummaryPath() string {
	return c.artifactPath(c.SummaryFile)
}

// LedgerPath resolves the ledger document location.
func (c *ProcessingConfig) LedgerPath() string {
	return c.artifactPath(c.LedgerFile)
}

// RecordedPath resolves the processed-file list location.
func (c *ProcessingConfig) RecordedPath() string {
	return c.artifactPath(c.RecordedFile)
}

// DiagnosticsPath resolves the per-file breakdown log location.
func (c *ProcessingConfig) DiagnosticsPath() string {
	return c.artifactPath(c.DiagnosticsFile)
}

// TotalsPath resolves the per-region totals file location.
func (c *ProcessingConfig) TotalsPath() string {
	return c.artifactPath(c.TotalsFile)
}

func (c *ProcessingConfig) artifactPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	base := c.IntakeDir
	if c.ExportDir != "" {
		base = c.ExportDir
	}
	return filepath.Join(base, name)
}

// IntakePath joins a name onto the intake directory.
func (c *ProcessingConfig) IntakePath(name string) string {
	return filepath.Join(c.IntakeDir, name)
}

// FinishedDir returns the directory processed source files are moved into.
func (c *ProcessingConfig) FinishedDir() string {
	return filepath.Join(c.IntakeDir, c.FinishedDirName)
}

// findConfigFile returns the path to the config file
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// defaultConfig mirrors the envconfig default tags for merge comparisons.
func defaultConfig() Config {
	return Config{
		Processing: ProcessingConfig{
			IntakeDir:       "intake",
			FinishedDirName: "finished files",
			SummaryFile:     "summary_list.xlsx",
			LedgerFile:      "ledger.json",
			RecordedFile:    "recorded_files.json",
			DiagnosticsFile: "file_amounts.txt",
			TotalsFile:      "totaled_amounts.txt",
			MoveRetries:     3,
			MoveRetryDelay:  500 * time.Millisecond,
			HeaderRows:      2,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/entrytally.log",
		},
	}
}

// Default returns the default configuration
func Default() *Config {
	cfg := defaultConfig()
	return &cfg
}
