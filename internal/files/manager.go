package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manager relocates finished source files out of the intake folder.
// Moves are retried a bounded number of times because spreadsheet
// applications hold exclusive locks on files their users still have open.
type Manager struct {
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
	move       func(src, dst string) error
}

// NewManager creates a file manager. maxRetries is clamped to at least one
// attempt.
func NewManager(logger *slog.Logger, maxRetries int, retryDelay time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	m := &Manager{logger: logger, maxRetries: maxRetries, retryDelay: retryDelay}
	m.move = m.moveFile
	return m
}

// MoveToFinished moves src into finishedDir, picking a unique destination
// name when the plain name is taken. The final destination path is returned
// even on failure so callers can log it.
func (m *Manager) MoveToFinished(src, finishedDir string) (string, error) {
	if err := os.MkdirAll(finishedDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create finished directory: %w", err)
	}

	dst := uniqueDestination(finishedDir, filepath.Base(src))

	var lastErr error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		lastErr = m.move(src, dst)
		if lastErr == nil {
			return dst, nil
		}

		m.logger.Warn("file move failed",
			slog.String("src", src),
			slog.String("dst", dst),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", m.maxRetries),
			slog.String("error", lastErr.Error()))

		if attempt < m.maxRetries {
			time.Sleep(m.retryDelay)
		}
	}

	return dst, fmt.Errorf("failed to move %s after %d attempts: %w", src, m.maxRetries, lastErr)
}

// moveFile tries an atomic rename first and falls back to copy-and-delete
// for cross-filesystem moves.
func (m *Manager) moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	return dstFile.Sync()
}

// uniqueDestination returns dir/name, or dir/name_moved<N><ext> when the
// plain destination already exists.
func uniqueDestination(dir, name string) string {
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return dst
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		dst = filepath.Join(dir, fmt.Sprintf("%s_moved%d%s", base, counter, ext))
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			return dst
		}
	}
}
