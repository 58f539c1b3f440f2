package files

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)), 3, 0)
}

func TestMoveToFinished(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "export.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))
	finished := filepath.Join(dir, "finished files")

	dst, err := newTestManager().MoveToFinished(src, finished)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(finished, "export.xlsx"), dst)
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestMoveToFinished_NameCollision(t *testing.T) {
	dir := t.TempDir()
	finished := filepath.Join(dir, "finished files")
	require.NoError(t, os.MkdirAll(finished, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(finished, "export.xlsx"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(finished, "export_moved1.xlsx"), []byte("older"), 0644))

	src := filepath.Join(dir, "export.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))

	dst, err := newTestManager().MoveToFinished(src, finished)
	require.NoError(t, err)

	// Existing files are never overwritten; the counter skips taken names.
	assert.Equal(t, filepath.Join(finished, "export_moved2.xlsx"), dst)
	data, err := os.ReadFile(filepath.Join(finished, "export.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestMoveToFinished_MissingSource(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestManager().MoveToFinished(filepath.Join(dir, "absent.xlsx"), filepath.Join(dir, "finished files"))
	assert.Error(t, err)
}

func TestNewManager_ClampsRetries(t *testing.T) {
	m := NewManager(nil, 0, 0)
	assert.Equal(t, 1, m.maxRetries)
}

func TestMoveToFinished_RetriesUntilLockReleased(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "export.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))
	finished := filepath.Join(dir, "finished files")

	// The first two attempts hit the kind of sharing violation a
	// spreadsheet application holding the file open produces.
	m := newTestManager()
	attempts := 0
	realMove := m.move
	m.move = func(src, dst string) error {
		attempts++
		if attempts < 3 {
			return errors.New("sharing violation")
		}
		return realMove(src, dst)
	}

	dst, err := m.MoveToFinished(src, finished)
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, filepath.Join(finished, "export.xlsx"), dst)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestMoveToFinished_GivesUpAfterMaxRetries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "export.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))
	finished := filepath.Join(dir, "finished files")

	m := newTestManager()
	attempts := 0
	m.move = func(src, dst string) error {
		attempts++
		return errors.New("sharing violation")
	}

	dst, err := m.MoveToFinished(src, finished)
	require.Error(t, err)

	assert.Equal(t, m.maxRetries, attempts)
	// The chosen destination is still reported so callers can log it.
	assert.Equal(t, filepath.Join(finished, "export.xlsx"), dst)
	assert.FileExists(t, src)
}
