package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestFindExcelFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b_export.xlsx")
	touch(t, dir, "a_export.XLSX")
	touch(t, dir, "old_export.xls")
	touch(t, dir, "notes.txt")
	touch(t, dir, "template.xlsx")
	touch(t, dir, "summary_list.xlsx")
	touch(t, dir, "~$b_export.xlsx")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "finished files"), 0755))
	touch(t, filepath.Join(dir, "finished files"), "done.xlsx")

	found, err := NewDiscovery(dir).FindExcelFiles(".")
	require.NoError(t, err)

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	// Templates, summaries, lock files, non-workbooks, and subdirectories
	// are all skipped; results come back filename-sorted.
	assert.Equal(t, []string{"a_export.XLSX", "b_export.xlsx", "old_export.xls"}, names)

	for _, f := range found {
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
		assert.NotZero(t, f.Size)
	}
}

func TestFindExcelFiles_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery(filepath.Join(t.TempDir(), "absent")).FindExcelFiles(".")
	assert.Error(t, err)
}
