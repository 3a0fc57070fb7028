package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.pdf"), "")
	writeFile(t, filepath.Join(root, "a", "b.Pdf"), "")
	writeFile(t, filepath.Join(root, ".git", "x.pdf"), "")
	writeFile(t, filepath.Join(root, "readme.md"), "")

	files, err := ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "b.Pdf"),
		filepath.Join(root, "z.pdf"),
	}, files)
}

func TestScanDir_Empty(t *testing.T) {
	files, err := ScanDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanDir_Missing(t *testing.T) {
	_, err := ScanDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
