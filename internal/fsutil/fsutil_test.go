package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"))
	touch(t, filepath.Join(root, "A.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.pdf"))

	got, err := FindFilesByExtension(root, ".pdf")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "A.PDF"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "c.pdf"),
	}, got)

	require.Panics(t, func() { _, _ = FindFilesByExtension(root, "") })
}

func TestExpandPaths(t *testing.T) {
	root := t.TempDir()
	single := filepath.Join(root, "cover.bin")
	touch(t, single)
	touch(t, filepath.Join(root, "pages", "2.pdf"))
	touch(t, filepath.Join(root, "pages", "1.pdf"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	got, err := ExpandPaths([]string{single, filepath.Join(root, "pages")}, ".pdf")
	require.NoError(t, err)
	require.Equal(t, []string{
		single,
		filepath.Join(root, "pages", "1.pdf"),
		filepath.Join(root, "pages", "2.pdf"),
	}, got)

	_, err = ExpandPaths([]string{filepath.Join(root, "empty")}, ".pdf")
	require.ErrorContains(t, err, "contains no .pdf files")

	_, err = ExpandPaths([]string{filepath.Join(root, "missing.pdf")}, ".pdf")
	require.Error(t, err)
}
