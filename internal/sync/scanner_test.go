package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file under root with the given content and mtime.
func writeFile(t *testing.T, root, relPath, content string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	if !modTime.IsZero() {
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}
}

func noFilter(t *testing.T, root string) *FileFilter {
	t.Helper()
	f, err := NewFileFilter("", root)
	require.NoError(t, err)
	return f
}

func TestScanBasics(t *testing.T) {
	root := t.TempDir()
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeFile(t, root, "save.dat", "hello", mtime)
	writeFile(t, root, "nested/deep/opts.ini", "x=1", mtime)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0o755))

	snap, err := Scan(context.Background(), root, noFilter(t, root))
	require.NoError(t, err)

	// directories themselves are never recorded
	assert.Equal(t, []string{"nested/deep/opts.ini", "save.dat"}, snap.Paths())

	rec := snap.Files["save.dat"]
	require.NotNil(t, rec)
	assert.Equal(t, int64(5), rec.Size)
	assert.WithinDuration(t, mtime, rec.ModTime, time.Second)

	// relative paths are slash-separated regardless of host OS
	for p := range snap.Files {
		assert.NotContains(t, p, "\\")
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestScanRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f", "x", time.Time{})
	_, err := Scan(context.Background(), filepath.Join(root, "f"), nil)
	assert.Error(t, err)
}

func TestScanIncludeOnlyGlob(t *testing.T) {
	root := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)
	writeFile(t, root, "world.sv", "a", old)
	writeFile(t, root, "screenshot.png", "b", old.Add(time.Hour))

	filter, err := NewFileFilter("*.sv", root)
	require.NoError(t, err)

	snap, err := Scan(context.Background(), root, filter)
	require.NoError(t, err)

	// the non-matching file is invisible to the engine entirely
	assert.Equal(t, []string{"world.sv"}, snap.Paths())
}

func TestScanIncludeOnlyMatchesBaseName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "saves/slot1/world.sv", "a", time.Time{})

	filter, err := NewFileFilter("*.sv", root)
	require.NoError(t, err)

	snap, err := Scan(context.Background(), root, filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"saves/slot1/world.sv"}, snap.Paths())
}

func TestScanInvalidIncludeOnly(t *testing.T) {
	_, err := NewFileFilter("[", t.TempDir())
	assert.Error(t, err)
}

func TestScanIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, IgnoreFileName, "*.tmp\ncache/\n", time.Time{})
	writeFile(t, root, "save.dat", "keep", time.Time{})
	writeFile(t, root, "scratch.tmp", "drop", time.Time{})
	writeFile(t, root, "cache/blob", "drop", time.Time{})

	filter, err := NewFileFilter("", root)
	require.NoError(t, err)

	snap, err := Scan(context.Background(), root, filter)
	require.NoError(t, err)

	// ignored paths and the ignore file itself are invisible
	assert.Equal(t, []string{"save.dat"}, snap.Paths())
}

func TestScanCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "save.dat", "x", time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, root, noFilter(t, root))
	assert.ErrorIs(t, err, context.Canceled)
}
