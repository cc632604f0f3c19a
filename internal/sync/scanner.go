package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Scan walks root and returns a snapshot of every regular file that passes
// the filter. Directories themselves are not recorded. A missing or
// unreadable root is an error (fatal for the entry); an unreadable file is
// skipped with a warning.
func Scan(ctx context.Context, root string, filter *FileFilter) (*TreeSnapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", root)
	}

	snapshot := NewTreeSnapshot(root)

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("walk %s: %w", root, err)
			}
			slog.Warn("scan skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if !filter.Includes(relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			slog.Warn("scan skipping unreadable file", "path", path, "error", err)
			return nil
		}

		// Follow a file symlink once; never descend into linked directories,
		// so cycles cannot occur.
		if fi.Mode()&fs.ModeSymlink != 0 {
			fi, err = os.Stat(path)
			if err != nil {
				slog.Warn("scan skipping broken symlink", "path", path, "error", err)
				return nil
			}
			if fi.IsDir() {
				return nil
			}
		}

		snapshot.Files[relPath] = &FileRecord{
			RelPath: relPath,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}

	return snapshot, nil
}
