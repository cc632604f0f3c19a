package sync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is an optional gitignore-style file in an entry's local root.
// Paths it matches are invisible to scanning on both sides, as is the file itself.
const IgnoreFileName = ".dropsyncignore"

// FileFilter decides which files participate in a sync pass. A file is
// included when the include-only glob (if any) matches its base name and the
// ignore list (if any) does not match its relative path.
type FileFilter struct {
	includeOnly string
	ignore      *gitignore.GitIgnore
}

// NewFileFilter validates the include-only glob and loads the ignore file
// from localRoot when one exists.
func NewFileFilter(includeOnly string, localRoot string) (*FileFilter, error) {
	if includeOnly != "" && !doublestar.ValidatePattern(includeOnly) {
		return nil, fmt.Errorf("invalid include_only pattern %q", includeOnly)
	}

	var ignore *gitignore.GitIgnore
	ignorePath := filepath.Join(localRoot, IgnoreFileName)
	if _, err := os.Stat(ignorePath); err == nil {
		ignore, err = gitignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", IgnoreFileName, err)
		}
	}

	return &FileFilter{includeOnly: includeOnly, ignore: ignore}, nil
}

// Includes reports whether a slash-separated relative path participates in
// the sync pass.
func (f *FileFilter) Includes(relPath string) bool {
	base := filepath.Base(relPath)
	if base == IgnoreFileName {
		return false
	}
	if f == nil {
		return true
	}
	if f.includeOnly != "" {
		ok, err := doublestar.Match(f.includeOnly, base)
		if err != nil || !ok {
			return false
		}
	}
	if f.ignore != nil && f.ignore.MatchesPath(relPath) {
		return false
	}
	return true
}
