package sync

import (
	"sort"
	"time"
)

// FileRecord holds the metadata the engine compares. Comparison is age-based,
// so no content hash is ever computed; size is only a cheap equality pre-check.
type FileRecord struct {
	RelPath string
	Size    int64
	ModTime time.Time
}

// TreeSnapshot is the state of one root at scan time. It is rebuilt for every
// sync pass and never persisted. Relative paths are slash-separated so the
// same logical path compares equal on every host OS.
type TreeSnapshot struct {
	Root  string
	Files map[string]*FileRecord
}

func NewTreeSnapshot(root string) *TreeSnapshot {
	return &TreeSnapshot{
		Root:  root,
		Files: make(map[string]*FileRecord),
	}
}

// Paths returns all relative paths in the snapshot, sorted.
func (s *TreeSnapshot) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *TreeSnapshot) Get(relPath string) (*FileRecord, bool) {
	rec, ok := s.Files[relPath]
	return rec, ok
}

func (s *TreeSnapshot) Len() int {
	return len(s.Files)
}

// TotalSize returns the sum of all file sizes in the snapshot.
func (s *TreeSnapshot) TotalSize() int64 {
	var total int64
	for _, rec := range s.Files {
		total += rec.Size
	}
	return total
}

// NewestModTime returns the most recent modification time in the snapshot,
// or the zero time for an empty snapshot.
func (s *TreeSnapshot) NewestModTime() time.Time {
	var newest time.Time
	for _, rec := range s.Files {
		if rec.ModTime.After(newest) {
			newest = rec.ModTime
		}
	}
	return newest
}
