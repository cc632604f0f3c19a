package sync

import (
	"context"
	"sort"
	"time"
)

// Decision is a human's answer to an unresolvable tree pair.
type Decision int

const (
	AbortSync Decision = iota
	KeepLeft
	KeepRight
)

func (d Decision) String() string {
	switch d {
	case KeepLeft:
		return "keep-left"
	case KeepRight:
		return "keep-right"
	default:
		return "abort"
	}
}

// Prompter is the injectable human-in-the-loop capability. The engine blocks
// on Ask when the resolver returns Conflict; tests supply scripted decisions.
type Prompter interface {
	Ask(ctx context.Context, summary *ConflictSummary) (Decision, error)
}

// SideSummary describes one snapshot of a conflicted pair.
type SideSummary struct {
	Root       string
	FileCount  int
	TotalSize  int64
	NewestMod  time.Time
	NewerPaths []string // shared files strictly newer on this side
	ExtraPaths []string // files absent on the other side
}

// ConflictSummary gives a human enough to pick a side: per-side counts,
// sizes, newest timestamps and which files are newer or extra where.
type ConflictSummary struct {
	App   string
	Left  SideSummary
	Right SideSummary
}

// BuildConflictSummary derives the presentation data for a conflicted pair.
func BuildConflictSummary(app string, left, right *TreeSnapshot) *ConflictSummary {
	summary := &ConflictSummary{
		App:   app,
		Left:  newSideSummary(left),
		Right: newSideSummary(right),
	}

	for _, p := range left.Paths() {
		l := left.Files[p]
		r, ok := right.Files[p]
		if !ok {
			summary.Left.ExtraPaths = append(summary.Left.ExtraPaths, p)
			continue
		}
		switch CompareModTime(l.ModTime, r.ModTime) {
		case Newer:
			summary.Left.NewerPaths = append(summary.Left.NewerPaths, p)
		case Older:
			summary.Right.NewerPaths = append(summary.Right.NewerPaths, p)
		}
	}
	for _, p := range right.Paths() {
		if _, ok := left.Files[p]; !ok {
			summary.Right.ExtraPaths = append(summary.Right.ExtraPaths, p)
		}
	}
	sort.Strings(summary.Right.NewerPaths)

	return summary
}

func newSideSummary(s *TreeSnapshot) SideSummary {
	return SideSummary{
		Root:      s.Root,
		FileCount: s.Len(),
		TotalSize: s.TotalSize(),
		NewestMod: s.NewestModTime(),
	}
}
