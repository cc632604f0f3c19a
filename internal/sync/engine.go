package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/openmined/dropsync/internal/config"
)

// LockFileName guards the sync base against a second dropsync instance on
// the same machine. It says nothing about other machines; the base folder's
// own sync client is trusted to move bytes around between runs.
const LockFileName = ".dropsync.lock"

var ErrBaseLocked = errors.New("sync base is locked by another dropsync instance")

// Outcome is the per-entry result of a sync pass.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeSynced
	OutcomeAborted // human chose not to resolve a conflict
)

// RunReport tallies a full run over all entries.
type RunReport struct {
	Synced    int
	Unchanged int
	Aborted   int
	Failed    []string // names of entries that errored
}

func (r *RunReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// Engine runs sync passes. Entries are processed strictly one at a time in
// the order given (alphabetical by name); no two passes are ever concurrent.
type Engine struct {
	baseDir  string
	prompter Prompter
	lock     *flock.Flock
}

func NewEngine(baseDir string, prompter Prompter) *Engine {
	return &Engine{
		baseDir:  baseDir,
		prompter: prompter,
		lock:     flock.New(filepath.Join(baseDir, LockFileName)),
	}
}

// RunAll performs one sync pass per entry. One entry's failure never aborts
// the remaining entries; only cancellation stops the run early.
func (e *Engine) RunAll(ctx context.Context, entries []*config.AppEntry) (*RunReport, error) {
	unlock, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &RunReport{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := e.syncEntry(ctx, entry)
		switch {
		case errors.Is(err, context.Canceled):
			return report, err
		case err != nil:
			slog.Error("sync failed", "app", entry.Name, "error", err)
			report.Failed = append(report.Failed, entry.Name)
		case outcome == OutcomeSynced:
			report.Synced++
		case outcome == OutcomeAborted:
			slog.Info("left unsynchronized", "app", entry.Name)
			report.Aborted++
		default:
			report.Unchanged++
		}
	}

	return report, nil
}

// SyncOne runs a single entry's pass, used before and after a play run.
func (e *Engine) SyncOne(ctx context.Context, entry *config.AppEntry) (Outcome, error) {
	unlock, err := e.acquireLock()
	if err != nil {
		return OutcomeUnchanged, err
	}
	defer unlock()

	return e.syncEntry(ctx, entry)
}

func (e *Engine) acquireLock() (func(), error) {
	locked, err := e.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", e.lock.Path(), err)
	}
	if !locked {
		return nil, ErrBaseLocked
	}
	return func() {
		if err := e.lock.Unlock(); err != nil {
			slog.Warn("unlock failed", "path", e.lock.Path(), "error", err)
		}
	}, nil
}

// syncEntry scans both roots, resolves directionality and applies the
// result. Local is the left tree, the mirror is the right tree.
func (e *Engine) syncEntry(ctx context.Context, entry *config.AppEntry) (Outcome, error) {
	tstart := time.Now()

	if err := entry.Validate(); err != nil {
		return OutcomeUnchanged, err
	}

	filter, err := NewFileFilter(entry.IncludeOnly, entry.LocalPath)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("app %q: %w", entry.Name, err)
	}

	local, err := Scan(ctx, entry.LocalPath, filter)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("app %q: %w", entry.Name, err)
	}
	mirror, err := Scan(ctx, entry.MirrorPath, filter)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("app %q: %w", entry.Name, err)
	}

	verdict := Resolve(local, mirror)
	slog.Debug("resolved", "app", entry.Name,
		"verdict", verdict,
		"local", local.Len(),
		"mirror", mirror.Len(),
		"took", time.Since(tstart),
	)

	if verdict == Conflict {
		verdict, err = e.askConflict(ctx, entry, local, mirror)
		if err != nil {
			return OutcomeUnchanged, err
		}
		if verdict == Conflict {
			return OutcomeAborted, nil
		}
	}

	if verdict == Equal {
		slog.Info("up to date", "app", entry.Name)
		return OutcomeUnchanged, nil
	}

	if err := Apply(ctx, verdict, local, mirror); err != nil {
		return OutcomeUnchanged, fmt.Errorf("app %q: %w", entry.Name, err)
	}

	direction := "local -> mirror"
	if verdict == RightNewer {
		direction = "mirror -> local"
	}
	slog.Info("synced", "app", entry.Name, "direction", direction, "took", time.Since(tstart))

	return OutcomeSynced, nil
}

// askConflict turns a human decision into a verdict. An abort keeps the
// Conflict verdict, which the caller reports as an unsynchronized entry, not
// an error. Neither tree is touched until the decision is in.
func (e *Engine) askConflict(ctx context.Context, entry *config.AppEntry, local, mirror *TreeSnapshot) (Verdict, error) {
	summary := BuildConflictSummary(entry.Name, local, mirror)

	decision, err := e.prompter.Ask(ctx, summary)
	if err != nil {
		return Conflict, fmt.Errorf("app %q: conflict prompt: %w", entry.Name, err)
	}

	switch decision {
	case KeepLeft:
		return LeftNewer, nil
	case KeepRight:
		return RightNewer, nil
	default:
		return Conflict, nil
	}
}
