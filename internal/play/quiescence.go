package play

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sync/errgroup"
)

// Quiescence tuning. Vars rather than consts so tests can shrink them.
var (
	// QuiescenceWindow is the minimum duration with no observed activity
	// under the play root before the run is declared finished.
	QuiescenceWindow = 5 * time.Second

	// PollInterval is how often the process table and the activity clock
	// are re-checked.
	PollInterval = 500 * time.Millisecond
)

// activityClock records the last moment anything happened.
type activityClock struct {
	mu   sync.Mutex
	last time.Time
}

func newActivityClock() *activityClock {
	return &activityClock{last: time.Now()}
}

func (c *activityClock) touch() {
	c.mu.Lock()
	c.last = time.Now()
	c.mu.Unlock()
}

func (c *activityClock) quietFor(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.last) >= d
}

// waitForQuiescence blocks until nothing under the play root has been active
// for QuiescenceWindow. Two activity sources feed one clock: filesystem
// events below the root, and live processes whose executable or working
// directory is rooted there. Both are heuristics for "the real application
// is still running"; either one alone can keep the wait going.
func (r *Runner) waitForQuiescence(ctx context.Context) error {
	activity := newActivityClock()
	quiet := make(chan struct{})

	events := make(chan notify.EventInfo, 64)
	watching := true
	if err := notify.Watch(filepath.Join(r.playRoot, "..."), events, notify.All); err != nil {
		// fs watching is best effort; process polling still runs
		slog.Warn("watch failed, relying on process polling only", "dir", r.playRoot, "error", err)
		watching = false
	} else {
		defer notify.Stop(events)
	}

	var g errgroup.Group

	if watching {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-quiet:
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					activity.touch()
					slog.Debug("activity", "source", "fs", "path", ev.Path())
				}
			}
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if n := processesUnder(r.playRoot); n > 0 {
					activity.touch()
					slog.Debug("activity", "source", "proc", "count", n)
				} else if activity.quietFor(QuiescenceWindow) {
					close(quiet)
					return nil
				}
			}
		}
	})

	return g.Wait()
}

// processesUnder counts live processes whose executable path or working
// directory lives under root. Errors for individual processes are ignored;
// most of the process table belongs to other users.
func processesUnder(root string) int {
	procs, err := process.Processes()
	if err != nil {
		slog.Warn("process scan failed", "error", err)
		return 0
	}

	count := 0
	for _, p := range procs {
		if exe, err := p.Exe(); err == nil && isUnder(root, exe) {
			count++
			continue
		}
		if cwd, err := p.Cwd(); err == nil && isUnder(root, cwd) {
			count++
		}
	}
	return count
}

func isUnder(root, path string) bool {
	if path == "" {
		return false
	}
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
