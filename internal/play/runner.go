package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// ErrLaunchFailed marks an executable that could not start. It is fatal for
// the play invocation only; the pre-play sync that already ran stands.
var ErrLaunchFailed = errors.New("failed to launch")

// State of a play run. Transitions only move forward; Finished is terminal
// and is what allows the post-play sync pass to run.
type State int

const (
	NotStarted State = iota
	Running
	WaitingForQuiescence
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForQuiescence:
		return "waiting-for-quiescence"
	case Finished:
		return "finished"
	default:
		return "not-started"
	}
}

// Runner launches an application and reports when it has really finished.
// When playRoot is set, the launched executable is assumed to be a thin
// launcher: after it exits the runner keeps watching for activity under
// playRoot (live processes rooted there, file modifications) and declares
// Finished only once nothing has stirred for QuiescenceWindow.
type Runner struct {
	playPath string
	playRoot string

	mu    sync.Mutex
	state State
}

func NewRunner(playPath, playRoot string) *Runner {
	return &Runner{
		playPath: playPath,
		playRoot: playRoot,
		state:    NotStarted,
	}
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	slog.Debug("play state", "state", s)
}

// RunAndWait launches the executable and blocks until the application is
// finished per the rules above. A non-zero exit from the application is not
// an error; a failure to launch is.
func (r *Runner) RunAndWait(ctx context.Context) error {
	if r.State() != NotStarted {
		return errors.New("runner already used")
	}

	cmd := exec.CommandContext(ctx, r.playPath)
	cmd.Dir = filepath.Dir(r.playPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("launching", "path", r.playPath)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, r.playPath, err)
	}
	r.setState(Running)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// the app's own exit code is its business
		slog.Info("process exited", "path", r.playPath, "error", err)
	}

	if r.playRoot != "" {
		r.setState(WaitingForQuiescence)
		slog.Info("waiting for activity to settle", "dir", r.playRoot, "window", QuiescenceWindow)
		if err := r.waitForQuiescence(ctx); err != nil {
			return err
		}
	}

	r.setState(Finished)
	slog.Info("play finished", "path", r.playPath)
	return nil
}
