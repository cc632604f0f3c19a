package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/openmined/dropsync/internal/sync"
)

var (
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// maxListedPaths caps the per-category file listings in a conflict summary.
const maxListedPaths = 5

// ConflictPrompter asks a human which side of a conflicted pair to keep.
// It is the terminal implementation of sync.Prompter; tests use scripted
// prompters instead.
type ConflictPrompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

func NewConflictPrompter() *ConflictPrompter {
	return &ConflictPrompter{
		in:          os.Stdin,
		out:         os.Stderr,
		interactive: isatty.IsTerminal(os.Stdin.Fd()),
	}
}

// NewScriptedPrompter reads decisions from r and writes to w; used by tests
// and non-terminal callers.
func NewScriptedPrompter(r io.Reader, w io.Writer) *ConflictPrompter {
	return &ConflictPrompter{in: r, out: w, interactive: true}
}

// Ask renders the two candidate states and blocks for a decision. Without a
// terminal there is nobody to ask, so the answer is an abort: the entry
// stays untouched rather than guessing a direction.
func (p *ConflictPrompter) Ask(ctx context.Context, summary *sync.ConflictSummary) (sync.Decision, error) {
	p.render(summary)

	if !p.interactive {
		fmt.Fprintln(p.out, gray.Render("no terminal attached, leaving both sides untouched"))
		return sync.AbortSync, nil
	}

	scanner := bufio.NewScanner(p.in)
	for {
		if err := ctx.Err(); err != nil {
			return sync.AbortSync, err
		}

		fmt.Fprintf(p.out, "keep which side? %s / %s / %s: ",
			cyan.Render("[l]ocal"), cyan.Render("[m]irror"), gray.Render("[a]bort"))
		if !scanner.Scan() {
			fmt.Fprintln(p.out)
			return sync.AbortSync, scanner.Err()
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "l", "local", "left":
			return sync.KeepLeft, nil
		case "m", "mirror", "right":
			return sync.KeepRight, nil
		case "a", "abort", "q":
			return sync.AbortSync, nil
		}
	}
}

func (p *ConflictPrompter) render(summary *sync.ConflictSummary) {
	fmt.Fprintf(p.out, "\n%s cannot tell which side of %q is newer\n",
		red.Render("CONFLICT"), summary.App)
	p.renderSide("local ", summary.Left)
	p.renderSide("mirror", summary.Right)
}

func (p *ConflictPrompter) renderSide(label string, side sync.SideSummary) {
	newest := "empty"
	if !side.NewestMod.IsZero() {
		newest = fmt.Sprintf("newest %s", humanize.Time(side.NewestMod))
	}
	fmt.Fprintf(p.out, "  %s %s\n", yellow.Render(label), side.Root)
	fmt.Fprintf(p.out, "         %d files, %s, %s\n",
		side.FileCount, humanize.Bytes(uint64(side.TotalSize)), newest)
	if len(side.NewerPaths) > 0 {
		fmt.Fprintf(p.out, "         newer here: %s\n", joinCapped(side.NewerPaths))
	}
	if len(side.ExtraPaths) > 0 {
		fmt.Fprintf(p.out, "         only here:  %s\n", joinCapped(side.ExtraPaths))
	}
}

func joinCapped(paths []string) string {
	if len(paths) <= maxListedPaths {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s (+%d more)",
		strings.Join(paths[:maxListedPaths], ", "), len(paths)-maxListedPaths)
}
