package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openmined/dropsync/internal/utils"
)

// Apply mirrors the authoritative tree onto the other one. All copies happen
// before any deletion, so an interruption mid-pass leaves at worst stale
// extra files on the losing side, never lost data. Equal is a no-op; a
// Conflict verdict must be turned into LeftNewer/RightNewer by a human
// decision before it gets here.
func Apply(ctx context.Context, verdict Verdict, left, right *TreeSnapshot) error {
	switch verdict {
	case Equal:
		return nil
	case LeftNewer:
		return mirror(ctx, left, right)
	case RightNewer:
		return mirror(ctx, right, left)
	default:
		return fmt.Errorf("cannot apply verdict %s", verdict)
	}
}

func mirror(ctx context.Context, winner, loser *TreeSnapshot) error {
	copied := 0
	for _, relPath := range winner.Paths() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		src := winner.Files[relPath]
		if dst, ok := loser.Files[relPath]; ok &&
			dst.Size == src.Size && CompareModTime(src.ModTime, dst.ModTime) == Same {
			continue
		}

		dstPath := filepath.Join(loser.Root, filepath.FromSlash(relPath))
		if err := copyFile(filepath.Join(winner.Root, filepath.FromSlash(relPath)), dstPath, src.ModTime); err != nil {
			return fmt.Errorf("copy %s: %w", relPath, err)
		}
		copied++
	}

	deleted := 0
	for _, relPath := range loser.Paths() {
		if _, ok := winner.Files[relPath]; ok {
			continue
		}
		dstPath := filepath.Join(loser.Root, filepath.FromSlash(relPath))
		if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", relPath, err)
		}
		deleted++
	}

	slog.Debug("mirror applied", "from", winner.Root, "to", loser.Root, "copied", copied, "deleted", deleted)
	return nil
}

// copyFile copies src to dst, creating intermediate directories, and stamps
// dst with src's modification time so the next scan sees the two sides as
// Same instead of drifting by copy time.
func copyFile(src, dst string, modTime time.Time) error {
	if err := utils.EnsureParent(dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, time.Now(), modTime)
}
