package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newOpenCmd())
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [APP]",
		Short: "Open an app's local and mirror directories in the file browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			entries, _, err := loadEntries(cmd)
			if err != nil {
				return err
			}
			entry := findEntry(entries, args[0])
			if entry == nil {
				return fmt.Errorf("no app named %q in the config", args[0])
			}

			for _, dir := range []string{entry.LocalPath, entry.MirrorPath} {
				fmt.Fprintf(cmd.OutOrStdout(), "opening %s\n", cyan.Render(dir))
				if err := openInBrowser(dir); err != nil {
					return fmt.Errorf("open %q: %w", dir, err)
				}
			}
			return nil
		},
	}
}

func openInBrowser(path string) error {
	var opener string
	switch runtime.GOOS {
	case "windows":
		opener = "explorer"
	case "darwin":
		opener = "open"
	default:
		opener = "xdg-open"
	}
	return exec.Command(opener, path).Start()
}
