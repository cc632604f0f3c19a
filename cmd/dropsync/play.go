package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openmined/dropsync/internal/config"
	"github.com/openmined/dropsync/internal/play"
	"github.com/openmined/dropsync/internal/sync"
	"github.com/openmined/dropsync/internal/tui"
)

func init() {
	rootCmd.AddCommand(newPlayCmd())
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [APP]",
		Short: "Sync an app, run it, and sync it back when it has finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			entries, base, err := loadEntries(cmd)
			if err != nil {
				return err
			}

			entry := findEntry(entries, args[0])
			if entry == nil {
				return fmt.Errorf("no app named %q in the config", args[0])
			}
			if !entry.CanPlay() {
				return fmt.Errorf("app %q has no play_path configured", entry.Name)
			}

			engine := sync.NewEngine(base, tui.NewConflictPrompter())

			outcome, err := engine.SyncOne(cmd.Context(), entry)
			if err != nil {
				return err
			}
			if outcome == sync.OutcomeAborted {
				prompt := fmt.Sprintf("%q is still conflicted; launch it anyway?", entry.Name)
				if !tui.AskYesNo(os.Stdin, os.Stderr, prompt) {
					return fmt.Errorf("app %q left unsynchronized", entry.Name)
				}
			}

			runner := play.NewRunner(entry.PlayPath, entry.PlayRootPath)
			if err := runner.RunAndWait(cmd.Context()); err != nil {
				// fatal for the play run only: the pre-play sync stands,
				// and nothing ran so there is nothing to sync back
				return err
			}

			slog.Info("syncing back", "app", entry.Name)
			if _, err := engine.SyncOne(cmd.Context(), entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s synced and played %s\n",
				green.Render("OK"), cyan.Render(entry.Name))
			return nil
		},
	}
}

func findEntry(entries []*config.AppEntry, name string) *config.AppEntry {
	for _, entry := range entries {
		if strings.EqualFold(entry.Name, name) {
			return entry
		}
	}
	return nil
}
