package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmined/dropsync/internal/config"
	"github.com/openmined/dropsync/internal/sync"
	"github.com/openmined/dropsync/internal/tui"
	"github.com/openmined/dropsync/internal/utils"
	"github.com/openmined/dropsync/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "dropsync",
	Short:   "Keep app data directories in sync through a passively synchronized folder",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		entries, base, err := loadEntries(cmd)
		if err != nil {
			return err
		}

		hostname, _ := os.Hostname()
		slog.Info("syncing apps", "host", hostname, "base", base, "apps", len(entries))

		engine := sync.NewEngine(base, tui.NewConflictPrompter())
		report, err := engine.RunAll(cmd.Context(), entries)
		if err != nil {
			return err
		}

		slog.Info("done",
			"synced", report.Synced,
			"unchanged", report.Unchanged,
			"aborted", report.Aborted,
			"failed", len(report.Failed),
		)
		if report.HasFailures() {
			return fmt.Errorf("%d app(s) failed to sync: %v", len(report.Failed), report.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("base", "b", "", "sync base directory (default ~/Dropbox, env DROPSYNC_BASE)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default <base>/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	viper.BindPFlag("base", rootCmd.PersistentFlags().Lookup("base"))
	viper.SetEnvPrefix("DROPSYNC")
	viper.AutomaticEnv()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cobra.OnInitialize(setupLogging)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red.Render("ERROR"), err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

// loadEntries resolves the sync base, locates the config file and returns
// the enabled app entries for this host, alphabetical by name.
func loadEntries(cmd *cobra.Command) ([]*config.AppEntry, string, error) {
	base := viper.GetString("base")
	if base == "" {
		var err error
		base, err = config.DefaultBaseDir()
		if err != nil {
			return nil, "", err
		}
	}
	base, err := utils.ResolvePath(base)
	if err != nil {
		return nil, "", err
	}
	if !utils.DirExists(base) {
		return nil, "", fmt.Errorf("sync base %q does not exist", base)
	}

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = filepath.Join(base, config.ConfigFileName)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, "", fmt.Errorf("hostname: %w", err)
	}

	entries, err := config.Load(configPath, hostname, base)
	if err != nil {
		return nil, "", err
	}
	return entries, base, nil
}
