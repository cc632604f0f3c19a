package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/openmined/dropsync/internal/utils"
)

// ConfigFileName is the app-entry config, expected at the root of the sync
// base directory so every machine sharing the base shares the config.
const ConfigFileName = "dropsync.toml"

// AppEntry is one application to keep in sync, fully resolved for this host.
// Immutable once loaded; one instance per configured application per run.
type AppEntry struct {
	Name         string
	LocalPath    string // absolute local data dir
	MirrorPath   string // absolute mirror dir under the sync base
	IncludeOnly  string // optional glob matched against base names
	PlayPath     string // optional executable for `dropsync play`
	PlayRootPath string // optional install root watched for quiescence
	Disabled     bool
}

// Validate checks the invariants the sync engine relies on. Root directories
// must already exist; dropsync never creates them.
func (e *AppEntry) Validate() error {
	if e.LocalPath == "" {
		return fmt.Errorf("app %q: missing 'path'", e.Name)
	}
	if e.MirrorPath == "" {
		return fmt.Errorf("app %q: missing 'dropbox_path'", e.Name)
	}
	if !utils.DirExists(e.LocalPath) {
		return fmt.Errorf("app %q: local path %q does not exist", e.Name, e.LocalPath)
	}
	if !utils.DirExists(e.MirrorPath) {
		return fmt.Errorf("app %q: mirror path %q does not exist", e.Name, e.MirrorPath)
	}
	return nil
}

// CanPlay reports whether the entry has a launchable executable configured.
func (e *AppEntry) CanPlay() bool {
	return e.PlayPath != ""
}

// DefaultBaseDir returns the conventional sync base, `~/Dropbox`.
func DefaultBaseDir() (string, error) {
	return utils.ResolvePath("~/Dropbox")
}

// Load reads the TOML config at path and resolves every app entry for
// hostname. A value nested in a table keyed by the hostname shallow-merges
// over the entry's defaults. Disabled entries are dropped here so callers
// only ever see runnable entries, sorted by name.
func Load(path string, hostname string, baseDir string) ([]*AppEntry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config read %q: %w", path, err)
	}

	// viper lowercases all keys, so host override lookups must too
	hostname = strings.ToLower(hostname)

	settings := v.AllSettings()
	entries := make([]*AppEntry, 0, len(settings))
	for name, raw := range settings {
		table, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, fmt.Errorf("config %q: app %q is not a table", path, name)
		}

		entry := resolveEntry(name, table, hostname, baseDir)
		if entry.Disabled {
			slog.Debug("app disabled, skipping", "app", name)
			continue
		}
		entries = append(entries, entry)
	}

	// Entries are processed in alphabetical order; this is a documented
	// guarantee, not an accident of map iteration.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func resolveEntry(name string, table map[string]any, hostname string, baseDir string) *AppEntry {
	entry := &AppEntry{
		Name:     name,
		Disabled: resolveBool(table, hostname, "disabled"),
	}

	if localPath, ok := resolveString(table, hostname, "path"); ok {
		if resolved, err := utils.ResolvePath(filepath.FromSlash(localPath)); err == nil {
			entry.LocalPath = resolved
		}
	}
	if mirrorRel, ok := resolveString(table, hostname, "dropbox_path"); ok {
		entry.MirrorPath = filepath.Join(baseDir, filepath.FromSlash(mirrorRel))
	}
	if includeOnly, ok := resolveString(table, hostname, "include_only"); ok {
		entry.IncludeOnly = includeOnly
	}
	if playRoot, ok := resolveString(table, hostname, "play_root_path"); ok {
		entry.PlayRootPath = filepath.FromSlash(playRoot)
	}
	if playPath, ok := resolveString(table, hostname, "play_path"); ok {
		playPath = filepath.FromSlash(playPath)
		// a relative play_path is anchored under the play root
		if entry.PlayRootPath != "" && !filepath.IsAbs(playPath) {
			playPath = filepath.Join(entry.PlayRootPath, playPath)
		}
		entry.PlayPath = playPath
	}

	return entry
}

// resolveString looks the key up in the host override table first, then in
// the entry's defaults.
func resolveString(table map[string]any, hostname, key string) (string, bool) {
	if hostTable, ok := table[hostname]; ok {
		if val, ok := cast.ToStringMap(hostTable)[key]; ok {
			s, err := cast.ToStringE(val)
			return s, err == nil
		}
	}
	val, ok := table[key]
	if !ok {
		return "", false
	}
	// nested tables (host overrides) are not string values
	s, err := cast.ToStringE(val)
	if err != nil {
		return "", false
	}
	return s, true
}

func resolveBool(table map[string]any, hostname, key string) bool {
	if hostTable, ok := table[hostname]; ok {
		if val, ok := cast.ToStringMap(hostTable)[key]; ok {
			return cast.ToBool(val)
		}
	}
	return cast.ToBool(table[key])
}
