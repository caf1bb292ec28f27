package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/todobridge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "todobridge",
	Short: "Host bridge for the todo plugin",
	Long: `todobridge - host services for the todo plugin.

Reads and writes the plugin's todo lists, settings and archive, saves exported
text and images to the downloads directory, and reports cloud sync state. The
services can be called directly, over HTTP, from an interactive shell, or from a
plugin script running in a WebAssembly sandbox.

Settings come from the config file, then TODOBRIDGE_* environment variables,
then flags.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: $XDG_CONFIG_HOME/todobridge/config.yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("downloads", "", "Downloads directory")
	pf.String("user-data", "", "User data directory")
	pf.String("store", "", "Store driver: memory, sqlite")
	pf.String("store-path", "", "SQLite data directory (default: user data directory)")
	pf.String("replica-dir", "", "Sync directory shared between devices (enables replication)")
	pf.String("legacy-policy", "", "Legacy todos.json after migration: keep, remove, backup")
}

// flagOverrides maps persistent flags onto the config fields they replace.
func flagOverrides(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"log-level":     &cfg.Log.Level,
		"downloads":     &cfg.Paths.Downloads,
		"user-data":     &cfg.Paths.UserData,
		"store":         &cfg.Store.Driver,
		"store-path":    &cfg.Store.Path,
		"replica-dir":   &cfg.Replica.Dir,
		"legacy-policy": &cfg.Migration.LegacyPolicy,
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	for name, dst := range flagOverrides(&cfg) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openApp loads configuration and wires the bridge. With replication enabled the
// sync directory is pulled once so calls see other devices' latest writes.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}
	if a.replica != nil {
		if _, err := a.replica.Pull(cmd.Context()); err != nil {
			a.logger.Warn("initial pull failed", "dir", a.replica.Dir(), "error", err)
		}
	}
	return a, nil
}

// parseCallArgs decodes a service's arguments, given as one JSON object.
func parseCallArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

// printResult writes strings as-is and everything else as JSON.
func printResult(w io.Writer, result any) error {
	if s, ok := result.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
