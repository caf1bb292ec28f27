// Package config loads todobridge settings from a YAML file and TODOBRIDGE_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/todobridge/bridge"
	"github.com/caffeineduck/todobridge/executor"
	"github.com/caffeineduck/todobridge/fsys"
	"github.com/caffeineduck/todobridge/hostpath"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Store     StoreConfig     `yaml:"store"`
	Migration MigrationConfig `yaml:"migration"`
	Replica   ReplicaConfig   `yaml:"replica"`
	FS        FSConfig        `yaml:"fs"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type PathsConfig struct {
	Downloads string `yaml:"downloads"`
	UserData  string `yaml:"user_data"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite data directory. Empty means the user data directory.
	Path string `yaml:"path"`
	// MaxValueSize bounds stored values for either driver, e.g. "4MB".
	MaxValueSize string `yaml:"max_value_size"`
}

type MigrationConfig struct {
	LegacyPolicy string `yaml:"legacy_policy"`
}

// ReplicaConfig enables replication when Dir is set.
type ReplicaConfig struct {
	Dir    string `yaml:"dir"`
	Device string `yaml:"device"`
}

// FSConfig bounds the files the bridge reads and writes. With ReadRoots set,
// files are confined to those read-only directories plus the downloads and user
// data directories.
type FSConfig struct {
	ReadRoots     []string `yaml:"read_roots"`
	MaxFileSize   string   `yaml:"max_file_size"`
	MaxWriteSize  string   `yaml:"max_write_size"`
	MaxPathLength int      `yaml:"max_path_length"`
}

type ExecutorConfig struct {
	// Runtime optionally points at a QuickJS WASI module to use instead of the embedded one.
	Runtime string        `yaml:"runtime"`
	Timeout time.Duration `yaml:"timeout"`
	// Memory caps guest memory, e.g. "64MB". Empty means no limit.
	Memory string `yaml:"memory"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Paths: PathsConfig{
			Downloads: hostpath.DefaultDownloads(),
			UserData:  hostpath.DefaultUserData(),
		},
		Store:     StoreConfig{Driver: DriverSQLite, MaxValueSize: "4MiB"},
		Migration: MigrationConfig{LegacyPolicy: "keep"},
		FS: FSConfig{
			MaxFileSize:   "64MiB",
			MaxWriteSize:  "64MiB",
			MaxPathLength: fsys.DefaultMaxPathLength,
		},
		Executor:  ExecutorConfig{Timeout: 30 * time.Second},
		Server:    ServerConfig{Addr: "127.0.0.1:4100"},
		Log:       LogConfig{Level: "info"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/todobridge/config.yaml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "todobridge", "config.yaml")
}

// Load reads path over the defaults, then applies environment overrides. An empty
// path means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every enumerated or parsed field.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q (expected memory or sqlite)", c.Store.Driver))
	}
	if _, err := c.LegacyPolicy(); err != nil {
		errs = append(errs, fmt.Errorf("migration.legacy_policy: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := c.MaxValueBytes(); err != nil {
		errs = append(errs, fmt.Errorf("store.max_value_size: %w", err))
	}
	if _, err := c.FSOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MemoryPages(); err != nil {
		errs = append(errs, fmt.Errorf("executor.memory: %w", err))
	}
	if c.Executor.Timeout < 0 {
		errs = append(errs, errors.New("executor.timeout: must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) Dirs() hostpath.Dirs {
	return hostpath.Dirs{Downloads: c.Paths.Downloads, UserData: c.Paths.UserData}
}

func (c Config) LegacyPolicy() (bridge.LegacyPolicy, error) {
	return bridge.ParseLegacyPolicy(c.Migration.LegacyPolicy)
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// MaxValueBytes parses store.max_value_size. Zero means no limit.
func (c Config) MaxValueBytes() (int, error) {
	n, err := parseSize(c.Store.MaxValueSize)
	return int(n), err
}

// FSOptions turns the fs section into options for fsys.NewOS.
func (c Config) FSOptions() ([]fsys.Option, error) {
	var errs []error
	fileSize, err := parseSize(c.FS.MaxFileSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("fs.max_file_size: %w", err))
	}
	writeSize, err := parseSize(c.FS.MaxWriteSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("fs.max_write_size: %w", err))
	}
	if c.FS.MaxPathLength < 0 {
		errs = append(errs, errors.New("fs.max_path_length: must not be negative"))
	}
	for _, root := range c.FS.ReadRoots {
		if strings.TrimSpace(root) == "" {
			errs = append(errs, errors.New("fs.read_roots: empty path"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	opts := []fsys.Option{
		fsys.WithMaxFileSize(fileSize),
		fsys.WithMaxWriteSize(writeSize),
		fsys.WithMaxPathLength(c.FS.MaxPathLength),
	}
	if len(c.FS.ReadRoots) > 0 {
		roots := []fsys.Root{
			{Path: c.Paths.Downloads, Mode: fsys.ReadWriteCreate},
			{Path: c.Paths.UserData, Mode: fsys.ReadWriteCreate},
		}
		for _, root := range c.FS.ReadRoots {
			roots = append(roots, fsys.Root{Path: root, Mode: fsys.ReadOnly})
		}
		opts = append(opts, fsys.WithRoots(roots...))
	}
	return opts, nil
}

// parseSize parses a humanized byte count. Empty means zero.
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// MemoryPages parses executor.memory into 64KB pages. Zero means no limit.
func (c Config) MemoryPages() (uint32, error) {
	if c.Executor.Memory == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Executor.Memory)
	if err != nil {
		return 0, err
	}
	if n > 4<<30 {
		return 0, fmt.Errorf("%s exceeds the 4GB wasm32 address space", c.Executor.Memory)
	}
	return executor.MemoryPages(n), nil
}

// StoreDir is where the SQLite database lives.
func (c Config) StoreDir() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return c.Paths.UserData
}
