package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type envSpec struct {
	env   string
	key   string
	apply func(cfg *Config, raw string) error
}

func str(set func(cfg *Config, v string)) func(*Config, string) error {
	return func(cfg *Config, raw string) error {
		set(cfg, raw)
		return nil
	}
}

var envSpecs = []envSpec{
	{"TODOBRIDGE_DOWNLOADS_DIR", "paths.downloads", str(func(c *Config, v string) { c.Paths.Downloads = v })},
	{"TODOBRIDGE_USER_DATA_DIR", "paths.user_data", str(func(c *Config, v string) { c.Paths.UserData = v })},
	{"TODOBRIDGE_STORE_DRIVER", "store.driver", str(func(c *Config, v string) { c.Store.Driver = v })},
	{"TODOBRIDGE_STORE_PATH", "store.path", str(func(c *Config, v string) { c.Store.Path = v })},
	{"TODOBRIDGE_STORE_MAX_VALUE_SIZE", "store.max_value_size", str(func(c *Config, v string) { c.Store.MaxValueSize = v })},
	{"TODOBRIDGE_LEGACY_POLICY", "migration.legacy_policy", str(func(c *Config, v string) { c.Migration.LegacyPolicy = v })},
	{"TODOBRIDGE_REPLICA_DIR", "replica.dir", str(func(c *Config, v string) { c.Replica.Dir = v })},
	{"TODOBRIDGE_REPLICA_DEVICE", "replica.device", str(func(c *Config, v string) { c.Replica.Device = v })},
	{"TODOBRIDGE_FS_READ_ROOTS", "fs.read_roots", str(func(c *Config, v string) { c.FS.ReadRoots = filepath.SplitList(v) })},
	{"TODOBRIDGE_FS_MAX_FILE_SIZE", "fs.max_file_size", str(func(c *Config, v string) { c.FS.MaxFileSize = v })},
	{"TODOBRIDGE_FS_MAX_WRITE_SIZE", "fs.max_write_size", str(func(c *Config, v string) { c.FS.MaxWriteSize = v })},
	{"TODOBRIDGE_FS_MAX_PATH_LENGTH", "fs.max_path_length", func(c *Config, raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		c.FS.MaxPathLength = n
		return nil
	}},
	{"TODOBRIDGE_QJS_WASM", "executor.runtime", str(func(c *Config, v string) { c.Executor.Runtime = v })},
	{"TODOBRIDGE_EXECUTOR_TIMEOUT", "executor.timeout", func(c *Config, raw string) error {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		c.Executor.Timeout = d
		return nil
	}},
	{"TODOBRIDGE_EXECUTOR_MEMORY", "executor.memory", str(func(c *Config, v string) { c.Executor.Memory = v })},
	{"TODOBRIDGE_SERVER_ADDR", "server.addr", str(func(c *Config, v string) { c.Server.Addr = v })},
	{"TODOBRIDGE_LOG_LEVEL", "log.level", str(func(c *Config, v string) { c.Log.Level = v })},
}

func applyEnvOverrides(cfg *Config) error {
	for _, s := range envSpecs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		if err := s.apply(cfg, raw); err != nil {
			return fmt.Errorf("%s (%s=%q): %w", s.key, s.env, raw, err)
		}
	}
	return nil
}

// EnvVars lists the supported environment variables with the config key each overrides.
func EnvVars() [][2]string {
	out := make([][2]string, len(envSpecs))
	for i, s := range envSpecs {
		out[i] = [2]string{s.env, s.key}
	}
	return out
}
