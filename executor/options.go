package executor

import (
	"log/slog"
	"time"
)

// Option configures a single Run.
type Option func(*runConfig)

type runConfig struct {
	timeout time.Duration
	args    []string
}

func defaultRunConfig() runConfig {
	return runConfig{
		timeout: 30 * time.Second,
	}
}

// WithTimeout sets the maximum execution time. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// WithScriptArgs appends arguments after the interpreter command line.
func WithScriptArgs(args ...string) Option {
	return func(c *runConfig) {
		c.args = append(c.args, args...)
	}
}

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	diskCache        bool
	cacheDir         string
	precompile       []Language
	memoryLimitPages uint32 // 64KB pages, 0 = wazero default (4GB)
	logger           *slog.Logger
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger: slog.Default(),
	}
}

// WithDiskCache enables a persistent compilation cache. Without a directory it uses
// XDG_CACHE_HOME/todobridge or ~/.cache/todobridge.
func WithDiskCache(dir ...string) ExecutorOption {
	return func(c *executorConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithPrecompile compiles langs when the Executor is created instead of on first Run.
func WithPrecompile(langs ...Language) ExecutorOption {
	return func(c *executorConfig) {
		c.precompile = langs
	}
}

// WithMemoryLimit caps guest memory in 64KB pages.
//   - WithMemoryLimit(256) = 16MB max
//   - WithMemoryLimit(1024) = 64MB max
func WithMemoryLimit(pages uint32) ExecutorOption {
	return func(c *executorConfig) {
		c.memoryLimitPages = pages
	}
}

func WithLogger(l *slog.Logger) ExecutorOption {
	return func(c *executorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// MemoryPages converts a byte count to whole 64KB pages, rounding up.
func MemoryPages(bytes uint64) uint32 {
	const page = 64 * 1024
	return uint32((bytes + page - 1) / page)
}
