// Package hostpath resolves the logical directory names a plugin asks the host for.
package hostpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Logical directory names understood by Dirs.
const (
	Downloads = "downloads"
	UserData  = "userData"
)

var ErrUnknownDir = errors.New("unknown directory")

// Resolver maps a logical directory name to an absolute path.
type Resolver interface {
	Path(name string) (string, error)
}

// Dirs is a fixed Resolver. Empty fields fall back to the platform defaults.
type Dirs struct {
	Downloads string
	UserData  string
}

func (d Dirs) Path(name string) (string, error) {
	var dir string
	switch name {
	case Downloads:
		dir = d.Downloads
		if dir == "" {
			dir = DefaultDownloads()
		}
	case UserData:
		dir = d.UserData
		if dir == "" {
			dir = DefaultUserData()
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDir, name)
	}
	return filepath.Abs(dir)
}

// DefaultDownloads returns XDG_DOWNLOAD_DIR, ~/Downloads, or a temp directory.
func DefaultDownloads() string {
	if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return filepath.Join(os.TempDir(), "todobridge-downloads")
}

// DefaultUserData returns XDG_DATA_HOME/todobridge, ~/.local/share/todobridge, or a temp directory.
func DefaultUserData() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "todobridge")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "todobridge")
	}
	return filepath.Join(os.TempDir(), "todobridge")
}
