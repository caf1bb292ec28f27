// Package fsys is the filesystem the bridge reads and writes through.
//
// [OS] operates on the host filesystem. With no roots configured it may touch any
// absolute path; once roots are given, every path must fall under one of them and
// the root's [Mode] decides whether writes, creations and removals are allowed.
package fsys

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultMaxFileSize   = 64 << 20 // 64MB
	DefaultMaxWriteSize  = 64 << 20 // 64MB
	DefaultMaxPathLength = 4096
)

var (
	ErrPermission   = errors.New("permission denied")
	ErrFileTooLarge = errors.New("file too large")
	ErrPathTooLong  = errors.New("path too long")
)

// FS is the set of file operations the bridge needs.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Exists(path string) (bool, error)
	Remove(path string) error
	Rename(oldPath, newPath string) error
	MkdirAll(path string) error
}

// Mode defines the permission level of a root.
type Mode int

const (
	// ReadOnly allows only read operations.
	ReadOnly Mode = iota
	// ReadWrite allows writing and removing existing files.
	ReadWrite
	// ReadWriteCreate additionally allows creating files and directories.
	ReadWriteCreate
)

// Root is a host directory the OS filesystem is allowed to touch.
type Root struct {
	Path string
	Mode Mode
}

type Option func(*OS)

// WithRoots restricts the filesystem to the given roots. A root that cannot be
// resolved denies every operation.
func WithRoots(roots ...Root) Option {
	return func(o *OS) {
		for _, r := range roots {
			if r.Path == "" {
				o.rootErr = errors.Join(o.rootErr, errors.New("empty root path"))
				continue
			}
			abs, err := filepath.Abs(r.Path)
			if err != nil {
				o.rootErr = errors.Join(o.rootErr, fmt.Errorf("root %q: %w", r.Path, err))
				continue
			}
			o.roots = append(o.roots, Root{Path: filepath.Clean(abs), Mode: r.Mode})
		}
	}
}

// WithMaxFileSize sets the maximum size ReadFile returns.
func WithMaxFileSize(size int64) Option {
	return func(o *OS) { o.maxFileSize = size }
}

// WithMaxWriteSize sets the maximum size WriteFile accepts.
func WithMaxWriteSize(size int64) Option {
	return func(o *OS) { o.maxWriteSize = size }
}

// WithMaxPathLength sets the maximum accepted path length.
func WithMaxPathLength(n int) Option {
	return func(o *OS) { o.maxPathLength = n }
}

// OS implements FS on the host filesystem.
type OS struct {
	roots         []Root
	rootErr       error
	maxFileSize   int64
	maxWriteSize  int64
	maxPathLength int
}

// Err reports roots that could not be resolved.
func (o *OS) Err() error {
	return o.rootErr
}

func NewOS(opts ...Option) *OS {
	o := &OS{
		maxFileSize:   DefaultMaxFileSize,
		maxWriteSize:  DefaultMaxWriteSize,
		maxPathLength: DefaultMaxPathLength,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type access int

const (
	accessRead access = iota
	accessWrite
	accessCreate
)

// resolve cleans path and checks it against the configured roots.
func (o *OS) resolve(path string, need access) (string, error) {
	if o.rootErr != nil {
		return "", fmt.Errorf("%w: invalid roots: %v", ErrPermission, o.rootErr)
	}
	if o.maxPathLength > 0 && len(path) > o.maxPathLength {
		return "", fmt.Errorf("%w: %d > %d", ErrPathTooLong, len(path), o.maxPathLength)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	abs = filepath.Clean(abs)

	if len(o.roots) == 0 {
		return abs, nil
	}

	for _, r := range o.roots {
		if abs != r.Path && !strings.HasPrefix(abs, r.Path+string(filepath.Separator)) {
			continue
		}
		switch {
		case need == accessWrite && r.Mode == ReadOnly:
			return "", fmt.Errorf("%w: read-only root %s", ErrPermission, r.Path)
		case need == accessCreate && r.Mode != ReadWriteCreate:
			return "", fmt.Errorf("%w: cannot create under %s", ErrPermission, r.Path)
		}
		return abs, nil
	}
	return "", fmt.Errorf("%w: %s is not under any root", ErrPermission, abs)
}

func (o *OS) ReadFile(path string) ([]byte, error) {
	p, err := o.resolve(path, accessRead)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if o.maxFileSize <= 0 {
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(f, o.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > o.maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, p, o.maxFileSize)
	}
	return data, nil
}

func (o *OS) WriteFile(path string, data []byte) error {
	if o.maxWriteSize > 0 && int64(len(data)) > o.maxWriteSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, len(data), o.maxWriteSize)
	}

	need := accessWrite
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		need = accessCreate
	}
	p, err := o.resolve(path, need)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Exists reports whether path exists. Paths outside the roots do not exist.
func (o *OS) Exists(path string) (bool, error) {
	p, err := o.resolve(path, accessRead)
	if errors.Is(err, ErrPermission) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (o *OS) Remove(path string) error {
	p, err := o.resolve(path, accessWrite)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (o *OS) Rename(oldPath, newPath string) error {
	from, err := o.resolve(oldPath, accessWrite)
	if err != nil {
		return err
	}
	to, err := o.resolve(newPath, accessCreate)
	if err != nil {
		return err
	}
	return os.Rename(from, to)
}

func (o *OS) MkdirAll(path string) error {
	need := accessCreate
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		need = accessRead
	}
	p, err := o.resolve(path, need)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}
