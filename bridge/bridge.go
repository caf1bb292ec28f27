package bridge

import (
	"errors"
	"log/slog"
	"time"

	"github.com/caffeineduck/todobridge/fsys"
	"github.com/caffeineduck/todobridge/hostpath"
	"github.com/caffeineduck/todobridge/kvstore"
)

// Store keys.
const (
	KeyTodos    = "todos"
	KeyArchived = "todos-archived"
)

// Files kept in the user data directory.
const (
	LegacyTodosFile = "todos.json"
	ArchivedFile    = "todos-archived.json"
	SettingsFile    = "todos-settings.json"
)

// EmptyList is returned for list payloads when nothing has been stored yet.
const EmptyList = "[]"

var (
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrNoDataURL    = errors.New("not an image data URL")
	ErrInvalidImage = errors.New("invalid image payload")
	ErrNotFound     = errors.New("not found")
)

// LegacyPolicy decides what happens to todos.json once it has been copied into the store.
type LegacyPolicy int

const (
	// LegacyKeep leaves the file untouched.
	LegacyKeep LegacyPolicy = iota
	// LegacyRemove deletes the file.
	LegacyRemove
	// LegacyBackup renames the file to todos.json.migrated.
	LegacyBackup
)

func (p LegacyPolicy) String() string {
	switch p {
	case LegacyRemove:
		return "remove"
	case LegacyBackup:
		return "backup"
	default:
		return "keep"
	}
}

// ParseLegacyPolicy accepts "keep", "remove" or "backup". The empty string means keep.
func ParseLegacyPolicy(s string) (LegacyPolicy, error) {
	switch s {
	case "", "keep":
		return LegacyKeep, nil
	case "remove":
		return LegacyRemove, nil
	case "backup":
		return LegacyBackup, nil
	default:
		return LegacyKeep, errors.New("unknown legacy policy " + s + " (expected keep, remove, or backup)")
	}
}

// Deps are the host collaborators a Bridge works against. Replication is optional.
type Deps struct {
	Paths       hostpath.Resolver
	Store       kvstore.Store
	FS          fsys.FS
	Replication kvstore.ReplicationStater
}

type Option func(*Bridge)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock replaces time.Now, which names files written to the downloads directory.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

func WithLegacyPolicy(p LegacyPolicy) Option {
	return func(b *Bridge) {
		b.legacy = p
	}
}

// Bridge holds no state of its own; every call goes straight to one collaborator.
type Bridge struct {
	paths       hostpath.Resolver
	store       kvstore.Store
	fs          fsys.FS
	replication kvstore.ReplicationStater

	logger *slog.Logger
	now    func() time.Time
	legacy LegacyPolicy
}

func New(deps Deps, opts ...Option) (*Bridge, error) {
	switch {
	case deps.Paths == nil:
		return nil, errors.New("bridge: path resolver required")
	case deps.Store == nil:
		return nil, errors.New("bridge: key/value store required")
	case deps.FS == nil:
		return nil, errors.New("bridge: filesystem required")
	}

	b := &Bridge{
		paths:       deps.Paths,
		store:       deps.Store,
		fs:          deps.FS,
		replication: deps.Replication,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}
