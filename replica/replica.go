// Package replica replicates key/value records through a directory shared
// between devices, such as a folder kept in sync by a file sync service.
//
// Every write goes to the local store first and is then published as
// <key>.json in the sync directory. Records published by other devices are
// applied by Pull or, continuously, by Watch. Conflicts resolve by the record's
// updated_at timestamp: the last writer wins. A record with a null value is a
// deletion.
package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caffeineduck/todobridge/kvstore"
)

const (
	recordExt  = ".json"
	tempPrefix = ".todobridge-tmp-"
)

var ErrNoDir = errors.New("replica: sync directory required")

// Record is the on-disk form of one replicated key.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Device    string          `json:"device"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r Record) deleted() bool {
	return len(r.Value) == 0 || bytes.Equal(bytes.TrimSpace(r.Value), []byte("null"))
}

type Option func(*Replica)

// WithDevice sets this device's id. The default is a random UUID per process.
func WithDevice(id string) Option {
	return func(r *Replica) {
		if id != "" {
			r.device = id
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Replica) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Replica) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDebounce sets how long Watch waits for a record file to settle before applying it.
func WithDebounce(d time.Duration) Option {
	return func(r *Replica) {
		r.debounce = d
	}
}

// Replica is a kvstore.Store that publishes its writes to a sync directory.
// It also reports replication state for the bridge's cloud sync query.
type Replica struct {
	local    kvstore.Store
	dir      string
	device   string
	logger   *slog.Logger
	now      func() time.Time
	debounce time.Duration

	mu       sync.Mutex
	seen     map[string]time.Time // newest updated_at applied or published per key
	keyLocks map[string]*sync.Mutex
	pending  map[string]struct{} // keys written locally whose publish failed
	active   int
	synced   bool
	lastErr  error
}

// New wraps local. The sync directory is created if missing.
func New(local kvstore.Store, dir string, opts ...Option) (*Replica, error) {
	if dir == "" {
		return nil, ErrNoDir
	}
	if local == nil {
		return nil, errors.New("replica: local store required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("replica: resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("replica: creating sync directory: %w", err)
	}

	r := &Replica{
		local:    local,
		dir:      abs,
		device:   uuid.NewString(),
		logger:   slog.Default(),
		now:      time.Now,
		debounce: 50 * time.Millisecond,
		seen:     make(map[string]time.Time),
		keyLocks: make(map[string]*sync.Mutex),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Replica) Dir() string    { return r.dir }
func (r *Replica) Device() string { return r.device }

// ReplicationState is Syncing until the first Pull completes, while any publish
// or pull is in flight and while a local write has not been published. It is
// Completed otherwise.
func (r *Replica) ReplicationState() (kvstore.ReplicationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active > 0 || !r.synced || len(r.pending) > 0 {
		return kvstore.ReplicationSyncing, nil
	}
	return kvstore.ReplicationCompleted, nil
}

// LastError returns the most recent publish or pull failure. It is cleared once
// a later operation succeeds and every local write has been published.
func (r *Replica) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Replica) begin() {
	r.mu.Lock()
	r.active++
	r.mu.Unlock()
}

func (r *Replica) end(err error) {
	r.mu.Lock()
	r.active--
	if err != nil {
		r.lastErr = err
	} else if len(r.pending) == 0 {
		r.lastErr = nil
	}
	r.mu.Unlock()
}

// lockKey serializes local writes, publishes and applies of one key.
func (r *Replica) lockKey(key string) func() {
	r.mu.Lock()
	l, ok := r.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		r.keyLocks[key] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (r *Replica) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return r.local.Get(ctx, key)
}

func (r *Replica) Keys(ctx context.Context) ([]string, error) {
	return r.local.Keys(ctx)
}

// Set writes locally, then publishes. Only a local failure is returned. A failed
// publish is logged, reported through LastError and ReplicationState, and retried
// by the next Pull.
func (r *Replica) Set(ctx context.Context, key string, value json.RawMessage) error {
	unlock := r.lockKey(key)
	defer unlock()

	if err := r.local.Set(ctx, key, value); err != nil {
		return err
	}
	r.publish(key, value)
	return nil
}

// Delete removes key locally and publishes a null record so other devices drop it too.
func (r *Replica) Delete(ctx context.Context, key string) error {
	unlock := r.lockKey(key)
	defer unlock()

	if err := r.local.Delete(ctx, key); err != nil {
		return err
	}
	r.publish(key, json.RawMessage("null"))
	return nil
}

// publish writes the record for key. The caller holds the key lock.
func (r *Replica) publish(key string, value json.RawMessage) (err error) {
	r.begin()
	defer func() {
		r.mu.Lock()
		if err != nil {
			r.pending[key] = struct{}{}
		} else {
			delete(r.pending, key)
		}
		r.mu.Unlock()
		r.end(err)
		if err != nil {
			r.logger.Warn("publishing replica record failed", "key", key, "error", err)
		}
	}()

	rec := Record{Key: key, Value: value, Device: r.device, UpdatedAt: r.now().UTC()}

	r.mu.Lock()
	if prev, ok := r.seen[key]; ok && !rec.UpdatedAt.After(prev) {
		// Keep timestamps strictly increasing per key so our own write wins locally.
		rec.UpdatedAt = prev.Add(time.Nanosecond)
	}
	r.seen[key] = rec.UpdatedAt
	r.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("replica: encoding %s: %w", key, err)
	}
	if err := writeFileAtomic(r.recordPath(key), data); err != nil {
		return fmt.Errorf("replica: publishing %s: %w", key, err)
	}
	r.logger.Debug("published record", "key", key, "device", r.device)
	return nil
}

// Pull applies every record in the sync directory that is newer than what this
// replica has seen and returns how many were applied. Unreadable records are
// logged and skipped.
func (r *Replica) Pull(ctx context.Context) (applied int, err error) {
	r.begin()
	defer func() {
		r.end(err)
		if err == nil {
			r.mu.Lock()
			r.synced = true
			r.mu.Unlock()
		}
	}()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("replica: listing %s: %w", r.dir, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if entry.IsDir() || !isRecordFile(entry.Name()) {
			continue
		}
		ok, err := r.applyFile(ctx, filepath.Join(r.dir, entry.Name()))
		if err != nil {
			r.logger.Warn("skipping replica record", "file", entry.Name(), "error", err)
			continue
		}
		if ok {
			applied++
		}
	}
	r.republish(ctx)
	if applied > 0 {
		r.logger.Info("pulled replica records", "applied", applied)
	}
	return applied, nil
}

// applyFile applies the record at path if it is newer than the last one seen for its key.
func (r *Replica) applyFile(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, fmt.Errorf("decoding record: %w", err)
	}
	if rec.Key == "" {
		return false, errors.New("record has no key")
	}

	unlock := r.lockKey(rec.Key)
	defer unlock()

	r.mu.Lock()
	prev, ok := r.seen[rec.Key]
	r.mu.Unlock()
	if ok && !rec.UpdatedAt.After(prev) {
		return false, nil
	}

	if rec.deleted() {
		err = r.local.Delete(ctx, rec.Key)
	} else {
		err = r.local.Set(ctx, rec.Key, rec.Value)
	}
	if err != nil {
		return false, fmt.Errorf("applying %s: %w", rec.Key, err)
	}

	r.mu.Lock()
	r.seen[rec.Key] = rec.UpdatedAt
	delete(r.pending, rec.Key)
	r.mu.Unlock()
	r.logger.Debug("applied record", "key", rec.Key, "device", rec.Device, "updated_at", rec.UpdatedAt)
	return true, nil
}

// republish retries keys whose last publish failed, using their current local value.
func (r *Replica) republish(ctx context.Context) {
	r.mu.Lock()
	keys := make([]string, 0, len(r.pending))
	for key := range r.pending {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	for _, key := range keys {
		unlock := r.lockKey(key)
		value, ok, err := r.local.Get(ctx, key)
		switch {
		case err != nil:
			r.logger.Warn("reading unpublished record", "key", key, "error", err)
		case ok:
			r.publish(key, value)
		default:
			r.publish(key, json.RawMessage("null"))
		}
		unlock()
	}
}

func (r *Replica) recordPath(key string) string {
	return filepath.Join(r.dir, url.PathEscape(key)+recordExt)
}

func isRecordFile(name string) bool {
	return strings.HasSuffix(name, recordExt) && !strings.HasPrefix(name, tempPrefix)
}

func writeFileAtomic(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	return os.Rename(tmp.Name(), filename)
}
