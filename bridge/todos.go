package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MigrationResult describes what a migration attempt did.
type MigrationResult struct {
	Migrated   bool
	LegacyPath string
	// Action is what was done to the legacy file: "kept", "removed" or "backed up".
	Action string
	// Reason explains why nothing was migrated.
	Reason string
}

// ReadTodos returns the todo list as JSON text.
//
// The store is consulted first. If it has no list and todos.json exists in the
// user data directory, that file's text is returned and copied into the store; a
// failed copy is logged and does not fail the read. With nothing in either place
// the result is EmptyList.
func (b *Bridge) ReadTodos(ctx context.Context) (string, error) {
	raw, ok, err := b.getList(ctx, KeyTodos)
	if err != nil {
		return "", err
	}
	if ok {
		return string(raw), nil
	}

	path, err := b.userDataPath(LegacyTodosFile)
	if err != nil {
		return "", err
	}
	exists, err := b.fs.Exists(path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return EmptyList, nil
	}

	data, err := b.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	if res, err := b.migrateLegacy(ctx, path, data); err != nil {
		b.logger.Warn("legacy todo migration failed", "path", path, "error", err)
	} else {
		b.logger.Info("migrated legacy todos", "path", path, "legacy", res.Action)
	}
	return string(data), nil
}

// WriteTodos validates jsonText and stores it under KeyTodos. Invalid JSON leaves
// the stored list untouched.
func (b *Bridge) WriteTodos(ctx context.Context, jsonText string) error {
	return b.putList(ctx, KeyTodos, jsonText)
}

// ReadArchived returns the archived list from the store, or EmptyList.
func (b *Bridge) ReadArchived(ctx context.Context) (string, error) {
	raw, ok, err := b.getList(ctx, KeyArchived)
	if err != nil {
		return "", err
	}
	if !ok {
		return EmptyList, nil
	}
	return string(raw), nil
}

func (b *Bridge) WriteArchived(ctx context.Context, jsonText string) error {
	return b.putList(ctx, KeyArchived, jsonText)
}

// Migrate copies todos.json into the store now instead of waiting for the first read.
// It does nothing when the store already holds a list or there is no legacy file.
func (b *Bridge) Migrate(ctx context.Context) (MigrationResult, error) {
	path, err := b.userDataPath(LegacyTodosFile)
	if err != nil {
		return MigrationResult{}, err
	}

	_, ok, err := b.getList(ctx, KeyTodos)
	if err != nil {
		return MigrationResult{LegacyPath: path}, err
	}
	if ok {
		return MigrationResult{LegacyPath: path, Reason: "store already holds todos"}, nil
	}

	exists, err := b.fs.Exists(path)
	if err != nil {
		return MigrationResult{LegacyPath: path}, fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return MigrationResult{LegacyPath: path, Reason: "no legacy file"}, nil
	}

	data, err := b.fs.ReadFile(path)
	if err != nil {
		return MigrationResult{LegacyPath: path}, fmt.Errorf("reading %s: %w", path, err)
	}
	return b.migrateLegacy(ctx, path, data)
}

func (b *Bridge) migrateLegacy(ctx context.Context, path string, data []byte) (MigrationResult, error) {
	res := MigrationResult{LegacyPath: path}

	value, err := normalizeJSON(data)
	if err != nil {
		return res, fmt.Errorf("legacy file %s: %w", path, err)
	}
	if err := b.store.Set(ctx, KeyTodos, value); err != nil {
		return res, fmt.Errorf("storing %s: %w", KeyTodos, err)
	}
	res.Migrated = true

	// The list is safe in the store from here on, so a failure below is only logged.
	switch b.legacy {
	case LegacyRemove:
		if err := b.fs.Remove(path); err != nil {
			b.logger.Warn("removing migrated legacy file", "path", path, "error", err)
			res.Action = "kept"
		} else {
			res.Action = "removed"
		}
	case LegacyBackup:
		if err := b.fs.Rename(path, path+".migrated"); err != nil {
			b.logger.Warn("backing up migrated legacy file", "path", path, "error", err)
			res.Action = "kept"
		} else {
			res.Action = "backed up"
		}
	default:
		res.Action = "kept"
	}
	return res, nil
}

// getList reads key from the store. A stored JSON null counts as absent.
func (b *Bridge) getList(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false, nil
	}
	return raw, true, nil
}

func (b *Bridge) putList(ctx context.Context, key, jsonText string) error {
	value, err := normalizeJSON([]byte(jsonText))
	if err != nil {
		return err
	}
	if err := b.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// normalizeJSON parses data as a single JSON value and re-encodes it compactly.
// Numbers keep their literal form.
func normalizeJSON(data []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after value", ErrInvalidJSON)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
