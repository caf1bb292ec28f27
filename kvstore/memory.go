package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

const (
	DefaultMaxKeySize   = 256
	DefaultMaxValueSize = 4 << 20 // 4MB
	DefaultMaxEntries   = 1024
)

// Config bounds what a Memory store accepts. Zero fields disable the limit.
type Config struct {
	MaxKeySize   int
	MaxValueSize int
	MaxEntries   int
}

func DefaultConfig() Config {
	return Config{
		MaxKeySize:   DefaultMaxKeySize,
		MaxValueSize: DefaultMaxValueSize,
		MaxEntries:   DefaultMaxEntries,
	}
}

type Memory struct {
	cfg  Config
	data map[string]json.RawMessage
	mu   sync.RWMutex
}

func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, data: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if key == "" {
		return nil, false, ErrKeyRequired
	}

	m.mu.RLock()
	val, exists := m.data[key]
	m.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), val...), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := validate(key, value); err != nil {
		return err
	}
	if m.cfg.MaxKeySize > 0 && len(key) > m.cfg.MaxKeySize {
		return fmt.Errorf("%w: %d > %d bytes", ErrKeyTooLarge, len(key), m.cfg.MaxKeySize)
	}
	if m.cfg.MaxValueSize > 0 && len(value) > m.cfg.MaxValueSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrValueTooLarge, len(value), m.cfg.MaxValueSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists && m.cfg.MaxEntries > 0 && len(m.data) >= m.cfg.MaxEntries {
		return fmt.Errorf("%w: limit %d", ErrTooManyEntries, m.cfg.MaxEntries)
	}
	m.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
