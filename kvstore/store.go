package kvstore

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrKeyRequired    = errors.New("key required")
	ErrKeyTooLarge    = errors.New("key too large")
	ErrValueTooLarge  = errors.New("value too large")
	ErrTooManyEntries = errors.New("too many entries")
	ErrInvalidValue   = errors.New("value is not valid JSON")
	ErrClosed         = errors.New("store closed")
)

// Store is a string-keyed store of JSON values.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// ReplicationState is the tri-state replication signal of a store.
type ReplicationState int

const (
	ReplicationDisabled ReplicationState = iota
	ReplicationSyncing
	ReplicationCompleted
)

func (s ReplicationState) String() string {
	switch s {
	case ReplicationSyncing:
		return "syncing"
	case ReplicationCompleted:
		return "completed"
	default:
		return "disabled"
	}
}

// ReplicationStater is implemented by stores that replicate their records elsewhere.
type ReplicationStater interface {
	ReplicationState() (ReplicationState, error)
}

func validate(key string, value json.RawMessage) error {
	if key == "" {
		return ErrKeyRequired
	}
	if !json.Valid(value) {
		return ErrInvalidValue
	}
	return nil
}
