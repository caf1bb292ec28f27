package bridge

import (
	"fmt"

	"github.com/caffeineduck/todobridge/kvstore"
)

// SyncStatus is the plugin-facing view of the store's replication state.
type SyncStatus struct {
	Enabled   bool `json:"enabled"`
	Syncing   bool `json:"syncing"`
	Completed bool `json:"completed"`
}

// CloudSyncState reports the replication state. Without a replication accessor the
// status is all false and the error is nil. A panicking accessor is reported as an error.
func (b *Bridge) CloudSyncState() (status SyncStatus, err error) {
	if b.replication == nil {
		return SyncStatus{}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			status, err = SyncStatus{}, fmt.Errorf("replication state accessor panicked: %v", r)
		}
	}()

	state, err := b.replication.ReplicationState()
	if err != nil {
		return SyncStatus{}, fmt.Errorf("querying replication state: %w", err)
	}
	return statusOf(state), nil
}

func statusOf(state kvstore.ReplicationState) SyncStatus {
	switch state {
	case kvstore.ReplicationSyncing:
		return SyncStatus{Enabled: true, Syncing: true}
	case kvstore.ReplicationCompleted:
		return SyncStatus{Enabled: true, Completed: true}
	default:
		return SyncStatus{}
	}
}

// SignalFunc adapts a host accessor that reports replication as a nullable integer:
// nil when disabled, 1 while syncing, 0 once completed.
type SignalFunc func() (*int, error)

func (f SignalFunc) ReplicationState() (kvstore.ReplicationState, error) {
	sig, err := f()
	if err != nil {
		return kvstore.ReplicationDisabled, err
	}
	if sig == nil {
		return kvstore.ReplicationDisabled, nil
	}
	switch *sig {
	case 1:
		return kvstore.ReplicationSyncing, nil
	case 0:
		return kvstore.ReplicationCompleted, nil
	default:
		return kvstore.ReplicationDisabled, fmt.Errorf("unknown replication signal %d", *sig)
	}
}
