package realtime

import (
	"context"
	"encoding/json"

	"github.com/cespare/xxhash/v2"

	"github.com/mvreilly/daydeck/internal/task"
)

// Snapshot is one full day-document delivery.
type Snapshot struct {
	Date  string
	Tasks []task.Task
}

// Handler consumes snapshots. Handlers are called from the channel's
// delivery goroutine and must not block for long.
type Handler func(Snapshot)

// Unsubscribe stops a subscription. Idempotent; after it returns, the
// handler is never called again.
type Unsubscribe func()

// Channel is a push subscription source scoped to a single date.
type Channel interface {
	// Subscribe starts delivering snapshots for the given date until the
	// context is cancelled or the returned Unsubscribe is called.
	Subscribe(ctx context.Context, date string, h Handler) (Unsubscribe, error)
}

// hashTasks fingerprints a task collection so consecutive identical
// snapshots can be dropped. Hashing the canonical JSON keeps the
// fingerprint aligned with the wire representation.
func hashTasks(tasks []task.Task) uint64 {
	data, err := json.Marshal(tasks)
	if err != nil {
		// Task marshalling cannot fail for our model; treat as unique.
		return 0
	}
	return xxhash.Sum64(data)
}

// deduper suppresses consecutive identical snapshots. Not safe for
// concurrent use; each subscription owns one.
type deduper struct {
	seen bool
	last uint64
}

// changed reports whether the snapshot differs from the previous delivery
// and records it.
func (d *deduper) changed(tasks []task.Task) bool {
	h := hashTasks(tasks)
	if d.seen && h == d.last {
		return false
	}
	d.seen = true
	d.last = h
	return true
}
