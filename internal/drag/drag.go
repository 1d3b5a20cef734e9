package drag

import (
	"github.com/mvreilly/daydeck/internal/logging"
	"github.com/mvreilly/daydeck/internal/task"
)

var logger = logging.New("drag")

// Submitter receives the mutation produced by a resolved drop. The
// optimistic mutation tracker satisfies this.
type Submitter interface {
	Submit(taskID string, u task.PartialUpdate)
}

// State identifies where a gesture is in its lifecycle.
type State int

const (
	// Idle means no drag is in progress.
	Idle State = iota
	// Dragging means a task has been picked up and not yet released.
	Dragging
)

var stateStrings = []string{"idle", "dragging"}

// String returns a human-readable label for the state.
func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateStrings) {
		return "unknown"
	}
	return stateStrings[int(s)]
}

// TargetType classifies what a drag is currently over or dropped on.
type TargetType int

const (
	// TargetNone means the pointer is outside any valid target.
	TargetNone TargetType = iota
	// TargetTask means the pointer is over another task card.
	TargetTask
	// TargetBucket means the pointer is over a bucket container.
	TargetBucket
)

// Lookup resolves a task ID to its current time block. The resolver uses
// it to decide whether a bucket drop actually changes anything.
type Lookup func(taskID string) (task.TimeBlock, bool)

// Resolver tracks a single drag gesture. It is single-threaded by design:
// the UI event loop owns it, matching the one-gesture-at-a-time input
// model. Idle -> Dragging -> (drop | cancel) -> Idle.
type Resolver struct {
	state  State
	taskID string
	lookup Lookup
	submit Submitter
}

// NewResolver creates a resolver that resolves current buckets through
// lookup and submits mutations through submit.
func NewResolver(lookup Lookup, submit Submitter) *Resolver {
	return &Resolver{lookup: lookup, submit: submit}
}

// State returns the current gesture state.
func (r *Resolver) State() State {
	return r.state
}

// DraggingTask returns the ID of the task being dragged, or "" when idle.
func (r *Resolver) DraggingTask() string {
	if r.state != Dragging {
		return ""
	}
	return r.taskID
}

// Start begins a gesture for the given task. Starting while a gesture is
// already active replaces it; the prior gesture is treated as cancelled.
func (r *Resolver) Start(taskID string) {
	if r.state == Dragging {
		logger.Debug("drag restarted mid-gesture", "prev", r.taskID, "task", taskID)
	}
	r.state = Dragging
	r.taskID = taskID
}

// DropOnBucket ends the gesture over a bucket container. A changed bucket
// emits exactly one {time_block} mutation; an unchanged bucket is a no-op.
// Returns true if a mutation was submitted.
func (r *Resolver) DropOnBucket(bucket task.TimeBlock) bool {
	if r.state != Dragging {
		return false
	}
	taskID := r.taskID
	r.reset()

	current, ok := r.lookup(taskID)
	if !ok {
		logger.Warn("dropped task no longer in view", "task", taskID)
		return false
	}
	if current == bucket {
		return false
	}

	b := bucket
	r.submit.Submit(taskID, task.PartialUpdate{TimeBlock: &b})
	logger.Debug("bucket change submitted", "task", taskID, "from", current, "to", bucket)
	return true
}

// DropOnTask ends the gesture over another task card. Cross-list ordering
// is a presentation concern; nothing is persisted here.
func (r *Resolver) DropOnTask(targetTaskID string) {
	if r.state != Dragging {
		return
	}
	logger.Debug("drop on task, no mutation", "task", r.taskID, "target", targetTaskID)
	r.reset()
}

// Cancel ends the gesture without a drop (released outside any valid
// target, or escape pressed). Emits nothing.
func (r *Resolver) Cancel() {
	if r.state != Dragging {
		return
	}
	r.reset()
}

func (r *Resolver) reset() {
	r.state = Idle
	r.taskID = ""
}
