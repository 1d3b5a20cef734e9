package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvreilly/daydeck/internal/logging"
	"github.com/mvreilly/daydeck/internal/store"
	"github.com/mvreilly/daydeck/internal/task"
)

var logger = logging.New("tracker")

// UpdateFunc performs the remote write for a mutation. The session binds
// this to the store client's UpdateTask for the date in view.
type UpdateFunc func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error)

// Config tunes the retry scheduler.
type Config struct {
	// BaseDelay is the delay before the first retry. Subsequent retries
	// back off exponentially: base, base*2, base*4, ...
	BaseDelay time.Duration

	// MaxRetries is the number of retry attempts before a mutation is
	// parked in the failed set (default: 3).
	MaxRetries int
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		BaseDelay:  2 * time.Second,
		MaxRetries: 3,
	}
}

// Mutation is a submitted partial update tracked as pending or failed.
type Mutation struct {
	// ID uniquely identifies this submission. A re-submit for the same
	// task gets a new ID.
	ID string

	// TaskID is the task the update targets.
	TaskID string

	// Update is the partial update as submitted.
	Update task.PartialUpdate

	// CreatedAt is when the mutation was submitted.
	CreatedAt time.Time

	// RetryCount is the number of retry attempts performed so far.
	RetryCount int

	// Exhausted is true once MaxRetries attempts have failed; the entry
	// then stays parked until RetryFailed or ClearFailed.
	Exhausted bool
}

// overlayEntry is the per-task optimistic value shown by EffectiveView.
// It records which mutation produced it so a stale write confirmation
// cannot clear a newer submit's overlay.
type overlayEntry struct {
	mutationID string
	update     task.PartialUpdate
}

// failedEntry pairs a parked mutation with its retry timer. gen is bumped
// on every schedule and cancel; a fired timer whose captured generation no
// longer matches is a no-op, which makes cancellation deterministic even
// when Stop races with the timer firing.
type failedEntry struct {
	mutation Mutation
	timer    *time.Timer
	gen      uint64
}

// Tracker owns the pending and failed mutation sets plus the optimistic
// overlay. It is safe for concurrent use; store calls run on their own
// goroutines, and a realtime snapshot arriving mid-retry never suppresses
// the retry.
type Tracker struct {
	mu      sync.Mutex
	cfg     Config
	update  UpdateFunc
	overlay map[string]overlayEntry // taskID -> optimistic value
	pending map[string]Mutation     // taskID -> in-flight mutation
	failed  map[string]*failedEntry // mutationID -> parked mutation
	now     func() time.Time
	after   func(time.Duration, func()) *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onChange func() // invoked outside the lock after any set change
}

// New creates a tracker that writes through fn. Zero Config fields fall
// back to their defaults.
func New(fn UpdateFunc, cfg Config) *Tracker {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		cfg:     cfg,
		update:  fn,
		overlay: make(map[string]overlayEntry),
		pending: make(map[string]Mutation),
		failed:  make(map[string]*failedEntry),
		now:     time.Now,
		after:   time.AfterFunc,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetOnChange registers a callback invoked after every tracked-set
// change. The callback runs outside the tracker's lock and must not
// block.
func (tr *Tracker) SetOnChange(fn func()) {
	tr.mu.Lock()
	tr.onChange = fn
	tr.mu.Unlock()
}

// Close cancels all scheduled retries and waits for in-flight store calls
// to return. The tracked sets are left as-is for inspection.
func (tr *Tracker) Close() {
	tr.cancel()
	tr.mu.Lock()
	for _, e := range tr.failed {
		tr.cancelTimerLocked(e)
	}
	tr.mu.Unlock()
	tr.wg.Wait()
}

// Flush waits for all in-flight store calls (not scheduled retries) to
// settle. Test helper.
func (tr *Tracker) Flush() {
	tr.wg.Wait()
}

// notify invokes the change callback, if any. Call without the lock held.
func (tr *Tracker) notify() {
	tr.mu.Lock()
	cb := tr.onChange
	tr.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Submit records an optimistic mutation for a task and starts the store
// write asynchronously. A second Submit for a task that already has a
// pending mutation overwrites the tracked entry (last caller wins
// locally) while both underlying store writes still race independently.
func (tr *Tracker) Submit(taskID string, u task.PartialUpdate) {
	m := Mutation{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Update:    u,
		CreatedAt: tr.now(),
	}

	tr.mu.Lock()
	tr.overlay[taskID] = overlayEntry{mutationID: m.ID, update: u}
	tr.pending[taskID] = m
	tr.mu.Unlock()
	tr.notify()

	logger.Debug("mutation submitted", "task", taskID, "mutation", m.ID, "fields", u.Fields())

	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		tr.attempt(m)
	}()
}

// attempt performs the store write for a freshly submitted mutation.
func (tr *Tracker) attempt(m Mutation) {
	_, err := tr.update(tr.ctx, m.TaskID, m.Update)

	tr.mu.Lock()
	// Only the mutation that owns the pending slot may clear it; an
	// overwriting Submit installed a newer entry we must not disturb.
	if cur, ok := tr.pending[m.TaskID]; ok && cur.ID == m.ID {
		delete(tr.pending, m.TaskID)
	}

	if err == nil {
		tr.clearOverlayLocked(m)
		// A confirmed write supersedes any parked failures for the task.
		tr.dropFailedForTaskLocked(m.TaskID)
		tr.mu.Unlock()
		tr.notify()
		return
	}

	if !store.Retryable(err) {
		tr.clearOverlayLocked(m)
		tr.mu.Unlock()
		logger.Warn("mutation rejected, not retrying", "task", m.TaskID, "mutation", m.ID, "err", err)
		tr.notify()
		return
	}

	entry := &failedEntry{mutation: m}
	tr.failed[m.ID] = entry
	tr.scheduleLocked(entry, tr.cfg.BaseDelay)
	tr.mu.Unlock()

	logger.Warn("mutation failed, retry scheduled",
		"task", m.TaskID, "mutation", m.ID, "delay", tr.cfg.BaseDelay, "err", err)
	tr.notify()
}

// clearOverlayLocked removes the task's overlay if this mutation still
// owns it. Caller holds the lock.
func (tr *Tracker) clearOverlayLocked(m Mutation) {
	if o, ok := tr.overlay[m.TaskID]; ok && o.mutationID == m.ID {
		delete(tr.overlay, m.TaskID)
	}
}

// scheduleLocked arms the retry timer for a failed entry. Caller holds
// the lock.
func (tr *Tracker) scheduleLocked(e *failedEntry, delay time.Duration) {
	e.gen++
	gen := e.gen
	id := e.mutation.ID
	e.timer = tr.after(delay, func() {
		tr.retry(id, gen)
	})
}

// cancelTimerLocked stops a scheduled retry. The generation bump makes a
// concurrently firing callback a no-op, so a cancelled timer can never
// act afterward. Caller holds the lock.
func (tr *Tracker) cancelTimerLocked(e *failedEntry) {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// dropFailedForTaskLocked cancels and removes every failed entry for a
// task. Caller holds the lock.
func (tr *Tracker) dropFailedForTaskLocked(taskID string) {
	for id, e := range tr.failed {
		if e.mutation.TaskID == taskID {
			tr.cancelTimerLocked(e)
			delete(tr.failed, id)
		}
	}
}

// retry re-attempts a parked mutation. It runs on the timer goroutine;
// the generation check under the lock guarantees a cancelled timer does
// nothing even if it already fired. Retries proceed regardless of any
// snapshot that arrived in the meantime.
func (tr *Tracker) retry(mutationID string, gen uint64) {
	tr.mu.Lock()
	e, ok := tr.failed[mutationID]
	if !ok || e.gen != gen {
		tr.mu.Unlock()
		return
	}
	m := e.mutation
	tr.mu.Unlock()

	if tr.ctx.Err() != nil {
		return
	}

	_, err := tr.update(tr.ctx, m.TaskID, m.Update)

	tr.mu.Lock()
	e, ok = tr.failed[mutationID]
	if !ok {
		// Cleared or superseded while the store call was in flight.
		tr.mu.Unlock()
		return
	}

	if err == nil {
		tr.cancelTimerLocked(e)
		delete(tr.failed, mutationID)
		tr.clearOverlayLocked(m)
		tr.mu.Unlock()
		logger.Info("retry succeeded", "task", m.TaskID, "mutation", mutationID, "attempt", m.RetryCount+1)
		tr.notify()
		return
	}

	e.mutation.RetryCount++
	if e.mutation.RetryCount < tr.cfg.MaxRetries {
		delay := tr.cfg.BaseDelay << uint(e.mutation.RetryCount)
		tr.scheduleLocked(e, delay)
		tr.mu.Unlock()
		logger.Warn("retry failed, rescheduled",
			"task", m.TaskID, "mutation", mutationID,
			"attempt", e.mutation.RetryCount, "delay", delay, "err", err)
		tr.notify()
		return
	}

	e.mutation.Exhausted = true
	e.timer = nil
	tr.mu.Unlock()
	logger.Error("retries exhausted, mutation parked",
		"task", m.TaskID, "mutation", mutationID, "attempts", tr.cfg.MaxRetries, "err", err)
	tr.notify()
}

// RetryFailed resets the retry count of every failed entry and retries
// immediately. User-initiated force retry.
func (tr *Tracker) RetryFailed() {
	tr.mu.Lock()
	n := len(tr.failed)
	for _, e := range tr.failed {
		tr.cancelTimerLocked(e)
		e.mutation.RetryCount = 0
		e.mutation.Exhausted = false
		// Re-arm with a zero delay so the immediate retry shares the
		// scheduled path and its generation bookkeeping.
		tr.scheduleLocked(e, 0)
	}
	tr.mu.Unlock()

	if n > 0 {
		logger.Info("forcing retry of failed mutations", "count", n)
		tr.notify()
	}
}

// ClearFailed cancels all scheduled retries and empties the failed set
// (user dismissal). The optimistic overlay stays visible; it is simply no
// longer retried, so the stored document keeps the old value until some
// later write or push changes it.
func (tr *Tracker) ClearFailed() {
	tr.mu.Lock()
	n := len(tr.failed)
	for id, e := range tr.failed {
		tr.cancelTimerLocked(e)
		delete(tr.failed, id)
	}
	tr.mu.Unlock()

	if n > 0 {
		logger.Info("failed mutations dismissed", "count", n)
		tr.notify()
	}
}

// IsPending reports whether a mutation is awaiting confirmation for the
// task.
func (tr *Tracker) IsPending(taskID string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	_, ok := tr.pending[taskID]
	return ok
}

// HasFailed reports whether any mutation is parked in the failed set.
func (tr *Tracker) HasFailed() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.failed) > 0
}

// FailedCount returns the number of parked mutations.
func (tr *Tracker) FailedCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.failed)
}

// Failed returns a snapshot of the parked mutations.
func (tr *Tracker) Failed() []Mutation {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]Mutation, 0, len(tr.failed))
	for _, e := range tr.failed {
		out = append(out, e.mutation)
	}
	return out
}

// EffectiveView overlays the tracked optimistic values on the confirmed
// task collection, bumping updated_at to now on overlaid tasks. Tasks
// without an overlay pass through unchanged. This is the only place that
// produces what the user sees.
func (tr *Tracker) EffectiveView(confirmed []task.Task) []task.Task {
	tr.mu.Lock()
	overlays := make(map[string]task.PartialUpdate, len(tr.overlay))
	for id, o := range tr.overlay {
		overlays[id] = o.update
	}
	now := tr.now()
	tr.mu.Unlock()

	out := make([]task.Task, len(confirmed))
	for i, t := range confirmed {
		u, ok := overlays[t.ID]
		if !ok {
			out[i] = t
			continue
		}
		c := t.Clone()
		u.Apply(&c, now)
		out[i] = c
	}
	return out
}
