package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mvreilly/daydeck/internal/logging"
	"github.com/mvreilly/daydeck/internal/realtime"
	"github.com/mvreilly/daydeck/internal/store"
	"github.com/mvreilly/daydeck/internal/task"
	"github.com/mvreilly/daydeck/internal/tracker"
)

var logger = logging.New("session")

// Session owns the live view of a single day document.
type Session struct {
	date  string
	store store.Store
	trk   *tracker.Tracker

	mu        sync.Mutex
	confirmed []task.Task

	unsubscribe realtime.Unsubscribe
	onChange    func()
}

// Options configures a session.
type Options struct {
	// Date is the day document key (YYYY-MM-DD).
	Date string

	// Store performs the document reads and writes.
	Store store.Store

	// Channel, when non-nil, pushes confirmed snapshots into the session.
	Channel realtime.Channel

	// Retry tunes the tracker's backoff. Zero values use defaults.
	Retry tracker.Config
}

// New fetches the initial day document, starts the tracker, and opens the
// realtime subscription when a channel is provided.
func New(ctx context.Context, opts Options) (*Session, error) {
	if !task.ValidDate(opts.Date) {
		return nil, &task.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}

	tasks, err := opts.Store.FetchDay(ctx, opts.Date)
	if err != nil {
		return nil, fmt.Errorf("loading day %s: %w", opts.Date, err)
	}

	s := &Session{
		date:      opts.Date,
		store:     opts.Store,
		confirmed: task.CloneTasks(tasks),
	}

	s.trk = tracker.New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		t, err := opts.Store.UpdateTask(ctx, opts.Date, taskID, u)
		if err == nil {
			s.confirmTask(t)
		}
		return t, err
	}, opts.Retry)
	s.trk.SetOnChange(func() { s.notify() })

	if opts.Channel != nil {
		unsub, err := opts.Channel.Subscribe(ctx, opts.Date, func(snap realtime.Snapshot) {
			s.ApplySnapshot(snap.Tasks)
		})
		if err != nil {
			s.trk.Close()
			return nil, fmt.Errorf("subscribing to day %s: %w", opts.Date, err)
		}
		s.unsubscribe = unsub
	}

	logger.Info("session opened", "date", opts.Date, "tasks", len(tasks))
	return s, nil
}

// Close stops the realtime subscription and the tracker's retry timers.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.trk.Close()
}

// Date returns the day document key in view.
func (s *Session) Date() string {
	return s.date
}

// Tracker exposes the underlying mutation tracker (for the drag resolver
// and tests).
func (s *Session) Tracker() *tracker.Tracker {
	return s.trk
}

// SetOnChange registers a callback invoked after every change to what
// EffectiveView would return: snapshot applications and tracker set
// changes alike. Runs outside locks; must not block.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// ApplySnapshot replaces the confirmed base collection wholesale. This is
// the single snapshot writer; deliveries are never merged field-by-field,
// so a push predating a pending write's confirmation reverts unrelated
// fields until the next push. The tracker's overlay keeps masking the
// fields its pending mutations touch.
func (s *Session) ApplySnapshot(tasks []task.Task) {
	s.mu.Lock()
	s.confirmed = task.CloneTasks(tasks)
	s.mu.Unlock()
	logger.Debug("snapshot applied", "date", s.date, "tasks", len(tasks))
	s.notify()
}

// confirmTask splices a store-confirmed task into the confirmed base so
// the view reflects the write before the next push arrives.
func (s *Session) confirmTask(t task.Task) {
	s.mu.Lock()
	for i := range s.confirmed {
		if s.confirmed[i].ID == t.ID {
			s.confirmed[i] = t.Clone()
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// EffectiveView returns the confirmed collection with all tracked
// optimistic mutations overlaid. This is what the UI renders.
func (s *Session) EffectiveView() []task.Task {
	s.mu.Lock()
	confirmed := task.CloneTasks(s.confirmed)
	s.mu.Unlock()
	return s.trk.EffectiveView(confirmed)
}

// Summary recomputes the derived day summary from the effective view.
func (s *Session) Summary() task.DaySummary {
	return task.SummaryOf(s.EffectiveView())
}

// find returns a clone of the identified task from the confirmed base.
func (s *Session) find(taskID string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.confirmed {
		if s.confirmed[i].ID == taskID {
			return s.confirmed[i].Clone(), true
		}
	}
	return task.Task{}, false
}

// BucketOf resolves a task's current time block; the drag resolver's
// lookup function.
func (s *Session) BucketOf(taskID string) (task.TimeBlock, bool) {
	t, ok := s.find(taskID)
	if !ok {
		return "", false
	}
	return t.TimeBlock, true
}

// CreateTask validates the input, writes the new task through the store,
// and splices it into the confirmed base.
func (s *Session) CreateTask(ctx context.Context, in task.Input) (task.Task, error) {
	if err := in.Validate(); err != nil {
		return task.Task{}, err
	}
	t, err := s.store.CreateTask(ctx, s.date, in)
	if err != nil {
		return task.Task{}, err
	}
	s.mu.Lock()
	s.confirmed = append(s.confirmed, t.Clone())
	s.mu.Unlock()
	s.notify()
	return t, nil
}

// UpdateTask validates the partial update and submits it optimistically.
// The returned task is the optimistic result, visible in EffectiveView
// before the store write resolves. Unknown IDs fail synchronously.
func (s *Session) UpdateTask(taskID string, u task.PartialUpdate) (task.Task, error) {
	if err := u.Validate(); err != nil {
		return task.Task{}, err
	}
	t, ok := s.find(taskID)
	if !ok {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, s.date, store.ErrNotFound)
	}
	s.trk.Submit(taskID, u)
	u.Apply(&t, time.Now())
	return t, nil
}

// DeleteTask removes the task synchronously; deletions are not tracked
// optimistically.
func (s *Session) DeleteTask(ctx context.Context, taskID string) error {
	if _, ok := s.find(taskID); !ok {
		return fmt.Errorf("task %s on %s: %w", taskID, s.date, store.ErrNotFound)
	}
	if err := s.store.DeleteTask(ctx, s.date, taskID); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.confirmed {
		if s.confirmed[i].ID == taskID {
			s.confirmed = append(s.confirmed[:i], s.confirmed[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// ToggleSubtask flips a subtask's completed flag through the store and
// confirms the result.
func (s *Session) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (task.Task, error) {
	t, err := s.store.ToggleSubtask(ctx, s.date, taskID, subtaskID)
	if err != nil {
		return task.Task{}, err
	}
	s.confirmTask(t)
	return t, nil
}

// AddSubtask appends a subtask through the store and confirms the result.
func (s *Session) AddSubtask(ctx context.Context, taskID, title string) (task.Task, error) {
	if title == "" {
		return task.Task{}, &task.ValidationError{Field: "title", Message: "must not be empty"}
	}
	t, err := s.store.AddSubtask(ctx, s.date, taskID, title)
	if err != nil {
		return task.Task{}, err
	}
	s.confirmTask(t)
	return t, nil
}

// BulkUpdateTasks applies one partial update to several tasks in a single
// document write.
func (s *Session) BulkUpdateTasks(ctx context.Context, taskIDs []string, u task.PartialUpdate) ([]task.Task, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.store.BulkUpdateTasks(ctx, s.date, taskIDs, u)
	if err != nil {
		return nil, err
	}
	for _, t := range updated {
		s.confirmTask(t)
	}
	return updated, nil
}

// IsPending reports whether an optimistic mutation is awaiting
// confirmation for the task.
func (s *Session) IsPending(taskID string) bool {
	return s.trk.IsPending(taskID)
}

// HasFailedUpdates reports whether any mutation is parked in the failed
// set; the UI's "update failed" affordance keys off this.
func (s *Session) HasFailedUpdates() bool {
	return s.trk.HasFailed()
}

// RetryFailedUpdates force-retries every parked mutation immediately.
func (s *Session) RetryFailedUpdates() {
	s.trk.RetryFailed()
}

// ClearFailedUpdates dismisses every parked mutation. The optimistic
// values stay on screen but are no longer retried; the stored document
// keeps the old values until a later write or push changes them.
func (s *Session) ClearFailedUpdates() {
	s.trk.ClearFailed()
}
