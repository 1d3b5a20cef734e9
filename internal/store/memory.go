package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mvreilly/daydeck/internal/task"
)

// Memory is an in-memory Store used by tests and offline mode. It keeps
// the same whole-document read-modify-write shape as the remote client so
// the lost-update race is reproducible deterministically: BeforeWrite runs
// between the read and the write of every mutating operation, outside the
// store lock.
type Memory struct {
	mu   sync.Mutex
	docs map[string]task.DayDocument

	// failErr, when non-nil, is returned by the next failCount mutating
	// calls (or all calls if failCount < 0).
	failErr   error
	failCount int

	// BeforeWrite, when set, is invoked after a mutating operation has read
	// the document and applied its change, immediately before the write
	// lands. Tests use it to interleave a competing writer.
	BeforeWrite func(date string)

	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]task.DayDocument),
		Now:  time.Now,
	}
}

// FailNext makes the next n mutating calls return err. Pass n < 0 to fail
// until ClearFailures is called.
func (m *Memory) FailNext(n int, err error) {
	m.mu.Lock()
	m.failErr = err
	m.failCount = n
	m.mu.Unlock()
}

// ClearFailures removes any injected failure.
func (m *Memory) ClearFailures() {
	m.mu.Lock()
	m.failErr = nil
	m.failCount = 0
	m.mu.Unlock()
}

// takeFailure consumes one injected failure, if armed.
func (m *Memory) takeFailure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr == nil || m.failCount == 0 {
		return nil
	}
	err := m.failErr
	if m.failCount > 0 {
		m.failCount--
		if m.failCount == 0 {
			m.failErr = nil
		}
	}
	return err
}

// Snapshot returns a deep copy of the stored document for a date. Intended
// for test assertions.
func (m *Memory) Snapshot(date string) task.DayDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[date]
	if !ok {
		return task.NewDayDocument(date)
	}
	return doc.Clone()
}

// Seed stores a document directly, bypassing the read-modify-write path.
func (m *Memory) Seed(doc task.DayDocument) {
	doc.Refresh()
	m.mu.Lock()
	m.docs[doc.Date] = doc.Clone()
	m.mu.Unlock()
}

func (m *Memory) read(date string) task.DayDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[date]
	if !ok {
		return task.NewDayDocument(date)
	}
	return doc.Clone()
}

// write replaces the stored document wholesale, exactly like the remote
// upsert: no merge, last writer wins.
func (m *Memory) write(date string, doc task.DayDocument) {
	if m.BeforeWrite != nil {
		m.BeforeWrite(date)
	}
	doc.Refresh()
	doc.UpdatedAt = m.Now()
	m.mu.Lock()
	m.docs[date] = doc.Clone()
	m.mu.Unlock()
}

// FetchDay implements Store.
func (m *Memory) FetchDay(ctx context.Context, date string) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	return m.read(date).Tasks, nil
}

// CreateTask implements Store.
func (m *Memory) CreateTask(ctx context.Context, date string, in task.Input) (task.Task, error) {
	if err := m.takeFailure(); err != nil {
		return task.Task{}, err
	}
	doc := m.read(date)
	t := in.Build(m.Now())
	doc.Tasks = append(doc.Tasks, t)
	m.write(date, doc)
	return t.Clone(), nil
}

// UpdateTask implements Store.
func (m *Memory) UpdateTask(ctx context.Context, date, taskID string, u task.PartialUpdate) (task.Task, error) {
	if err := m.takeFailure(); err != nil {
		return task.Task{}, err
	}
	doc := m.read(date)
	i := doc.Find(taskID)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	u.Apply(&doc.Tasks[i], m.Now())
	updated := doc.Tasks[i].Clone()
	m.write(date, doc)
	return updated, nil
}

// DeleteTask implements Store.
func (m *Memory) DeleteTask(ctx context.Context, date, taskID string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	doc := m.read(date)
	if !doc.Remove(taskID) {
		return fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	m.write(date, doc)
	return nil
}

// ToggleSubtask implements Store.
func (m *Memory) ToggleSubtask(ctx context.Context, date, taskID, subtaskID string) (task.Task, error) {
	if err := m.takeFailure(); err != nil {
		return task.Task{}, err
	}
	doc := m.read(date)
	i := doc.Find(taskID)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	if !doc.Tasks[i].ToggleSubtask(subtaskID, m.Now()) {
		return task.Task{}, fmt.Errorf("subtask %s of task %s: %w", subtaskID, taskID, ErrNotFound)
	}
	updated := doc.Tasks[i].Clone()
	m.write(date, doc)
	return updated, nil
}

// AddSubtask implements Store.
func (m *Memory) AddSubtask(ctx context.Context, date, taskID, title string) (task.Task, error) {
	if err := m.takeFailure(); err != nil {
		return task.Task{}, err
	}
	doc := m.read(date)
	i := doc.Find(taskID)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	doc.Tasks[i].AddSubtask(title, m.Now())
	updated := doc.Tasks[i].Clone()
	m.write(date, doc)
	return updated, nil
}

// ReplaceDay implements Store.
func (m *Memory) ReplaceDay(ctx context.Context, date string, tasks []task.Task) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	doc := m.read(date)
	doc.Tasks = task.CloneTasks(tasks)
	m.write(date, doc)
	return nil
}

// BulkUpdateTasks implements Store.
func (m *Memory) BulkUpdateTasks(ctx context.Context, date string, taskIDs []string, u task.PartialUpdate) ([]task.Task, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	doc := m.read(date)
	now := m.Now()
	updated := make([]task.Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		if i := doc.Find(id); i >= 0 {
			u.Apply(&doc.Tasks[i], now)
			updated = append(updated, doc.Tasks[i].Clone())
		}
	}
	m.write(date, doc)
	return updated, nil
}
