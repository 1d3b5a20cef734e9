package store

import (
	"context"

	"github.com/mvreilly/daydeck/internal/task"
)

// Store is the document store contract consumed by the session layer.
// Implementations must treat a missing day document as an empty task list,
// not an error.
type Store interface {
	// FetchDay returns the ordered task list for a date. A date with no
	// stored document yields an empty slice and no error.
	FetchDay(ctx context.Context, date string) ([]task.Task, error)

	// CreateTask synthesizes a new task (fresh ID, timestamps set to now),
	// appends it to the fetched day document, and writes the document back.
	CreateTask(ctx context.Context, date string, in task.Input) (task.Task, error)

	// UpdateTask applies a partial update to the identified task and
	// rewrites the day document. Returns ErrNotFound if the ID is absent.
	UpdateTask(ctx context.Context, date, taskID string, u task.PartialUpdate) (task.Task, error)

	// DeleteTask removes the identified task and rewrites the document.
	DeleteTask(ctx context.Context, date, taskID string) error

	// ToggleSubtask flips a subtask's completed flag, re-derives progress,
	// and auto-promotes the task to completed at 100%.
	ToggleSubtask(ctx context.Context, date, taskID, subtaskID string) (task.Task, error)

	// AddSubtask appends a subtask to the identified task and re-derives
	// progress.
	AddSubtask(ctx context.Context, date, taskID, title string) (task.Task, error)

	// BulkUpdateTasks applies the same partial update to every listed ID in
	// one document write. IDs absent from the document are skipped.
	BulkUpdateTasks(ctx context.Context, date string, taskIDs []string, u task.PartialUpdate) ([]task.Task, error)

	// ReplaceDay overwrites the date's entire task list in one document
	// write. This is the ingress for externally generated day plans.
	ReplaceDay(ctx context.Context, date string, tasks []task.Task) error
}
