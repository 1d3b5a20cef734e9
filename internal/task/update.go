package task

import "time"

// PartialUpdate is a sparse task mutation. Nil fields are left untouched.
// It is the unit tracked by the optimistic mutation tracker and applied by
// the store client during read-modify-write.
type PartialUpdate struct {
	Title            *string
	Description      *string
	Priority         *Priority
	Status           *Status
	Progress         *int
	Category         *Category
	EstimatedMinutes *int
	ActualMinutes    *int
	TimeBlock        *TimeBlock
	SuccessCriteria  *string
	Tags             *[]string
	Dependencies     *[]string
}

// IsZero reports whether the update touches no fields.
func (u PartialUpdate) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.Status == nil && u.Progress == nil && u.Category == nil &&
		u.EstimatedMinutes == nil && u.ActualMinutes == nil &&
		u.TimeBlock == nil && u.SuccessCriteria == nil && u.Tags == nil &&
		u.Dependencies == nil
}

// Fields returns the names of the touched fields, for logging.
func (u PartialUpdate) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(u.Title != nil, "title")
	add(u.Description != nil, "description")
	add(u.Priority != nil, "priority")
	add(u.Status != nil, "status")
	add(u.Progress != nil, "progress")
	add(u.Category != nil, "category")
	add(u.EstimatedMinutes != nil, "estimated_minutes")
	add(u.ActualMinutes != nil, "actual_minutes")
	add(u.TimeBlock != nil, "time_block")
	add(u.SuccessCriteria != nil, "success_criteria")
	add(u.Tags != nil, "tags")
	add(u.Dependencies != nil, "dependencies")
	return fields
}

// Apply overlays the update onto the task and re-derives the coupled
// fields. now is used for updated_at and, when the update completes the
// task, completed_at.
//
// Derivation rules:
//   - A task with subtasks has derived progress; an explicit Progress in
//     the update is ignored in that case.
//   - status == completed forces progress to 100 and sets completed_at.
//   - Moving status away from completed clears completed_at and, for a
//     task without subtasks, resets a progress pinned at 100 back to 0.
func (u PartialUpdate) Apply(t *Task, now time.Time) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Progress != nil && len(t.Subtasks) == 0 {
		t.Progress = *u.Progress
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.EstimatedMinutes != nil {
		t.EstimatedMinutes = *u.EstimatedMinutes
	}
	if u.ActualMinutes != nil {
		t.ActualMinutes = *u.ActualMinutes
	}
	if u.TimeBlock != nil {
		t.TimeBlock = *u.TimeBlock
	}
	if u.SuccessCriteria != nil {
		t.SuccessCriteria = *u.SuccessCriteria
	}
	if u.Tags != nil {
		t.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.Dependencies != nil {
		t.Dependencies = append([]string(nil), (*u.Dependencies)...)
	}
	if u.Status != nil {
		t.Status = *u.Status
	}

	// An explicit progress of 100 (with no status in the same update and no
	// subtasks deriving progress) promotes the task to completed, keeping
	// the progress/status coupling intact.
	if u.Progress != nil && *u.Progress == 100 && u.Status == nil && len(t.Subtasks) == 0 {
		t.Status = StatusCompleted
	}

	Normalize(t, now)
	t.UpdatedAt = now
}

// Normalize re-derives the coupled fields (progress, status, completed_at)
// so the task satisfies the model invariants. It is called after every
// mutation path: partial update, subtask toggle, and subtask add.
func Normalize(t *Task, now time.Time) {
	if derived := t.SubtaskProgress(); derived >= 0 {
		t.Progress = derived
		// All subtasks done promotes the task to completed.
		if derived == 100 && t.Status != StatusCompleted && t.Status != StatusCancelled {
			t.Status = StatusCompleted
		}
	}

	switch {
	case t.Status == StatusCompleted:
		t.Progress = 100
		if t.CompletedAt == nil {
			at := now
			t.CompletedAt = &at
		}
	default:
		t.CompletedAt = nil
		// Derived progress is owned by the subtasks; only free-standing
		// progress gets reset when the task leaves completed.
		if len(t.Subtasks) == 0 {
			if t.Progress == 100 {
				t.Progress = 0
			}
			if t.Status == StatusNotStarted {
				t.Progress = 0
			}
		}
	}
}

// ToggleSubtask flips the completed flag of the identified subtask and
// re-derives progress and status. Returns false if the subtask is absent.
func (t *Task) ToggleSubtask(subtaskID string, now time.Time) bool {
	st := t.FindSubtask(subtaskID)
	if st == nil {
		return false
	}
	st.Completed = !st.Completed

	// A reopened subtask demotes a completed task back to in_progress so
	// Normalize does not immediately re-pin progress at 100.
	if !st.Completed && t.Status == StatusCompleted {
		t.Status = StatusInProgress
	}

	Normalize(t, now)
	t.UpdatedAt = now
	return true
}

// AddSubtask appends a new subtask and re-derives progress. Returns the
// new subtask's ID.
func (t *Task) AddSubtask(title string, now time.Time) string {
	st := Subtask{ID: NewID(), Title: title}
	t.Subtasks = append(t.Subtasks, st)

	// A fresh incomplete subtask can lower derived progress below 100.
	if t.Status == StatusCompleted {
		t.Status = StatusInProgress
	}

	Normalize(t, now)
	t.UpdatedAt = now
	return st.ID
}
