package task

import (
	"fmt"
	"strings"
	"time"
)

// Limits enforced before any store call is made.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
	MinEstimateMins   = 5
	MaxEstimateMins   = 480
)

// ValidationError describes an input rejected before reaching the store.
// Validation failures are never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Input is the caller-supplied shape for creating a task. Zero-valued
// optional fields fall back to the New defaults.
type Input struct {
	Title            string
	Description      string
	Priority         Priority
	Category         Category
	EstimatedMinutes int
	TimeBlock        TimeBlock
	Subtasks         []string
	Tags             []string
	SuccessCriteria  string
}

// Validate checks a create input against the model limits.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if len(in.Title) > MaxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("exceeds %d characters", MaxTitleLen)}
	}
	if len(in.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("exceeds %d characters", MaxDescriptionLen)}
	}
	if in.Priority != "" && !in.Priority.IsValid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown value %q", in.Priority)}
	}
	if in.Category != "" && !in.Category.IsValid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown value %q", in.Category)}
	}
	if in.TimeBlock != "" && !in.TimeBlock.IsValid() {
		return &ValidationError{Field: "time_block", Message: fmt.Sprintf("unknown value %q", in.TimeBlock)}
	}
	if in.EstimatedMinutes != 0 && (in.EstimatedMinutes < MinEstimateMins || in.EstimatedMinutes > MaxEstimateMins) {
		return &ValidationError{
			Field:   "estimated_minutes",
			Message: fmt.Sprintf("must be between %d and %d", MinEstimateMins, MaxEstimateMins),
		}
	}
	for _, st := range in.Subtasks {
		if strings.TrimSpace(st) == "" {
			return &ValidationError{Field: "subtasks", Message: "subtask title must not be empty"}
		}
	}
	return nil
}

// Validate checks a partial update against the model limits.
func (u PartialUpdate) Validate() error {
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return &ValidationError{Field: "title", Message: "must not be empty"}
		}
		if len(*u.Title) > MaxTitleLen {
			return &ValidationError{Field: "title", Message: fmt.Sprintf("exceeds %d characters", MaxTitleLen)}
		}
	}
	if u.Description != nil && len(*u.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("exceeds %d characters", MaxDescriptionLen)}
	}
	if u.Priority != nil && !u.Priority.IsValid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown value %q", *u.Priority)}
	}
	if u.Status != nil && !u.Status.IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown value %q", *u.Status)}
	}
	if u.Category != nil && !u.Category.IsValid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown value %q", *u.Category)}
	}
	// An empty time block unschedules the task.
	if u.TimeBlock != nil && *u.TimeBlock != "" && !u.TimeBlock.IsValid() {
		return &ValidationError{Field: "time_block", Message: fmt.Sprintf("unknown value %q", *u.TimeBlock)}
	}
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return &ValidationError{Field: "progress", Message: "must be between 0 and 100"}
	}
	if u.EstimatedMinutes != nil && (*u.EstimatedMinutes < MinEstimateMins || *u.EstimatedMinutes > MaxEstimateMins) {
		return &ValidationError{
			Field:   "estimated_minutes",
			Message: fmt.Sprintf("must be between %d and %d", MinEstimateMins, MaxEstimateMins),
		}
	}
	if u.ActualMinutes != nil && *u.ActualMinutes < 0 {
		return &ValidationError{Field: "actual_minutes", Message: "must not be negative"}
	}
	return nil
}

// PrepareImport validates and completes an externally produced task
// record in place: plan files often carry titles and subtasks only, so
// missing IDs, defaults, and timestamps are filled in and the coupled
// fields re-derived.
func PrepareImport(t *Task, now time.Time) error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if len(t.Title) > MaxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("exceeds %d characters", MaxTitleLen)}
	}
	if len(t.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("exceeds %d characters", MaxDescriptionLen)}
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown value %q", t.Priority)}
	}
	if t.Status != "" && !t.Status.IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown value %q", t.Status)}
	}
	if t.Category != "" && !t.Category.IsValid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown value %q", t.Category)}
	}
	if t.TimeBlock != "" && !t.TimeBlock.IsValid() {
		return &ValidationError{Field: "time_block", Message: fmt.Sprintf("unknown value %q", t.TimeBlock)}
	}
	if t.Progress < 0 || t.Progress > 100 {
		return &ValidationError{Field: "progress", Message: "must be between 0 and 100"}
	}
	if t.EstimatedMinutes != 0 && (t.EstimatedMinutes < MinEstimateMins || t.EstimatedMinutes > MaxEstimateMins) {
		return &ValidationError{
			Field:   "estimated_minutes",
			Message: fmt.Sprintf("must be between %d and %d", MinEstimateMins, MaxEstimateMins),
		}
	}

	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Priority == "" {
		t.Priority = PriorityP2
	}
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	if t.Category == "" {
		t.Category = CategoryAdmin
	}
	if t.EstimatedMinutes == 0 {
		t.EstimatedMinutes = 30
	}
	for i := range t.Subtasks {
		if strings.TrimSpace(t.Subtasks[i].Title) == "" {
			return &ValidationError{Field: "subtasks", Message: "subtask title must not be empty"}
		}
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = NewID()
		}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Notes == nil {
		t.Notes = []string{}
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	Normalize(t, now)
	t.UpdatedAt = now
	return nil
}

// Build constructs a Task from a validated input, with a fresh ID and
// timestamps set to now.
func (in Input) Build(now time.Time) Task {
	t := New(in.Title, now)
	t.Description = in.Description
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.Category != "" {
		t.Category = in.Category
	}
	if in.EstimatedMinutes != 0 {
		t.EstimatedMinutes = in.EstimatedMinutes
	}
	if in.TimeBlock != "" {
		t.TimeBlock = in.TimeBlock
	}
	if in.SuccessCriteria != "" {
		t.SuccessCriteria = in.SuccessCriteria
	}
	if len(in.Tags) > 0 {
		t.Tags = append([]string(nil), in.Tags...)
	}
	for _, title := range in.Subtasks {
		t.Subtasks = append(t.Subtasks, Subtask{ID: NewID(), Title: title})
	}
	return t
}
