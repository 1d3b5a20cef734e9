package task

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents a task's urgency level.
type Priority string

const (
	// PriorityP1 is critical work that must be done today.
	PriorityP1 Priority = "P1"

	// PriorityP2 is important work that should be done this week.
	PriorityP2 Priority = "P2"

	// PriorityP3 is nice-to-have work that can be deferred.
	PriorityP3 Priority = "P3"
)

// validPriorities is the set of all known Priority values.
var validPriorities = map[Priority]bool{
	PriorityP1: true,
	PriorityP2: true,
	PriorityP3: true,
}

// IsValid returns true if the priority is a recognized value.
func (p Priority) IsValid() bool {
	return validPriorities[p]
}

// Status represents the completion state of a task.
type Status string

const (
	// StatusNotStarted indicates the task has not begun.
	StatusNotStarted Status = "not_started"

	// StatusInProgress indicates the task is actively being worked.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates the task is done.
	StatusCompleted Status = "completed"

	// StatusBlocked indicates the task cannot proceed.
	StatusBlocked Status = "blocked"

	// StatusCancelled indicates the task was abandoned.
	StatusCancelled Status = "cancelled"
)

// validStatuses is the set of all known Status values.
var validStatuses = map[Status]bool{
	StatusNotStarted: true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusBlocked:    true,
	StatusCancelled:  true,
}

// IsValid returns true if the status is a recognized value.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// ValidStatuses returns all valid status values in display order.
func ValidStatuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked, StatusCancelled}
}

// TimeBlock is the coarse daily period a task is scheduled into. The UI
// calls these buckets; the stored field name is time_block.
type TimeBlock string

const (
	// BlockMorning covers roughly 8-12, deep work.
	BlockMorning TimeBlock = "morning"

	// BlockAfternoon covers roughly 13-17, meetings and collaboration.
	BlockAfternoon TimeBlock = "afternoon"

	// BlockEvening covers roughly 18-21, admin and light tasks.
	BlockEvening TimeBlock = "evening"
)

var validTimeBlocks = map[TimeBlock]bool{
	BlockMorning:   true,
	BlockAfternoon: true,
	BlockEvening:   true,
}

// IsValid returns true if the time block is a recognized value.
func (b TimeBlock) IsValid() bool {
	return validTimeBlocks[b]
}

// TimeBlocks returns all time blocks in chronological order.
func TimeBlocks() []TimeBlock {
	return []TimeBlock{BlockMorning, BlockAfternoon, BlockEvening}
}

// Category groups tasks for reporting.
type Category string

const (
	CategoryDevelopment Category = "development"
	CategoryDesign      Category = "design"
	CategoryAdmin       Category = "admin"
	CategoryLearning    Category = "learning"
	CategoryPersonal    Category = "personal"
	CategoryMeeting     Category = "meeting"
	CategoryPlanning    Category = "planning"
)

var validCategories = map[Category]bool{
	CategoryDevelopment: true,
	CategoryDesign:      true,
	CategoryAdmin:       true,
	CategoryLearning:    true,
	CategoryPersonal:    true,
	CategoryMeeting:     true,
	CategoryPlanning:    true,
}

// IsValid returns true if the category is a recognized value.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// Subtask is a single checklist item within a task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// Task is a single tracked item within a day document. IDs are unique
// within their day document only; the document itself carries no version
// token, so concurrent whole-document writes can silently overwrite each
// other (see store package).
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Progress    int      `json:"progress"`
	Category    Category `json:"category"`

	EstimatedMinutes int       `json:"estimated_minutes"`
	ActualMinutes    int       `json:"actual_minutes"`
	TimeBlock        TimeBlock `json:"time_block,omitempty"`

	Subtasks []Subtask `json:"subtasks"`
	Notes    []string  `json:"notes"`

	SuccessCriteria string   `json:"success_criteria,omitempty"`
	Dependencies    []string `json:"dependencies"`
	Tags            []string `json:"tags"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewID returns a fresh opaque task/subtask identifier.
func NewID() string {
	return uuid.NewString()
}

// New constructs a task with defaults matching a freshly created record:
// status not_started, progress 0, priority P2, category admin, and empty
// (non-nil) collections so JSON output is [] rather than null.
func New(title string, now time.Time) Task {
	return Task{
		ID:               NewID(),
		Title:            title,
		Priority:         PriorityP2,
		Status:           StatusNotStarted,
		Category:         CategoryAdmin,
		EstimatedMinutes: 30,
		Subtasks:         []Subtask{},
		Notes:            []string{},
		Dependencies:     []string{},
		Tags:             []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Clone returns a deep copy of the task. The tracker and the in-memory
// store rely on clones so optimistic overlays never alias confirmed state.
func (t Task) Clone() Task {
	c := t
	c.Subtasks = append([]Subtask(nil), t.Subtasks...)
	c.Notes = append([]string(nil), t.Notes...)
	c.Dependencies = append([]string(nil), t.Dependencies...)
	c.Tags = append([]string(nil), t.Tags...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// AddNote appends a timestamped free-text note.
func (t *Task) AddNote(note string, now time.Time) {
	t.Notes = append(t.Notes, "["+now.Format("15:04")+"] "+note)
	t.UpdatedAt = now
}

// FindSubtask returns a pointer to the subtask with the given ID, or nil.
func (t *Task) FindSubtask(subtaskID string) *Subtask {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			return &t.Subtasks[i]
		}
	}
	return nil
}

// SubtaskProgress returns the derived progress for a task with subtasks:
// round(100 * completed / total). Returns -1 when the task has no subtasks
// and progress is therefore free-standing.
func (t *Task) SubtaskProgress() int {
	if len(t.Subtasks) == 0 {
		return -1
	}
	completed := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			completed++
		}
	}
	return int(float64(completed)/float64(len(t.Subtasks))*100 + 0.5)
}
