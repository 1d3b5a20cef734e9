package task

import (
	"fmt"
	"time"
)

// DateFormat is the calendar-date key format for day documents.
const DateFormat = "2006-01-02"

// ValidDate reports whether s is a well-formed YYYY-MM-DD date key.
func ValidDate(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}

// DayDocument is the single stored collection of all tasks for one
// calendar date. The date is the only key; there is no per-document or
// per-task version token, so every write replaces the full task array.
type DayDocument struct {
	Date      string     `json:"date"`
	Tasks     []Task     `json:"tasks"`
	Summary   DaySummary `json:"summary"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// NewDayDocument returns an empty document for the given date.
func NewDayDocument(date string) DayDocument {
	return DayDocument{Date: date, Tasks: []Task{}}
}

// Find returns the index of the task with the given ID, or -1.
func (d *DayDocument) Find(taskID string) int {
	for i := range d.Tasks {
		if d.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// Remove deletes the task with the given ID. Returns false if absent.
func (d *DayDocument) Remove(taskID string) bool {
	i := d.Find(taskID)
	if i < 0 {
		return false
	}
	d.Tasks = append(d.Tasks[:i], d.Tasks[i+1:]...)
	return true
}

// Refresh recomputes the derived summary from the current tasks. The
// stored summary is never authoritative; every reader recomputes it.
func (d *DayDocument) Refresh() {
	d.Summary = SummaryOf(d.Tasks)
}

// Clone deep-copies the document.
func (d DayDocument) Clone() DayDocument {
	c := d
	c.Tasks = CloneTasks(d.Tasks)
	c.Summary = d.Summary.clone()
	return c
}

// DaySummary holds derived counts and totals for one day's tasks.
type DaySummary struct {
	TotalTasks            int            `json:"total_tasks"`
	CompletedTasks        int            `json:"completed_tasks"`
	InProgressTasks       int            `json:"in_progress_tasks"`
	BlockedTasks          int            `json:"blocked_tasks"`
	TotalEstimatedMinutes int            `json:"total_estimated_minutes"`
	TotalActualMinutes    int            `json:"total_actual_minutes"`
	CompletionPercentage  float64        `json:"completion_percentage"`
	Categories            map[string]int `json:"categories"`
	Priorities            map[string]int `json:"priorities"`
}

func (s DaySummary) clone() DaySummary {
	c := s
	c.Categories = make(map[string]int, len(s.Categories))
	for k, v := range s.Categories {
		c.Categories[k] = v
	}
	c.Priorities = make(map[string]int, len(s.Priorities))
	for k, v := range s.Priorities {
		c.Priorities[k] = v
	}
	return c
}

// SummaryOf computes the derived summary for a task list. The completion
// percentage is rounded to one decimal place.
func SummaryOf(tasks []Task) DaySummary {
	s := DaySummary{
		Categories: map[string]int{},
		Priorities: map[string]int{},
	}
	if len(tasks) == 0 {
		return s
	}

	s.TotalTasks = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case StatusCompleted:
			s.CompletedTasks++
		case StatusInProgress:
			s.InProgressTasks++
		case StatusBlocked:
			s.BlockedTasks++
		}
		s.TotalEstimatedMinutes += t.EstimatedMinutes
		s.TotalActualMinutes += t.ActualMinutes
		s.Categories[string(t.Category)]++
		s.Priorities[string(t.Priority)]++
	}

	pct := float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	s.CompletionPercentage = float64(int(pct*10+0.5)) / 10
	return s
}

// String renders a one-line digest, e.g. "2025-03-14: 3/7 done (42.9%)".
func (s DaySummary) String() string {
	return fmt.Sprintf("%d/%d done (%.1f%%)", s.CompletedTasks, s.TotalTasks, s.CompletionPercentage)
}
