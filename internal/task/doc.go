// Package task defines the daydeck data model: tasks, subtasks, day
// documents, and the partial-update semantics shared by the store client
// and the optimistic mutation tracker.
package task
