package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDate(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidDate("2026-03-02"))
	assert.False(t, ValidDate("03/02/2026"))
	assert.False(t, ValidDate("2026-13-40"))
	assert.False(t, ValidDate(""))
}

func TestDayDocument_FindAndRemove(t *testing.T) {
	t.Parallel()

	doc := NewDayDocument("2026-03-02")
	a := New("a", clock)
	b := New("b", clock)
	doc.Tasks = append(doc.Tasks, a, b)

	assert.Equal(t, 0, doc.Find(a.ID))
	assert.Equal(t, 1, doc.Find(b.ID))
	assert.Equal(t, -1, doc.Find("missing"))

	require.True(t, doc.Remove(a.ID))
	assert.False(t, doc.Remove(a.ID))
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, b.ID, doc.Tasks[0].ID)
}

func TestSummaryOf_CountsAndPercentage(t *testing.T) {
	t.Parallel()

	done := New("done", clock)
	PartialUpdate{Status: statusp(StatusCompleted)}.Apply(&done, clock)
	done.ActualMinutes = 50

	active := New("active", clock)
	active.Status = StatusInProgress
	active.Priority = PriorityP1
	active.Category = CategoryDevelopment
	active.EstimatedMinutes = 60

	blocked := New("blocked", clock)
	blocked.Status = StatusBlocked

	s := SummaryOf([]Task{done, active, blocked})

	assert.Equal(t, 3, s.TotalTasks)
	assert.Equal(t, 1, s.CompletedTasks)
	assert.Equal(t, 1, s.InProgressTasks)
	assert.Equal(t, 1, s.BlockedTasks)
	assert.Equal(t, 120, s.TotalEstimatedMinutes)
	assert.Equal(t, 50, s.TotalActualMinutes)
	assert.Equal(t, 33.3, s.CompletionPercentage)
	assert.Equal(t, 2, s.Categories["admin"])
	assert.Equal(t, 1, s.Categories["development"])
	assert.Equal(t, 2, s.Priorities["P2"])
	assert.Equal(t, 1, s.Priorities["P1"])

	assert.Equal(t, "1/3 done (33.3%)", s.String())
}

func TestSummaryOf_Empty(t *testing.T) {
	t.Parallel()

	s := SummaryOf(nil)
	assert.Zero(t, s.TotalTasks)
	assert.Zero(t, s.CompletionPercentage)
	assert.Equal(t, "0/0 done (0.0%)", s.String())
}

func TestDayDocument_CloneIsDeep(t *testing.T) {
	t.Parallel()

	doc := NewDayDocument("2026-03-02")
	doc.Tasks = append(doc.Tasks, New("a", clock))
	doc.Refresh()

	c := doc.Clone()
	c.Tasks[0].Title = "changed"
	c.Summary.Categories["admin"] = 99

	assert.Equal(t, "a", doc.Tasks[0].Title)
	assert.Equal(t, 1, doc.Summary.Categories["admin"])
}
