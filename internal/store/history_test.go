package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvreilly/daydeck/internal/task"
)

func seedDay(m *Memory, date string, titles ...string) {
	doc := task.NewDayDocument(date)
	for _, title := range titles {
		doc.Tasks = append(doc.Tasks, task.New(title, time.Now().UTC()))
	}
	m.Seed(doc)
}

func TestHistory_NewestFirstSkippingEmptyDays(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	seedDay(m, "2026-03-02", "monday task")
	seedDay(m, "2026-03-04", "wednesday task")

	end := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	docs, err := History(context.Background(), m, end, 5)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "2026-03-04", docs[0].Date)
	assert.Equal(t, "2026-03-02", docs[1].Date)
	assert.Equal(t, 1, docs[0].Summary.TotalTasks)
}

func TestHistory_ExcludesDatesBeforeWindow(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	seedDay(m, "2026-03-01", "too old")
	seedDay(m, "2026-03-04", "in range")

	end := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	docs, err := History(context.Background(), m, end, 3)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "2026-03-04", docs[0].Date)
}

func TestHistory_Empty(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	docs, err := History(context.Background(), m, time.Now(), 7)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestHistory_PropagatesFetchFailure(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	seedDay(m, "2026-03-02", "ok day")
	m.FailNext(-1, ErrStoreUnavailable)

	end := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	_, err := History(context.Background(), m, end, 5)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
