package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mvreilly/daydeck/internal/task"
)

func TestDeduper_FirstSnapshotAlwaysChanged(t *testing.T) {
	t.Parallel()

	var d deduper
	assert.True(t, d.changed([]task.Task{}))
}

func TestDeduper_DropsConsecutiveIdentical(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tk := task.New("same", now)

	var d deduper
	assert.True(t, d.changed([]task.Task{tk}))
	assert.False(t, d.changed([]task.Task{tk.Clone()}))

	tk.Title = "different"
	assert.True(t, d.changed([]task.Task{tk}))

	// Reverting to earlier content counts as a change again; only the
	// immediately preceding delivery is remembered.
	tk.Title = "same"
	assert.True(t, d.changed([]task.Task{tk}))
}

func TestDeduper_EmptyVersusNil(t *testing.T) {
	t.Parallel()

	var d deduper
	assert.True(t, d.changed(nil))
	// nil and [] marshal differently (null vs []); they are distinct.
	assert.True(t, d.changed([]task.Task{}))
	assert.False(t, d.changed([]task.Task{}))
}
