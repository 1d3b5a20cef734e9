package e2e_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow_InvalidDate(t *testing.T) {
	fs := newFakeStore(t)
	dir := newProject(t, fs.URL())

	out, err := runDaydeck(t, dir, "show", "--date", "03/02/2026")
	require.Error(t, err)
	assert.Contains(t, out, "invalid date")
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	fs := newFakeStore(t)
	dir := newProject(t, fs.URL())

	out, err := runDaydeck(t, dir, "add", "Sleep", "--date", testDate, "-e", "2")
	require.Error(t, err)
	assert.Contains(t, out, "estimated_minutes")

	out, err = runDaydeck(t, dir, "add", "Task", "--date", testDate, "-p", "P9")
	require.Error(t, err)
	assert.Contains(t, out, "priority")
}

func TestStore_UnreachableFailsColdCache(t *testing.T) {
	fs := newFakeStore(t)
	dir := newProject(t, fs.URL())
	fs.Close()

	_, err := runDaydeck(t, dir, "show", "--date", testDate)
	require.Error(t, err)
}

func TestStore_CacheServesReadsWhenUnreachable(t *testing.T) {
	fs := newFakeStore(t)
	dir := newProject(t, fs.URL())

	// Warm the cache with a successful write and read.
	mustRun(t, dir, "add", "Survives outages", "--date", testDate)
	mustRun(t, dir, "show", "--date", testDate)

	fs.Close()

	out := mustRun(t, dir, "show", "--date", testDate)
	assert.Contains(t, out, "Survives outages")
}
