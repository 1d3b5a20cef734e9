package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvreilly/daydeck/internal/store"
	"github.com/mvreilly/daydeck/internal/task"
)

// --- test helpers ---

// fakeTimers records scheduled retries so tests can fire them manually
// and assert on the backoff sequence.
type fakeTimers struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (f *fakeTimers) after(d time.Duration, fn func()) *time.Timer {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.fns = append(f.fns, fn)
	f.mu.Unlock()
	// The returned timer never fires on its own; tests drive fns directly.
	return time.NewTimer(time.Hour)
}

func (f *fakeTimers) fire(i int) {
	f.mu.Lock()
	fn := f.fns[i]
	f.mu.Unlock()
	fn()
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fns)
}

func (f *fakeTimers) delaysCopy() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

// failNTimes returns an UpdateFunc that fails with err for the first n
// calls and succeeds afterwards, counting every call.
func failNTimes(n int, err error, calls *int) UpdateFunc {
	var mu sync.Mutex
	return func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		mu.Lock()
		defer mu.Unlock()
		*calls++
		if *calls <= n {
			return task.Task{}, err
		}
		return task.Task{ID: taskID}, nil
	}
}

func titleUpdate(s string) task.PartialUpdate {
	return task.PartialUpdate{Title: &s}
}

// --- submission and overlay ---

func TestSubmit_OverlayVisibleBeforeResolve(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		<-release
		return task.Task{ID: taskID}, nil
	}, Config{})
	defer tr.Close()

	base := task.New("original", time.Now())
	tr.Submit(base.ID, titleUpdate("optimistic"))

	view := tr.EffectiveView([]task.Task{base})
	require.Len(t, view, 1)
	assert.Equal(t, "optimistic", view[0].Title, "overlay must be visible while the write is in flight")
	assert.True(t, tr.IsPending(base.ID))

	close(release)
	tr.Flush()

	view = tr.EffectiveView([]task.Task{base})
	assert.Equal(t, "original", view[0].Title, "a confirmed write clears the overlay")
	assert.False(t, tr.IsPending(base.ID))
	assert.False(t, tr.HasFailed())
}

func TestSubmit_LastSubmitWinsLocally(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		<-block
		return task.Task{ID: taskID}, nil
	}, Config{})
	defer tr.Close()

	base := task.New("original", time.Now())
	tr.Submit(base.ID, titleUpdate("first"))
	tr.Submit(base.ID, titleUpdate("second"))

	view := tr.EffectiveView([]task.Task{base})
	assert.Equal(t, "second", view[0].Title, "the newest submit owns the overlay")

	close(block)
	tr.Flush()
}

func TestSubmit_NonRetryableErrorDropsOverlay(t *testing.T) {
	t.Parallel()

	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		return task.Task{}, fmt.Errorf("task gone: %w", store.ErrNotFound)
	}, Config{})
	defer tr.Close()

	base := task.New("original", time.Now())
	tr.Submit(base.ID, titleUpdate("doomed"))
	tr.Flush()

	assert.False(t, tr.HasFailed(), "non-retryable failures are not parked")
	view := tr.EffectiveView([]task.Task{base})
	assert.Equal(t, "original", view[0].Title)
}

func TestEffectiveView_BumpsUpdatedAt(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		<-block
		return task.Task{ID: taskID}, nil
	}, Config{})
	defer tr.Close()
	defer close(block)

	frozen := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return frozen }

	base := task.New("t", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	tr.Submit(base.ID, titleUpdate("new"))

	view := tr.EffectiveView([]task.Task{base})
	assert.Equal(t, frozen, view[0].UpdatedAt)
	// The confirmed input must not be mutated by the overlay.
	assert.Equal(t, "t", base.Title)
}

// --- retry scheduling ---

func TestRetry_ExponentialBackoffUntilExhausted(t *testing.T) {
	t.Parallel()

	timers := &fakeTimers{}
	calls := 0
	tr := New(failNTimes(100, store.ErrStoreUnavailable, &calls),
		Config{BaseDelay: 10 * time.Millisecond, MaxRetries: 3})
	defer tr.Close()
	tr.after = timers.after

	base := task.New("t", time.Now())
	tr.Submit(base.ID, titleUpdate("keeps failing"))
	tr.Flush()

	require.Equal(t, 1, tr.FailedCount(), "first failure parks the mutation")
	require.Equal(t, 1, timers.count(), "first retry scheduled")

	timers.fire(0)
	timers.fire(1)
	timers.fire(2)

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
	}, timers.delaysCopy(), "delays double per attempt")

	failed := tr.Failed()
	require.Len(t, failed, 1)
	assert.True(t, failed[0].Exhausted, "mutation parks for good after max retries")
	assert.Equal(t, 3, failed[0].RetryCount)
	assert.Equal(t, 4, calls, "initial attempt plus three retries")

	// The optimistic value stays on screen even when exhausted.
	view := tr.EffectiveView([]task.Task{base})
	assert.Equal(t, "keeps failing", view[0].Title)
}

func TestRetry_SuccessClearsFailureAndOverlay(t *testing.T) {
	t.Parallel()

	timers := &fakeTimers{}
	calls := 0
	tr := New(failNTimes(1, store.ErrStoreUnavailable, &calls), Config{BaseDelay: time.Millisecond})
	defer tr.Close()
	tr.after = timers.after

	base := task.New("t", time.Now())
	tr.Submit(base.ID, titleUpdate("eventually lands"))
	tr.Flush()
	require.Equal(t, 1, tr.FailedCount())

	timers.fire(0)

	assert.Zero(t, tr.FailedCount())
	view := tr.EffectiveView([]task.Task{base})
	assert.Equal(t, "t", view[0].Title, "confirmed retry clears the overlay")
}

func TestRetryFailed_ResetsCountsAndRetriesNow(t *testing.T) {
	t.Parallel()

	timers := &fakeTimers{}
	calls := 0
	tr := New(failNTimes(4, store.ErrStoreUnavailable, &calls),
		Config{BaseDelay: 10 * time.Millisecond, MaxRetries: 3})
	defer tr.Close()
	tr.after = timers.after

	base := task.New("t", time.Now())
	tr.Submit(base.ID, titleUpdate("force me"))
	tr.Flush()
	timers.fire(0)
	timers.fire(1)
	timers.fire(2)

	failed := tr.Failed()
	require.Len(t, failed, 1)
	require.True(t, failed[0].Exhausted)

	// Force retry: count resets, retry runs with zero delay, fn now succeeds.
	tr.RetryFailed()
	require.Equal(t, 4, timers.count())
	assert.Equal(t, time.Duration(0), timers.delaysCopy()[3])
	timers.fire(3)

	assert.Zero(t, tr.FailedCount())
	assert.False(t, tr.HasFailed())
}

func TestClearFailed_DismissesButKeepsOverlay(t *testing.T) {
	t.Parallel()

	timers := &fakeTimers{}
	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		return task.Task{}, store.ErrStoreUnavailable
	}, Config{BaseDelay: time.Millisecond})
	defer tr.Close()
	tr.after = timers.after

	base := task.New("original", time.Now())
	tr.Submit(base.ID, titleUpdate("dismissed but visible"))
	tr.Flush()
	require.True(t, tr.HasFailed())

	tr.ClearFailed()

	assert.False(t, tr.HasFailed())
	assert.Zero(t, tr.FailedCount())

	// The stored document was never updated, but the local value stays on
	// screen until some later write or snapshot replaces the base.
	view := tr.EffectiveView([]task.Task{base})
	assert.Equal(t, "dismissed but visible", view[0].Title)

	// A cancelled timer firing late must not resurrect the retry.
	timers.fire(0)
	assert.False(t, tr.HasFailed())
}

func TestSuccessfulWrite_DropsParkedFailuresForTask(t *testing.T) {
	t.Parallel()

	timers := &fakeTimers{}
	var failFirst sync.Once
	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		var err error
		failFirst.Do(func() { err = store.ErrStoreUnavailable })
		if err != nil {
			return task.Task{}, err
		}
		return task.Task{ID: taskID}, nil
	}, Config{BaseDelay: time.Millisecond})
	defer tr.Close()
	tr.after = timers.after

	base := task.New("t", time.Now())
	tr.Submit(base.ID, titleUpdate("first, fails"))
	tr.Flush()
	require.True(t, tr.HasFailed())

	// A newer submit for the same task succeeds and supersedes the parked
	// failure.
	tr.Submit(base.ID, titleUpdate("second, lands"))
	tr.Flush()

	assert.False(t, tr.HasFailed())
	assert.False(t, tr.IsPending(base.ID))
}

func TestClose_WaitsForInflightWrites(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	done := false
	tr := New(func(ctx context.Context, taskID string, u task.PartialUpdate) (task.Task, error) {
		close(started)
		<-release
		done = true
		return task.Task{ID: taskID}, nil
	}, Config{})

	tr.Submit("x", titleUpdate("slow"))
	<-started

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	tr.Close()

	assert.True(t, done, "Close must wait for the in-flight store call")
}

func TestRetryable_Classification(t *testing.T) {
	t.Parallel()

	assert.False(t, store.Retryable(nil))
	assert.False(t, store.Retryable(store.ErrNotFound))
	assert.False(t, store.Retryable(&task.ValidationError{Field: "title", Message: "empty"}))
	assert.False(t, store.Retryable(store.ErrRejected))
	assert.True(t, store.Retryable(store.ErrStoreUnavailable))
	assert.True(t, store.Retryable(errors.New("connection reset")))
	assert.True(t, store.Retryable(store.ErrConflict))
}
