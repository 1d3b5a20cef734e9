package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvreilly/daydeck/internal/store"
	"github.com/mvreilly/daydeck/internal/task"
)

const pollDate = "2026-03-02"

func seedPollDay(m *store.Memory, titles ...string) {
	doc := task.NewDayDocument(pollDate)
	for _, title := range titles {
		doc.Tasks = append(doc.Tasks, task.New(title, time.Now().UTC()))
	}
	m.Seed(doc)
}

func collectSnapshots(t *testing.T) (Handler, <-chan Snapshot) {
	t.Helper()
	ch := make(chan Snapshot, 16)
	return func(s Snapshot) { ch <- s }, ch
}

func waitSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestPoller_DeliversInitialSnapshot(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	seedPollDay(m, "first")

	h, ch := collectSnapshots(t)
	p := NewPoller(m, 5*time.Millisecond)
	stop, err := p.Subscribe(context.Background(), pollDate, h)
	require.NoError(t, err)
	defer stop()

	s := waitSnapshot(t, ch)
	assert.Equal(t, pollDate, s.Date)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, "first", s.Tasks[0].Title)
}

func TestPoller_SuppressesUnchangedPolls(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	seedPollDay(m, "static")

	h, ch := collectSnapshots(t)
	p := NewPoller(m, 5*time.Millisecond)
	stop, err := p.Subscribe(context.Background(), pollDate, h)
	require.NoError(t, err)
	defer stop()

	waitSnapshot(t, ch)

	// Many poll cycles with unchanged content deliver nothing further.
	select {
	case s := <-ch:
		t.Fatalf("unexpected duplicate snapshot: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPoller_DeliversOnChange(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	seedPollDay(m, "v1")

	h, ch := collectSnapshots(t)
	p := NewPoller(m, 5*time.Millisecond)
	stop, err := p.Subscribe(context.Background(), pollDate, h)
	require.NoError(t, err)
	defer stop()

	waitSnapshot(t, ch)

	seedPollDay(m, "v1", "v2")

	s := waitSnapshot(t, ch)
	assert.Len(t, s.Tasks, 2)
}

func TestPoller_SkipsFailedPolls(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	seedPollDay(m, "eventually visible")
	m.FailNext(3, store.ErrStoreUnavailable)

	h, ch := collectSnapshots(t)
	p := NewPoller(m, 5*time.Millisecond)
	stop, err := p.Subscribe(context.Background(), pollDate, h)
	require.NoError(t, err)
	defer stop()

	// Failed polls are skipped silently; the first successful poll delivers.
	s := waitSnapshot(t, ch)
	assert.Equal(t, "eventually visible", s.Tasks[0].Title)
}

func TestPoller_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	m := store.NewMemory()
	seedPollDay(m, "v1")

	h, ch := collectSnapshots(t)
	p := NewPoller(m, 5*time.Millisecond)
	stop, err := p.Subscribe(context.Background(), pollDate, h)
	require.NoError(t, err)

	waitSnapshot(t, ch)
	stop()
	stop() // idempotent

	seedPollDay(m, "v1", "v2")
	select {
	case s := <-ch:
		t.Fatalf("snapshot delivered after unsubscribe: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewPoller_DefaultsInterval(t *testing.T) {
	t.Parallel()

	p := NewPoller(store.NewMemory(), 0)
	assert.Equal(t, 10*time.Second, p.interval)
}
