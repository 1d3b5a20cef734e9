package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/mvreilly/daydeck/internal/store"
)

// Poller is the degraded-mode channel for stores without a realtime feed:
// it refetches the day document on an interval and delivers a snapshot
// only when the content actually changed.
type Poller struct {
	store    store.Store
	interval time.Duration
}

// NewPoller creates a polling channel. A non-positive interval defaults
// to 10 seconds.
func NewPoller(s store.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{store: s, interval: interval}
}

// Subscribe implements Channel.
func (p *Poller) Subscribe(ctx context.Context, date string, h Handler) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(cancel)
	}

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var dedupe deduper
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				tasks, err := p.store.FetchDay(subCtx, date)
				if err != nil {
					logger.Debug("poll failed", "date", date, "err", err)
					continue
				}
				if !dedupe.changed(tasks) {
					continue
				}
				h(Snapshot{Date: date, Tasks: tasks})
			}
		}
	}()

	logger.Info("polling subscription opened", "date", date, "interval", p.interval)
	return stop, nil
}
