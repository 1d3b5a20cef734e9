package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mvreilly/daydeck/internal/config"
	"github.com/mvreilly/daydeck/internal/realtime"
	"github.com/mvreilly/daydeck/internal/session"
	"github.com/mvreilly/daydeck/internal/store"
	"github.com/mvreilly/daydeck/internal/task"
	"github.com/mvreilly/daydeck/internal/tracker"
)

// loadConfig resolves and loads daydeck.toml: the --config path when given,
// otherwise the nearest file found walking up from the working directory.
// No file at all is fine; env vars can carry the whole configuration.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		found, err := config.FindConfigFile(".")
		if err != nil {
			return nil, fmt.Errorf("finding config file: %w", err)
		}
		path = found
	}
	return config.Load(path)
}

// buildStore constructs the document store client from the resolved config,
// wiring in the local cache when enabled.
func buildStore(cfg *config.Config) (store.Store, error) {
	var cache *store.Cache
	if cfg.Cache.Enabled {
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, err
		}
		c, err := store.NewCache(dir)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		cache = c
	}

	return store.NewClient(store.Options{
		BaseURL:        cfg.Store.URL,
		APIKey:         cfg.Store.APIKey,
		Table:          cfg.Store.Table,
		Cache:          cache,
		ConflictChecks: cfg.Store.ConflictChecks,
	})
}

// buildChannel constructs the realtime channel for the configured
// transport. Returns nil for the "off" transport.
func buildChannel(cfg *config.Config, st store.Store) (realtime.Channel, error) {
	switch cfg.Realtime.Transport {
	case config.TransportWebsocket:
		return realtime.NewWebsocket(realtime.WebsocketOptions{
			URL:    cfg.Realtime.URL,
			APIKey: cfg.Store.APIKey,
			Table:  cfg.Store.Table,
		})
	case config.TransportPolling:
		return realtime.NewPoller(st, cfg.Realtime.PollInterval.Std()), nil
	case config.TransportOff:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown realtime transport %q", cfg.Realtime.Transport)
	}
}

// openSession assembles config, store, optional realtime channel, and the
// session for the resolved date. withChannel is false for one-shot
// commands that have no use for live snapshots.
func openSession(ctx context.Context, withChannel bool) (*session.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	var ch realtime.Channel
	if withChannel {
		ch, err = buildChannel(cfg, st)
		if err != nil {
			return nil, err
		}
	}

	return session.New(ctx, session.Options{
		Date:    resolveDate(),
		Store:   st,
		Channel: ch,
		Retry: tracker.Config{
			BaseDelay:  cfg.Retry.BaseDelay.Std(),
			MaxRetries: cfg.Retry.MaxRetries,
		},
	})
}

// awaitWrite blocks a one-shot command until its submitted mutation has
// settled: confirmed by the store, or parked with its retries exhausted.
// Scheduled retries run in between, so a transient store failure still
// ends in success here.
func awaitWrite(sess *session.Session, taskID string) error {
	trk := sess.Tracker()

	done := make(chan struct{}, 1)
	sess.SetOnChange(func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	timeout := time.After(2 * time.Minute)
	for {
		trk.Flush()

		if !trk.IsPending(taskID) && !trk.HasFailed() {
			return nil
		}

		failed := trk.Failed()
		exhausted := len(failed) > 0
		for _, m := range failed {
			if !m.Exhausted {
				exhausted = false
				break
			}
		}
		if exhausted {
			trk.ClearFailed()
			return fmt.Errorf("update of task %s did not reach the store after retries", shortID(taskID))
		}

		select {
		case <-done:
		case <-timeout:
			return fmt.Errorf("timed out waiting for update of task %s", shortID(taskID))
		}
	}
}

// resolveDate returns the --date flag value or today's date.
func resolveDate() string {
	if flagDate != "" {
		return flagDate
	}
	return time.Now().Format(task.DateFormat)
}

// resolveTaskID matches a command-line argument against the day's tasks:
// an exact ID, a unique ID prefix, or a unique case-insensitive title
// prefix. Ambiguous or missing matches are errors.
func resolveTaskID(tasks []task.Task, arg string) (string, error) {
	for _, t := range tasks {
		if t.ID == arg {
			return t.ID, nil
		}
	}

	var matches []task.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		lower := strings.ToLower(arg)
		for _, t := range tasks {
			if strings.HasPrefix(strings.ToLower(t.Title), lower) {
				matches = append(matches, t)
			}
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].ID, nil
	case 0:
		return "", fmt.Errorf("no task matches %q", arg)
	default:
		var titles []string
		for _, t := range matches {
			titles = append(titles, fmt.Sprintf("%s (%s)", t.Title, shortID(t.ID)))
		}
		return "", fmt.Errorf("%q is ambiguous: %s", arg, strings.Join(titles, ", "))
	}
}

// shortID abbreviates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
