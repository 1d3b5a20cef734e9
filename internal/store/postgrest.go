package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mvreilly/daydeck/internal/logging"
	"github.com/mvreilly/daydeck/internal/task"
)

var logger = logging.New("store")

// Options configures the PostgREST client.
type Options struct {
	// BaseURL is the project REST endpoint, e.g.
	// https://xyzcompany.supabase.co/rest/v1.
	BaseURL string

	// APIKey is sent as both the apikey header and the bearer token.
	APIKey string

	// Table is the day-document table name (default "daily_tasks").
	Table string

	// Cache, when non-nil, mirrors fetched and written documents locally
	// and serves as a read fallback when the store is unreachable.
	Cache *Cache

	// ConflictChecks enables the updated_at write precondition. When a
	// concurrent writer has touched the row since our read, the write is
	// rejected with ErrConflict instead of silently overwriting. Off by
	// default: the legacy last-writer-wins behavior is the documented
	// compatibility mode.
	ConflictChecks bool

	// HTTPClient overrides the transport, primarily for tests.
	HTTPClient *http.Client

	// Now overrides the clock, primarily for tests.
	Now func() time.Time
}

// Client is a document store backed by a PostgREST table with one row per
// calendar date. Every mutation is a read-modify-write of the whole row.
type Client struct {
	baseURL        string
	apiKey         string
	table          string
	cache          *Cache
	conflictChecks bool
	http           *http.Client
	now            func() time.Time
}

// NewClient creates a PostgREST-backed store client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("store: base URL is required")
	}
	if opts.APIKey == "" {
		return nil, errors.New("store: API key is required")
	}
	c := &Client{
		baseURL:        opts.BaseURL,
		apiKey:         opts.APIKey,
		table:          opts.Table,
		cache:          opts.Cache,
		conflictChecks: opts.ConflictChecks,
		http:           opts.HTTPClient,
		now:            opts.Now,
	}
	if c.table == "" {
		c.table = "daily_tasks"
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// row is the wire shape of one daily_tasks row.
type row struct {
	Date      string          `json:"date"`
	Tasks     []task.Task     `json:"tasks"`
	Summary   task.DaySummary `json:"summary"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func (c *Client) tableURL(query url.Values) string {
	return c.baseURL + "/" + c.table + "?" + query.Encode()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

// do executes the request and decodes a JSON array response into out.
// Transport errors and 5xx responses map to ErrStoreUnavailable; 4xx
// responses map to ErrRejected so they never enter the retry loop.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", req.Method, req.URL.Path, err, ErrStoreUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("reading response: %v: %w", err, ErrStoreUnavailable)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s %s: server error %d: %w", req.Method, req.URL.Path, resp.StatusCode, ErrStoreUnavailable)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: status %d: %s: %w", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body), ErrRejected)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %v: %w", err, ErrStoreUnavailable)
		}
	}
	return nil
}

// fetchDoc reads the row for a date. The bool result is false when no row
// exists. On store failure with a warm cache, the cached copy is served.
func (c *Client) fetchDoc(ctx context.Context, date string) (task.DayDocument, bool, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("date", "eq."+date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(query), nil)
	if err != nil {
		return task.DayDocument{}, false, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	var rows []row
	if err := c.do(req, &rows); err != nil {
		if c.cache != nil && errors.Is(err, ErrStoreUnavailable) {
			if doc, ok, cerr := c.cache.Load(date); cerr == nil && ok {
				logger.Warn("store unreachable, serving cached day document", "date", date, "err", err)
				return doc, true, nil
			}
		}
		return task.DayDocument{}, false, err
	}
	if len(rows) == 0 {
		return task.NewDayDocument(date), false, nil
	}

	doc := task.DayDocument{Date: rows[0].Date, Tasks: rows[0].Tasks}
	if doc.Tasks == nil {
		doc.Tasks = []task.Task{}
	}
	if rows[0].CreatedAt != nil {
		doc.CreatedAt = *rows[0].CreatedAt
	}
	if rows[0].UpdatedAt != nil {
		doc.UpdatedAt = *rows[0].UpdatedAt
	}
	// The stored summary is advisory only; recompute from the tasks.
	doc.Refresh()

	if c.cache != nil {
		if err := c.cache.Save(doc); err != nil {
			logger.Warn("saving local copy failed", "date", date, "err", err)
		}
	}
	return doc, true, nil
}

// writeDoc upserts the whole row. With conflict checks enabled and a prior
// row present, the write carries an updated_at precondition and fails with
// ErrConflict when a concurrent writer has already replaced the row.
func (c *Client) writeDoc(ctx context.Context, doc task.DayDocument, existed bool) error {
	doc.Refresh()
	payload := row{Date: doc.Date, Tasks: doc.Tasks, Summary: doc.Summary}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding day document %s: %w", doc.Date, err)
	}

	if c.conflictChecks && existed && !doc.UpdatedAt.IsZero() {
		query := url.Values{}
		query.Set("date", "eq."+doc.Date)
		query.Set("updated_at", "eq."+doc.UpdatedAt.UTC().Format(time.RFC3339Nano))

		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.tableURL(query), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		c.setHeaders(req)
		req.Header.Set("Prefer", "return=representation")

		var updated []row
		if err := c.do(req, &updated); err != nil {
			return err
		}
		if len(updated) == 0 {
			return fmt.Errorf("day %s changed since read: %w", doc.Date, ErrConflict)
		}
	} else {
		query := url.Values{}
		query.Set("on_conflict", "date")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(query), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		c.setHeaders(req)
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

		if err := c.do(req, nil); err != nil {
			return err
		}
	}

	if c.cache != nil {
		if err := c.cache.Save(doc); err != nil {
			logger.Warn("saving local copy failed", "date", doc.Date, "err", err)
		}
	}
	return nil
}

// FetchDay implements Store.
func (c *Client) FetchDay(ctx context.Context, date string) ([]task.Task, error) {
	doc, _, err := c.fetchDoc(ctx, date)
	if err != nil {
		return nil, err
	}
	logger.Debug("day document fetched", "date", date, "tasks", len(doc.Tasks))
	return doc.Tasks, nil
}

// CreateTask implements Store.
func (c *Client) CreateTask(ctx context.Context, date string, in task.Input) (task.Task, error) {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return task.Task{}, err
	}
	t := in.Build(c.now())
	doc.Tasks = append(doc.Tasks, t)
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return task.Task{}, err
	}
	logger.Info("task created", "date", date, "task", t.ID, "title", t.Title)
	return t, nil
}

// UpdateTask implements Store.
func (c *Client) UpdateTask(ctx context.Context, date, taskID string, u task.PartialUpdate) (task.Task, error) {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return task.Task{}, err
	}
	i := doc.Find(taskID)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	u.Apply(&doc.Tasks[i], c.now())
	updated := doc.Tasks[i].Clone()
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return task.Task{}, err
	}
	logger.Debug("task updated", "date", date, "task", taskID, "fields", u.Fields())
	return updated, nil
}

// DeleteTask implements Store.
func (c *Client) DeleteTask(ctx context.Context, date, taskID string) error {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return err
	}
	if !doc.Remove(taskID) {
		return fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return err
	}
	logger.Info("task deleted", "date", date, "task", taskID)
	return nil
}

// ToggleSubtask implements Store.
func (c *Client) ToggleSubtask(ctx context.Context, date, taskID, subtaskID string) (task.Task, error) {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return task.Task{}, err
	}
	i := doc.Find(taskID)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	if !doc.Tasks[i].ToggleSubtask(subtaskID, c.now()) {
		return task.Task{}, fmt.Errorf("subtask %s of task %s: %w", subtaskID, taskID, ErrNotFound)
	}
	updated := doc.Tasks[i].Clone()
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// AddSubtask implements Store.
func (c *Client) AddSubtask(ctx context.Context, date, taskID, title string) (task.Task, error) {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return task.Task{}, err
	}
	i := doc.Find(taskID)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s on %s: %w", taskID, date, ErrNotFound)
	}
	doc.Tasks[i].AddSubtask(title, c.now())
	updated := doc.Tasks[i].Clone()
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// ReplaceDay implements Store.
func (c *Client) ReplaceDay(ctx context.Context, date string, tasks []task.Task) error {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return err
	}
	doc.Tasks = task.CloneTasks(tasks)
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return err
	}
	logger.Info("day document replaced", "date", date, "tasks", len(tasks))
	return nil
}

// BulkUpdateTasks implements Store.
func (c *Client) BulkUpdateTasks(ctx context.Context, date string, taskIDs []string, u task.PartialUpdate) ([]task.Task, error) {
	doc, existed, err := c.fetchDoc(ctx, date)
	if err != nil {
		return nil, err
	}
	now := c.now()
	updated := make([]task.Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		if i := doc.Find(id); i >= 0 {
			u.Apply(&doc.Tasks[i], now)
			updated = append(updated, doc.Tasks[i].Clone())
		}
	}
	if err := c.writeDoc(ctx, doc, existed); err != nil {
		return nil, err
	}
	logger.Debug("bulk update applied", "date", date, "requested", len(taskIDs), "updated", len(updated))
	return updated, nil
}
