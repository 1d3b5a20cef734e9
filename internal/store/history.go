package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvreilly/daydeck/internal/task"
)

// historyConcurrency bounds the number of in-flight day fetches.
const historyConcurrency = 4

// History fetches the day documents for the `days` dates ending at (and
// including) end, concurrently. Days with no tasks are skipped. Results
// are ordered newest first. A single failed fetch fails the whole call.
func History(ctx context.Context, s Store, end time.Time, days int) ([]task.DayDocument, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)

	var mu sync.Mutex
	var docs []task.DayDocument

	for i := 0; i < days; i++ {
		date := end.AddDate(0, 0, -i).Format(task.DateFormat)
		g.Go(func() error {
			tasks, err := s.FetchDay(ctx, date)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				return nil
			}
			doc := task.DayDocument{Date: date, Tasks: tasks}
			doc.Refresh()
			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Date > docs[j].Date })
	return docs, nil
}
