package tool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 20

type ConcurrencyRun interface {
	GetConcurrency() int
	DoTask(ctx context.Context, task string) error
}

// ConcurrencyTaskRun runs every task with at most run.GetConcurrency()
// tasks in flight. A failing task does not stop the others; the errors are
// returned in task order, nil for tasks that succeeded. Cancelling ctx
// stops tasks that have not started yet.
func ConcurrencyTaskRun(ctx context.Context, run ConcurrencyRun, tasks []string) []error {
	limit := run.GetConcurrency()
	if limit <= 0 {
		limit = defaultConcurrency
	}

	errs := make([]error, len(tasks))
	g := errgroup.Group{}
	g.SetLimit(limit)
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			errs[i] = run.DoTask(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
