package vcs

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// QueryAll runs q for every directory and returns the histories in the same
// order as dirs. With workers <= 1 the queries run one at a time; otherwise at
// most workers queries are in flight. The result never depends on scheduling.
func QueryAll(ctx context.Context, q HistoryQuerier, dirs []string, workers int) []History {
	out := make([]History, len(dirs))
	if workers <= 1 {
		for i, d := range dirs {
			out[i] = q.History(ctx, d)
		}
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, d := range dirs {
		g.Go(func() error {
			out[i] = q.History(gctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
