package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut runs fn for every item concurrently and returns the results in item
// order. Every task runs to completion; if any failed, the first error is
// returned and the results are discarded. limit <= 0 means no cap.
func fanOut[In, Out any](ctx context.Context, items []In, limit int, fn func(ctx context.Context, i int, item In) (Out, error)) ([]Out, error) {
	results := make([]Out, len(items))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			out, err := fn(ctx, i, item)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
