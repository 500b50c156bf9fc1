package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers returns limit, or GOMAXPROCS when limit is not positive.
func Workers(limit int) int {
	if limit > 0 {
		return limit
	}
	return runtime.GOMAXPROCS(0)
}

// Map applies fn to every element with at most limit goroutines in flight,
// preserving order. The first error cancels the context passed to the
// remaining calls and is returned.
func Map[T any, R any](ctx context.Context, in []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(Workers(limit))

	for idx, val := range in {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(ctx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ForEach runs action for every element with at most limit goroutines in
// flight and returns the first error.
func ForEach[T any](ctx context.Context, in []T, limit int, action func(context.Context, T) error) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(Workers(limit))

	for _, val := range in {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return action(ctx, val)
		})
	}
	return group.Wait()
}
