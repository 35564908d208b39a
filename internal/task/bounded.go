package task

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidLimit is returned by RunBounded when the concurrency limit is not positive.
var ErrInvalidLimit = errors.New("concurrency limit must be positive")

// Thunk is a unit of work executed by RunBounded.
type Thunk[T any] func(ctx context.Context) (T, error)

// Result holds the outcome of one thunk. Exactly one of Value or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the thunk succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// RunBounded executes tasks with at most limit of them in flight and returns
// one Result per task, indexed as the input. A failing or panicking task never
// aborts its siblings; its failure is captured in its Result. Only an invalid
// limit is reported through the returned error.
func RunBounded[T any](ctx context.Context, tasks []Thunk[T], limit int) ([]Result[T], error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	// The group never sees an error, so one failure cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(limit)

	for i, thunk := range tasks {
		g.Go(func() error {
			results[i] = runThunk(ctx, thunk)
			return nil
		})
	}

	_ = g.Wait()
	return results, nil
}

func runThunk[T any](ctx context.Context, thunk Thunk[T]) (result Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			result = Result[T]{Err: fmt.Errorf("task panicked: %v", p)}
		}
	}()

	if thunk == nil {
		return Result[T]{Err: errors.New("nil task")}
	}

	value, err := thunk(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Value: value}
}
