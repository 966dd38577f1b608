package workpool

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Failure records an item whose function returned an error or panicked.
type Failure[T comparable] struct {
	Item T
	Err  error

	index int
}

// Result summarizes one Drain call.
type Result[T comparable] struct {
	Processed int           // items whose function returned nil
	Failures  []Failure[T]  // in queue order
	Skipped   []T           // left in the queue after cancellation
	Workers   int           // goroutines actually started
	Elapsed   time.Duration // wall-clock time of the whole batch
}

// PanicError wraps a value recovered from a panicking item function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Drain runs fn over every item of q with the given number of workers and
// blocks until all of them have returned. workers <= 0 means
// DefaultWorkers(). An error or panic in fn only affects its own item; the
// worker moves on to the next one. When ctx is cancelled workers stop taking
// new items and the remainder is reported in Result.Skipped.
func Drain[T comparable](ctx context.Context, workers int, q *Queue[T], fn func(context.Context, T) error) Result[T] {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if q.Len() == 0 {
		return Result[T]{}
	}
	if n := q.Len(); workers > n {
		workers = n
	}

	var (
		processed atomic.Int64
		mu        sync.Mutex
		failures  []Failure[T]
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	worker := func() error {
		for {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, idx, ok := q.poll()
			if !ok {
				return nil
			}
			if err := runItem(gctx, item, fn); err != nil {
				mu.Lock()
				failures = append(failures, Failure[T]{Item: item, Err: err, index: idx})
				mu.Unlock()
				continue
			}
			processed.Add(1)
		}
	}
	for w := 0; w < workers; w++ {
		g.Go(worker)
	}
	// Item errors never reach the group; only cancellation does, and the
	// items it leaves behind are reported through Skipped.
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].index < failures[j].index })

	return Result[T]{
		Processed: int(processed.Load()),
		Failures:  failures,
		Skipped:   q.drainRemaining(),
		Workers:   workers,
		Elapsed:   time.Since(start),
	}
}

func runItem[T comparable](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx, item)
}
