// Package workpool runs a function over a fixed set of items with a pool of
// workers that pull from a shared queue until it is empty.
//
// Usage:
//
//	q := workpool.NewQueue(trackIDs)
//	res := workpool.Drain(ctx, 0, q, func(ctx context.Context, id int) error {
//	    return analyze(id)
//	})
//	// res.Failures holds per-item errors; other items are unaffected.
package workpool

import "sync"

// Queue is a pre-populated, thread-safe queue of pending items.
// Each item is handed out exactly once.
type Queue[T comparable] struct {
	mu    sync.Mutex
	items []T
	next  int
}

// NewQueue builds a queue from items. Duplicates are dropped, keeping the
// first occurrence, so that no item is processed twice.
func NewQueue[T comparable](items []T) *Queue[T] {
	seen := make(map[T]struct{}, len(items))
	unique := make([]T, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		unique = append(unique, it)
	}
	return &Queue[T]{items: unique}
}

// Poll takes the next item. It never blocks beyond the internal lock and
// returns false once the queue is empty.
func (q *Queue[T]) Poll() (T, bool) {
	it, _, ok := q.poll()
	return it, ok
}

func (q *Queue[T]) poll() (T, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.next >= len(q.items) {
		return zero, -1, false
	}
	i := q.next
	it := q.items[i]
	q.next++
	return it, i, true
}

// Len returns the number of items not yet taken.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.next
}

// Size returns the number of distinct items the queue was built with.
func (q *Queue[T]) Size() int {
	return len(q.items)
}

// drainRemaining empties the queue and returns what was left.
func (q *Queue[T]) drainRemaining() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	rest := make([]T, len(q.items)-q.next)
	copy(rest, q.items[q.next:])
	q.next = len(q.items)
	return rest
}
