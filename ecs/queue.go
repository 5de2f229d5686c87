package ecs

// Queue is a simple FIFO of one-tick events. Producers push during a tick
// and the consuming system drains it.
type Queue[T any] struct {
	items []T
}

// Push adds an item.
func (q *Queue[T]) Push(v T) {
	if q == nil {
		return
	}
	q.items = append(q.items, v)
}

// Drain returns all items and clears the queue.
func (q *Queue[T]) Drain() []T {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
