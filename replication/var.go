package replication

import "sync"

// Var is an observable replicated field. Only the simulation goroutine
// writes it; observers and readers on other goroutines see a consistent
// value. Change callbacks fire only when the value actually changes.
type Var[T comparable] struct {
	mu       sync.RWMutex
	name     string
	value    T
	onChange []func(prev, next T)
}

func NewVar[T comparable](name string, initial T) *Var[T] {
	return &Var[T]{name: name, value: initial}
}

func (v *Var[T]) Name() string {
	if v == nil {
		return ""
	}
	return v.name
}

func (v *Var[T]) Value() T {
	if v == nil {
		var zero T
		return zero
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores next and notifies observers if it differs from the current
// value.
func (v *Var[T]) Set(next T) {
	if v == nil {
		return
	}
	v.mu.Lock()
	prev := v.value
	if prev == next {
		v.mu.Unlock()
		return
	}
	v.value = next
	callbacks := v.onChange
	v.mu.Unlock()

	for _, fn := range callbacks {
		fn(prev, next)
	}
}

// OnChange registers fn to run after every change.
func (v *Var[T]) OnChange(fn func(prev, next T)) {
	if v == nil || fn == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = append(v.onChange, fn)
}
