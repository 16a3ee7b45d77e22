package observer

import (
	"slices"
	"sync"
)

// Disposable cancels a subscription. Dispose is idempotent.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable. The function runs at most once.
func DisposableFunc(fn func()) Disposable {
	return &disposable{fn: fn}
}

type disposable struct {
	once sync.Once
	fn   func()
}

func (d *disposable) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Registry holds observers of values of type T.
//
// Notify calls observers synchronously, in registration order, on the
// caller's goroutine. Observers registered or disposed during a Notify take
// effect from the next Notify.
type Registry[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []entry[T]
}

// Register adds fn and returns a handle that removes it.
func (r *Registry[T]) Register(fn func(T)) Disposable {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry[T]{id: id, fn: fn})
	r.mu.Unlock()

	return DisposableFunc(func() { r.remove(id) })
}

// Len returns the number of registered observers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Notify delivers v to a snapshot of the registered observers.
func (r *Registry[T]) Notify(v T) {
	r.mu.Lock()
	snapshot := slices.Clone(r.entries)
	r.mu.Unlock()

	for _, e := range snapshot {
		e.fn(v)
	}
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = slices.DeleteFunc(r.entries, func(e entry[T]) bool {
		return e.id == id
	})
}

// Once registers an observer that fires fn for the first value satisfying
// match and then disposes itself. Later matching values are ignored even if
// they are delivered before disposal takes effect.
func Once[T any](r *Registry[T], match func(T) bool, fn func(T)) Disposable {
	var (
		fired  sync.Once
		handle Disposable
		mu     sync.Mutex
	)

	mu.Lock()
	handle = r.Register(func(v T) {
		if match != nil && !match(v) {
			return
		}

		fired.Do(func() {
			fn(v)

			mu.Lock()
			h := handle
			mu.Unlock()

			h.Dispose()
		})
	})
	mu.Unlock()

	return handle
}
