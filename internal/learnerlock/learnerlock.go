// Package learnerlock serializes mutations of one learner's state inside a
// process. Different learners never contend.
package learnerlock

import "sync"

// Registry hands out one mutex per key. Entries are reference counted and
// removed when the last holder or waiter releases, so the map only holds
// learners with in-flight work.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *Registry {
	return &Registry{locks: make(map[string]*entry)}
}

// Lock blocks until the key is held and returns the matching unlock func.
func (r *Registry) Lock(key string) (unlock func()) {
	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			r.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(r.locks, key)
			}
			r.mu.Unlock()
		})
	}
}

// Len reports how many keys currently have holders or waiters.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
