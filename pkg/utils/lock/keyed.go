package lock

import "sync"

// Keyed provides one exclusive-access mutex per key. Used to serialize all
// mutations of a single incident without a global lock across incidents.
// Entries are never evicted; incidents are retained indefinitely for audit
// and the per-key footprint is one mutex.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed creates an empty keyed lock set
func NewKeyed() *Keyed {
	return &Keyed{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for the key and returns its unlock function
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
