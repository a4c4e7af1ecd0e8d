package engine

import "sync"

// keyedMutex serializes operations per key (group ID or poll ID). Locks for
// distinct keys are independent, so operations on different groups or polls
// proceed in parallel. Mutexes are created on first use and kept for the
// process lifetime; the key space is bounded by the number of live groups
// and polls.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
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
