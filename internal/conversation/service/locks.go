package service

import "sync"

// keyedLocks serializes work per key. The orchestrator locks on the
// phone number so concurrent webhook deliveries for one lead are
// processed one at a time, while different leads proceed in parallel.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*phoneLock
}

type phoneLock struct {
	mu   sync.Mutex
	refs int
}

// acquire blocks until the caller holds the lock for key. The returned
// function releases it.
func (k *keyedLocks) acquire(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*phoneLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &phoneLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
