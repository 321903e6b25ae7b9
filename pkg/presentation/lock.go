package presentation

import "sync"

// SessionLock serializes surface rebuilds. A request that arrives while
// a rebuild holds the lock is not run concurrently; it is recorded and
// reported to the holder on Leave so the holder can run it next.
//
// The lock guards only detach, construct and attach. It is never held
// while messages are delivered or input is sent.
type SessionLock struct {
	mu      sync.Mutex
	busy    bool
	pending bool
}

// Enter takes the lock. It returns false, and marks a pending request,
// when a rebuild is already in progress.
func (l *SessionLock) Enter() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		l.pending = true
		return false
	}
	l.busy = true
	return true
}

// Leave releases the lock and reports whether a request was coalesced
// while it was held.
func (l *SessionLock) Leave() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	pending := l.pending
	l.pending = false
	return pending
}

// Busy reports whether a rebuild holds the lock.
func (l *SessionLock) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}
