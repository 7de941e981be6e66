package sales

import (
	"hash/fnv"
	"sync"
)

const sessionLockStripes = 64

// SessionLocks serialises requests of the same checkout session.
// Carts are read, changed and written back; two requests from one till racing
// on that sequence would lose an update. Sessions hash onto a fixed set of stripes.
// The locks are per process: instances sharing a Redis cart store do not see
// each other's locks, so a till must stay pinned to one instance.
type SessionLocks struct {
	stripes [sessionLockStripes]sync.Mutex
}

// NewSessionLocks creates a lock set
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{}
}

// Lock locks the session and returns its unlock function
func (l *SessionLocks) Lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &l.stripes[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}
