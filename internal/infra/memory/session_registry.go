package memory

import (
	"context"
	"sync"
)

// SessionRegistry is an in-memory implementation of app.SessionRegistry.
type SessionRegistry struct {
	mu      sync.Mutex
	holders map[string]string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		holders: make(map[string]string),
	}
}

// Claim succeeds when nobody holds the attempt or holder already does.
func (r *SessionRegistry) Claim(_ context.Context, attemptID, holder string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.holders[attemptID]; ok && current != holder {
		return false, nil
	}
	r.holders[attemptID] = holder
	return true, nil
}

// Release drops the claim if holder still owns it.
func (r *SessionRegistry) Release(_ context.Context, attemptID, holder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.holders[attemptID] == holder {
		delete(r.holders, attemptID)
	}
	return nil
}

// Held reports whether any session holds the attempt.
func (r *SessionRegistry) Held(attemptID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.holders[attemptID]
	return ok
}

// Holder returns the current holder of the attempt, or "".
func (r *SessionRegistry) Holder(attemptID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holders[attemptID]
}
