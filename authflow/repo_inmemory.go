package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu       sync.Mutex
	pendings map[string]*PendingAuth
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory pending-auth repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		pendings: make(map[string]*PendingAuth),
	}
}

// Upsert stores a pending auth. The ttl is ignored here; expiry is enforced
// by DeleteExpired scans and by the Store's age check on consume.
func (r *InMemoryRepo) Upsert(_ context.Context, state string, pending *PendingAuth, _ time.Duration) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if pending == nil {
		return errors.New("pending cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	r.pendings[state] = &PendingAuth{
		State:        pending.State,
		CodeVerifier: pending.CodeVerifier,
		CreatedAt:    pending.CreatedAt,
	}
	return nil
}

// Take removes and returns the pending auth for state in one step under the
// lock. A second Take with the same state always observes ErrStateNotFound.
func (r *InMemoryRepo) Take(_ context.Context, state string) (*PendingAuth, error) {
	if state == "" {
		return nil, apperrors.ErrStateNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending, exists := r.pendings[state]
	if !exists {
		return nil, apperrors.ErrStateNotFound
	}
	delete(r.pendings, state)
	return pending, nil
}

// DeleteExpired drops every pending auth created before cutoff.
func (r *InMemoryRepo) DeleteExpired(_ context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for state, pending := range r.pendings {
		if pending.CreatedAt.Before(cutoff) {
			delete(r.pendings, state)
		}
	}
	return nil
}

// Len returns the number of stored pending auths.
func (r *InMemoryRepo) Len(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pendings), nil
}
