package authflow

import (
	"context"
	"time"
)

// PendingAuth is the stored half of an in-flight login attempt: the state
// parameter that will come back on the callback and the PKCE verifier that
// must accompany the code exchange.
type PendingAuth struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repo stores pending auths keyed by state. Take must be an atomic
// check-and-delete so that two callbacks racing on the same state can never
// both consume it.
type Repo interface {
	Upsert(ctx context.Context, state string, pending *PendingAuth, ttl time.Duration) error
	Take(ctx context.Context, state string) (*PendingAuth, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) error
	Len(ctx context.Context) (int, error)
}
