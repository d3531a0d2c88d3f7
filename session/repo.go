package session

import (
	"context"
	"time"

	"github.com/mergington/go-activity-server/provider"
)

// Session links an opaque client-held identifier to an authenticated identity
// and the provider tokens backing it.
type Session struct {
	ID   string                `json:"id"`
	User provider.UserIdentity `json:"user"`

	// AccessToken is never exposed to the client; RefreshToken mints new
	// access tokens until RefreshExpiresAt, after which the session is dead.
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Repo stores sessions keyed by session ID. The Manager is the only mutator.
type Repo interface {
	Upsert(ctx context.Context, sessionID string, session Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) error
	Len(ctx context.Context) (int, error)
}
