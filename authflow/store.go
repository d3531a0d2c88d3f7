// Package authflow issues and consumes the one-time state tokens that bind a
// login attempt to its OAuth callback, pairing each with a PKCE verifier.
package authflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
	"github.com/mergington/go-activity-server/pkce"
)

const stateTokenBytes = 32

// Store is the CSRF state store for in-flight login attempts.
type Store struct {
	repo    Repo
	timeout time.Duration
	nowTime func() time.Time
	log     zerolog.Logger
}

// StoreOption modifies a Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// NewStore creates a state store. timeout bounds how long an issued state
// remains consumable.
func NewStore(repo Repo, timeout time.Duration, logger zerolog.Logger, options ...StoreOption) *Store {
	s := &Store{
		repo:    repo,
		timeout: timeout,
		nowTime: time.Now,
		log:     logger.With().Str("component", "authflow").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Issue generates a fresh state token and PKCE pair, stores the pending auth
// and returns the values needed to build the provider's authorization URL.
// The verifier never leaves the store; it is released only to the callback
// that consumes the matching state.
func (s *Store) Issue(ctx context.Context) (state, challenge string, err error) {
	state, err = pkce.RandomToken(stateTokenBytes)
	if err != nil {
		return "", "", err
	}

	verifier, challenge, err := pkce.Generate()
	if err != nil {
		return "", "", err
	}

	pending := &PendingAuth{
		State:        state,
		CodeVerifier: verifier,
		CreatedAt:    s.nowTime(),
	}
	if err := s.repo.Upsert(ctx, state, pending, s.timeout); err != nil {
		return "", "", apperrors.Wrapf(err, "[Store Issue] storing pending auth")
	}
	return state, challenge, nil
}

// Consume atomically removes the pending auth for state and returns its
// verifier. Unknown, already-consumed and expired states all collapse to
// ErrInvalidState so the callback leaks nothing about which case occurred.
func (s *Store) Consume(ctx context.Context, state string) (string, error) {
	pending, err := s.repo.Take(ctx, state)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrStateNotFound) {
			s.log.Debug().Msg("state unknown or already consumed")
			return "", apperrors.ErrInvalidState
		}
		return "", apperrors.Wrapf(err, "[Store Consume] taking pending auth")
	}

	if s.nowTime().After(pending.CreatedAt.Add(s.timeout)) {
		s.log.Debug().Msg("state expired before callback")
		return "", apperrors.ErrInvalidState
	}
	return pending.CodeVerifier, nil
}

// CleanupExpired drops pending auths older than the timeout.
func (s *Store) CleanupExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx, s.nowTime().Add(-s.timeout))
}

// PendingCount reports how many login attempts are currently in flight.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	return s.repo.Len(ctx)
}
