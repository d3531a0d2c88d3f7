// Package session owns the server-side session lifecycle: creation on a
// successful token exchange, transparent access-token refresh, logout and
// expiry cleanup. It is the single owner of the session and pending-auth
// stores; HTTP handlers only ever go through the Manager.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mergington/go-activity-server/authflow"
	apperrors "github.com/mergington/go-activity-server/internal/errors"
	"github.com/mergington/go-activity-server/pkce"
	"github.com/mergington/go-activity-server/provider"
)

const sessionIDBytes = 32

// TokenClient is the provider surface the Manager depends on. Satisfied by
// *provider.Client; tests substitute a stub.
type TokenClient interface {
	Exchange(ctx context.Context, code, verifier string) (provider.TokenSet, error)
	FetchIdentity(ctx context.Context, accessToken string) (provider.UserIdentity, error)
	Refresh(ctx context.Context, refreshToken string) (provider.TokenSet, error)
}

// Manager drives a session through its states: pending (exists only as a
// PendingAuth), active, refreshed in place, and finally deleted on logout,
// refresh failure or refresh-token expiry.
type Manager struct {
	flow   *authflow.Store
	tokens TokenClient
	repo   Repo

	accessTTL  time.Duration
	refreshTTL time.Duration

	nowTime func() time.Time
	log     zerolog.Logger

	// refreshMu serializes refresh-in-place so two concurrent resolves of
	// the same access-expired session perform exactly one provider call.
	refreshMu sync.Mutex
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager initializes a Manager with required dependencies.
func NewManager(
	flow *authflow.Store,
	tokens TokenClient,
	repo Repo,
	accessTTL, refreshTTL time.Duration,
	logger zerolog.Logger,
	options ...ManagerOption,
) (*Manager, error) {
	if flow == nil {
		return nil, errors.New("[NewManager] auth flow store is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewManager] token client is required")
	}
	if repo == nil {
		return nil, errors.New("[NewManager] session repo is required")
	}
	if accessTTL <= 0 || refreshTTL < accessTTL {
		return nil, errors.New("[NewManager] require 0 < accessTTL <= refreshTTL")
	}

	m := &Manager{
		flow:       flow,
		tokens:     tokens,
		repo:       repo,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowTime:    time.Now,
		log:        logger.With().Str("component", "session").Logger(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// BeginLogin starts a login attempt: a one-time state token and the PKCE
// challenge the HTTP layer puts on the provider's authorization URL.
func (m *Manager) BeginLogin(ctx context.Context) (state, challenge string, err error) {
	return m.flow.Issue(ctx)
}

// CompleteLogin finishes the callback half of the flow: consume the state,
// exchange the code, fetch the identity and store a fresh session. The
// returned session ID is the credential handed to the client.
func (m *Manager) CompleteLogin(ctx context.Context, code, state string) (string, error) {
	verifier, err := m.flow.Consume(ctx, state)
	if err != nil {
		return "", err
	}

	tokenSet, err := m.tokens.Exchange(ctx, code, verifier)
	if err != nil {
		return "", err
	}

	identity, err := m.tokens.FetchIdentity(ctx, tokenSet.AccessToken)
	if err != nil {
		return "", err
	}

	sessionID, err := pkce.RandomToken(sessionIDBytes)
	if err != nil {
		return "", err
	}

	now := m.nowTime()
	session := Session{
		ID:               sessionID,
		User:             identity,
		AccessToken:      tokenSet.AccessToken,
		RefreshToken:     tokenSet.RefreshToken,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshExpiresAt: now.Add(m.refreshTTL),
		CreatedAt:        now,
	}
	if err := m.repo.Upsert(ctx, sessionID, session, m.refreshTTL); err != nil {
		return "", apperrors.Wrapf(err, "[CompleteLogin] storing session")
	}

	m.log.Info().Str("user_id", identity.ID).Msg("session created")
	return sessionID, nil
}

// Resolve validates a session credential and returns the identity behind it.
// This is the contract protected-resource handlers consume. An access-expired
// session with a live refresh token is refreshed transparently; a session
// past its refresh expiry is deleted and reported as unauthenticated.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (provider.UserIdentity, error) {
	// Amortized cleanup keeps the maps bounded without a scheduler.
	m.CleanupExpired(ctx)

	session, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return provider.UserIdentity{}, apperrors.ErrUnauthenticated
	}

	now := m.nowTime()
	if now.After(session.RefreshExpiresAt) {
		m.deleteSession(ctx, sessionID)
		return provider.UserIdentity{}, apperrors.ErrUnauthenticated
	}

	if now.After(session.AccessExpiresAt) {
		session, err = m.refreshInPlace(ctx, sessionID)
		if err != nil {
			return provider.UserIdentity{}, apperrors.ErrUnauthenticated
		}
	}
	return session.User, nil
}

// Refresh forces an immediate access-token refresh regardless of expiry.
// Backs POST /auth/refresh. Failure is terminal for the session.
func (m *Manager) Refresh(ctx context.Context, sessionID string) error {
	session, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return apperrors.ErrUnauthenticated
	}
	if m.nowTime().After(session.RefreshExpiresAt) {
		m.deleteSession(ctx, sessionID)
		return apperrors.ErrUnauthenticated
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	if _, err := m.refreshSessionLocked(ctx, session); err != nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// Logout deletes the session unconditionally. Logging out a session that no
// longer exists is a no-op, not an error.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	if err := m.repo.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrapf(err, "[Logout] deleting session")
	}
	return nil
}

// CleanupExpired drops sessions past their refresh expiry and pending auths
// past the flow timeout. Best effort; failures are logged, not surfaced.
func (m *Manager) CleanupExpired(ctx context.Context) {
	if err := m.repo.DeleteExpired(ctx, m.nowTime()); err != nil {
		m.log.Warn().Err(err).Msg("session cleanup failed")
	}
	if err := m.flow.CleanupExpired(ctx); err != nil {
		m.log.Warn().Err(err).Msg("pending auth cleanup failed")
	}
}

// refreshInPlace refreshes an access-expired session, serialized so racing
// resolves settle on a single provider round-trip.
func (m *Manager) refreshInPlace(ctx context.Context, sessionID string) (Session, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Re-read under the lock: a concurrent resolve may have refreshed the
	// session while this one waited.
	session, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, apperrors.ErrSessionNotFound
	}
	if !m.nowTime().After(session.AccessExpiresAt) {
		return session, nil
	}
	return m.refreshSessionLocked(ctx, session)
}

func (m *Manager) refreshSessionLocked(ctx context.Context, session Session) (Session, error) {
	tokenSet, err := m.tokens.Refresh(ctx, session.RefreshToken)
	if err != nil {
		m.log.Warn().Str("user_id", session.User.ID).Msg("refresh failed, deleting session")
		m.deleteSession(ctx, session.ID)
		return Session{}, err
	}

	now := m.nowTime()
	session.AccessToken = tokenSet.AccessToken
	session.AccessExpiresAt = now.Add(m.accessTTL)
	if session.AccessExpiresAt.After(session.RefreshExpiresAt) {
		// The session's maximum lifetime is fixed at login.
		session.AccessExpiresAt = session.RefreshExpiresAt
	}
	if tokenSet.RefreshToken != "" {
		session.RefreshToken = tokenSet.RefreshToken
	}

	if err := m.repo.Upsert(ctx, session.ID, session, session.RefreshExpiresAt.Sub(now)); err != nil {
		return Session{}, apperrors.Wrapf(err, "[refreshSession] storing refreshed session")
	}
	return session, nil
}

func (m *Manager) deleteSession(ctx context.Context, sessionID string) {
	if err := m.repo.Delete(ctx, sessionID); err != nil {
		m.log.Warn().Err(err).Msg("deleting session failed")
	}
}
