package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mergington/go-activity-server/authflow"
	apperrors "github.com/mergington/go-activity-server/internal/errors"
	"github.com/mergington/go-activity-server/provider"
	"github.com/mergington/go-activity-server/session"
)

const (
	testAccessTTL      = 30 * time.Minute
	testRefreshTTL     = 7 * 24 * time.Hour
	testPendingTimeout = 10 * time.Minute
)

var testIdentity = provider.UserIdentity{
	ID:        "1234",
	Email:     "john.doe@example.com",
	Name:      "John Doe",
	AvatarURL: "https://example.com/avatar.png",
}

// stubTokenClient satisfies session.TokenClient and counts calls.
type stubTokenClient struct {
	mu            sync.Mutex
	exchangeCalls int
	identityCalls int
	refreshCalls  int

	exchangeErr error
	identityErr error
	refreshErr  error
}

func (s *stubTokenClient) Exchange(_ context.Context, code, verifier string) (provider.TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchangeCalls++
	if s.exchangeErr != nil {
		return provider.TokenSet{}, s.exchangeErr
	}
	return provider.TokenSet{
		AccessToken:  "access-token-1",
		RefreshToken: "refresh-token-1",
		TokenType:    "Bearer",
	}, nil
}

func (s *stubTokenClient) FetchIdentity(_ context.Context, accessToken string) (provider.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityCalls++
	if s.identityErr != nil {
		return provider.UserIdentity{}, s.identityErr
	}
	return testIdentity, nil
}

func (s *stubTokenClient) Refresh(_ context.Context, refreshToken string) (provider.TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	if s.refreshErr != nil {
		return provider.TokenSet{}, s.refreshErr
	}
	return provider.TokenSet{
		AccessToken: "access-token-refreshed",
		TokenType:   "Bearer",
	}, nil
}

func (s *stubTokenClient) counts() (exchange, identity, refresh int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchangeCalls, s.identityCalls, s.refreshCalls
}

// testFixture holds all test dependencies
type testFixture struct {
	now         time.Time
	flowRepo    *authflow.InMemoryRepo
	flow        *authflow.Store
	sessionRepo *session.InMemoryRepo
	tokens      *stubTokenClient
	manager     *session.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		flowRepo:    authflow.NewInMemoryRepo(),
		sessionRepo: session.NewInMemoryRepo(),
		tokens:      &stubTokenClient{},
	}
	nowFunc := func() time.Time { return f.now }

	f.flow = authflow.NewStore(f.flowRepo, testPendingTimeout, zerolog.Nop(), authflow.WithNowTime(nowFunc))

	manager, err := session.NewManager(
		f.flow,
		f.tokens,
		f.sessionRepo,
		testAccessTTL,
		testRefreshTTL,
		zerolog.Nop(),
		session.WithNowTime(nowFunc),
	)
	require.NoError(t, err)
	f.manager = manager
	return f
}

// login runs a full begin/complete cycle and returns the session ID.
func (f *testFixture) login(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	state, _, err := f.manager.BeginLogin(ctx)
	require.NoError(t, err)

	sessionID, err := f.manager.CompleteLogin(ctx, "auth-code", state)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)
	return sessionID
}

func TestLoginAndResolve(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	sessionID := f.login(t)

	identity, err := f.manager.Resolve(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, testIdentity, identity)

	exchange, fetches, refreshes := f.tokens.counts()
	require.Equal(t, 1, exchange)
	require.Equal(t, 1, fetches)
	require.Equal(t, 0, refreshes)
}

func TestResolveUnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.Resolve(context.Background(), "nonexistent")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestCompleteLoginWithUnissuedState(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.manager.CompleteLogin(ctx, "auth-code", "never-issued")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	sessions, err := f.sessionRepo.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, sessions)

	exchange, _, _ := f.tokens.counts()
	require.Zero(t, exchange, "no exchange may happen without a valid state")
}

func TestCompleteLoginStateReplay(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	state, _, err := f.manager.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = f.manager.CompleteLogin(ctx, "auth-code", state)
	require.NoError(t, err)

	_, err = f.manager.CompleteLogin(ctx, "auth-code", state)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCompleteLoginExchangeFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.tokens.exchangeErr = apperrors.ErrTokenExchangeFailed
	ctx := context.Background()

	state, _, err := f.manager.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = f.manager.CompleteLogin(ctx, "bad-code", state)
	require.ErrorIs(t, err, apperrors.ErrTokenExchangeFailed)

	sessions, err := f.sessionRepo.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, sessions)
}

func TestCompleteLoginIdentityFetchFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.tokens.identityErr = apperrors.ErrIdentityFetchFailed
	ctx := context.Background()

	state, _, err := f.manager.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = f.manager.CompleteLogin(ctx, "auth-code", state)
	require.ErrorIs(t, err, apperrors.ErrIdentityFetchFailed)
}

func TestResolveAtExactAccessExpiry(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	// Strictly-after comparison: the exact expiry instant is still valid.
	f.now = f.now.Add(testAccessTTL)
	_, err := f.manager.Resolve(ctx, sessionID)
	require.NoError(t, err)

	_, _, refreshes := f.tokens.counts()
	require.Zero(t, refreshes)
}

func TestResolveRefreshesExpiredAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	f.now = f.now.Add(testAccessTTL + time.Second)

	identity, err := f.manager.Resolve(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, testIdentity, identity)

	_, _, refreshes := f.tokens.counts()
	require.Equal(t, 1, refreshes)

	// The refreshed session must hold the new token and a pushed-out expiry.
	stored, err := f.sessionRepo.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, "access-token-refreshed", stored.AccessToken)
	require.Equal(t, f.now.Add(testAccessTTL), stored.AccessExpiresAt)
	require.False(t, stored.AccessExpiresAt.After(stored.RefreshExpiresAt))

	// A follow-up resolve needs no second refresh.
	_, err = f.manager.Resolve(ctx, sessionID)
	require.NoError(t, err)
	_, _, refreshes = f.tokens.counts()
	require.Equal(t, 1, refreshes)
}

func TestConcurrentResolvesRefreshOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	f.now = f.now.Add(testAccessTTL + time.Second)

	const resolvers = 8
	var wg sync.WaitGroup
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Resolve(ctx, sessionID)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	_, _, refreshes := f.tokens.counts()
	require.Equal(t, 1, refreshes)
}

func TestResolveDeletesSessionOnRefreshFailure(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	f.tokens.refreshErr = apperrors.ErrRefreshFailed
	f.now = f.now.Add(testAccessTTL + time.Second)

	_, err := f.manager.Resolve(ctx, sessionID)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	// Terminal: the session is gone even after the provider recovers.
	f.tokens.refreshErr = nil
	_, err = f.manager.Resolve(ctx, sessionID)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestResolveExpiredRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	f.now = f.now.Add(testRefreshTTL + time.Second)

	_, err := f.manager.Resolve(ctx, sessionID)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, _, refreshes := f.tokens.counts()
	require.Zero(t, refreshes, "a dead session must not be revivable")

	sessions, err := f.sessionRepo.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, sessions)
}

func TestAccessExpiryNeverPassesRefreshExpiry(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	// Refresh close enough to end-of-life that now+accessTTL would overshoot.
	f.now = f.now.Add(testRefreshTTL - time.Minute)
	_, err := f.manager.Resolve(ctx, sessionID)
	require.NoError(t, err)

	stored, err := f.sessionRepo.Get(ctx, sessionID)
	require.NoError(t, err)
	require.False(t, stored.AccessExpiresAt.After(stored.RefreshExpiresAt))
}

func TestForcedRefresh(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	// Access token still valid, refresh happens anyway.
	require.NoError(t, f.manager.Refresh(ctx, sessionID))

	_, _, refreshes := f.tokens.counts()
	require.Equal(t, 1, refreshes)
}

func TestForcedRefreshUnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	err := f.manager.Refresh(context.Background(), "nonexistent")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestForcedRefreshFailureDeletesSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	f.tokens.refreshErr = apperrors.ErrRefreshFailed
	require.ErrorIs(t, f.manager.Refresh(ctx, sessionID), apperrors.ErrUnauthenticated)

	sessions, err := f.sessionRepo.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, sessions)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	require.NoError(t, f.manager.Logout(ctx, sessionID))

	_, err := f.manager.Resolve(ctx, sessionID)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	require.NoError(t, f.manager.Logout(ctx, sessionID))
	require.NoError(t, f.manager.Logout(ctx, "never-existed"))
}

func TestTwoIndependentSessionsForSameUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first := f.login(t)
	second := f.login(t)
	require.NotEqual(t, first, second)

	require.NoError(t, f.manager.Logout(ctx, first))

	_, err := f.manager.Resolve(ctx, second)
	require.NoError(t, err)
}

func TestResolveCleansUpExpiredPendingAuths(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	for i := 0; i < 5; i++ {
		_, _, err := f.manager.BeginLogin(ctx)
		require.NoError(t, err)
	}

	f.now = f.now.Add(testPendingTimeout + time.Minute)

	_, err := f.manager.Resolve(ctx, sessionID)
	require.NoError(t, err)

	pending, err := f.flow.PendingCount(ctx)
	require.NoError(t, err)
	require.Zero(t, pending)

	sessions, err := f.sessionRepo.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sessions)
}

func TestSessionInvariantOnCreation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	sessionID := f.login(t)

	stored, err := f.sessionRepo.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, f.now.Add(testAccessTTL), stored.AccessExpiresAt)
	require.Equal(t, f.now.Add(testRefreshTTL), stored.RefreshExpiresAt)
	require.False(t, stored.AccessExpiresAt.After(stored.RefreshExpiresAt))
	require.Equal(t, testIdentity, stored.User)
}
