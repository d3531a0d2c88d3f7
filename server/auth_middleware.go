package server

import (
	"context"
	"net/http"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
	"github.com/mergington/go-activity-server/provider"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the resolved identity for guarded handlers.
const ContextKeyUser ContextKey = "user"

// CurrentUser is the collaborator contract for protected resources: resolve
// the request's session cookie to an identity, or ErrUnauthenticated.
func (s *Server) CurrentUser(r *http.Request) (provider.UserIdentity, error) {
	sessionID, ok := s.sessionIDFromRequest(r)
	if !ok {
		return provider.UserIdentity{}, apperrors.ErrUnauthenticated
	}
	return s.sessions.Resolve(r.Context(), sessionID)
}

// RequireSession guards a handler: unauthenticated requests get a 401 and
// the handler runs with the identity available via UserFromContext.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.CurrentUser(r)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyUser, identity)
		next(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the identity injected by RequireSession.
func UserFromContext(ctx context.Context) (provider.UserIdentity, bool) {
	identity, ok := ctx.Value(ContextKeyUser).(provider.UserIdentity)
	return identity, ok
}
