package server

import (
	"net/http"

	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

// LoginHandler starts the OAuth flow: issue state + PKCE challenge and send
// the browser to the provider's consent page. No cookie is set yet; the
// pending auth lives server-side keyed by state.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, challenge, err := s.sessions.BeginLogin(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("failed to begin login")
			writeDetail(w, http.StatusInternalServerError, "Failed to start login")
			return
		}
		http.Redirect(w, r, s.oauth.AuthCodeURL(state, challenge), http.StatusFound)
	}
}

// CallbackHandler finishes the OAuth flow. Every failure redirects home with
// a coarse ?error= kind; success sets the session cookie and redirects home.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errorParam := r.URL.Query().Get("error"); errorParam != "" {
			redirectWithError(w, r, errorParam)
			return
		}

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			redirectWithError(w, r, "missing_parameters")
			return
		}

		sessionID, err := s.sessions.CompleteLogin(r.Context(), code, state)
		if err != nil {
			redirectWithError(w, r, errorKind(err))
			return
		}

		if err := s.setSessionCookie(w, sessionID); err != nil {
			s.log.Error().Err(err).Msg("failed to sign session cookie")
			redirectWithError(w, r, "login_failed")
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// UserHandler returns the authenticated identity, refreshing the access
// token transparently when needed.
func (s *Server) UserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.CurrentUser(r)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, identity)
	}
}

// RefreshHandler forces an immediate token refresh regardless of expiry.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := s.sessionIDFromRequest(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if err := s.sessions.Refresh(r.Context(), sessionID); err != nil {
			writeDetail(w, http.StatusUnauthorized, "Session expired")
			return
		}
		writeMessage(w, http.StatusOK, "Token refreshed")
	}
}

// LogoutHandler deletes the session and clears the cookie. Idempotent:
// logging out with no (or a dead) session still succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, ok := s.sessionIDFromRequest(r); ok {
			if err := s.sessions.Logout(r.Context(), sessionID); err != nil {
				s.log.Warn().Err(err).Msg("logout failed to delete session")
			}
		}
		s.clearSessionCookie(w)
		writeMessage(w, http.StatusOK, "Logged out successfully")
	}
}

// errorKind maps core errors onto the coarse kinds surfaced in redirects.
func errorKind(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidState):
		return "invalid_state"
	case apperrors.Is(err, apperrors.ErrTokenExchangeFailed):
		return "token_exchange_failed"
	case apperrors.Is(err, apperrors.ErrIdentityFetchFailed):
		return "identity_fetch_failed"
	default:
		return "login_failed"
	}
}
