package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))

	// OAuth login flow
	s.RegisterRouteFunc("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// Session endpoints
	s.RegisterRouteFunc("GET "+RouteAuthUser, ChainMiddleware(s.UserHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Activity catalog: listing is public, mutations require a session
	s.RegisterRouteFunc("GET "+RouteActivities, ChainMiddleware(s.ActivitiesHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteActivitySignup, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteActivityUnregister, ChainMiddleware(s.UnregisterHandler(), s.APIMiddleware()...))
}

// IndexHandler replaces the original static UI (out of scope) with a small
// JSON index so the root path still answers.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"app":        s.config.GetAppName(),
			"activities": RouteActivities,
			"login":      RouteAuthLogin,
		})
	}
}
