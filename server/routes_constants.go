package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthUser     = "/auth/user"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"

	// Activity routes
	RouteActivities         = "/activities"
	RouteActivitySignup     = "/activities/{name}/signup"
	RouteActivityUnregister = "/activities/{name}/unregister"
)
