// Package server wires the auth/session core and the activity catalog onto
// an HTTP surface. Handlers stay thin: cookie handling and redirects here,
// all lifecycle decisions in session.Manager.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mergington/go-activity-server/activities"
	"github.com/mergington/go-activity-server/internal/config"
	"github.com/mergington/go-activity-server/provider"
	"github.com/mergington/go-activity-server/session"
)

// AuthorizeURLBuilder builds the provider authorization URL for a login
// attempt. Satisfied by *provider.Client.
type AuthorizeURLBuilder interface {
	AuthCodeURL(state, challenge string) string
}

type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	sessions   *session.Manager
	activities *activities.Service
	oauth      AuthorizeURLBuilder
	log        zerolog.Logger
}

func New(conf config.Config, sessions *session.Manager, catalog *activities.Service, oauth AuthorizeURLBuilder, logger zerolog.Logger) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] session manager is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("[Server New] activity catalog is required")
	}
	if oauth == nil {
		return nil, fmt.Errorf("[Server New] authorize URL builder is required")
	}

	s := &Server{
		env:        conf.GetEnv(),
		mux:        http.NewServeMux(),
		config:     conf,
		sessions:   sessions,
		activities: catalog,
		oauth:      oauth,
		log:        logger.With().Str("component", "server").Logger(),
	}
	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	fmt.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

var _ AuthorizeURLBuilder = (*provider.Client)(nil)
