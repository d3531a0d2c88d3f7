package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mergington/go-activity-server/activities"
)

// ActivitiesHandler lists the catalog. Public: browsing needs no session.
func (s *Server) ActivitiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.activities.List())
	}
}

// SignupHandler registers the authenticated user for an activity.
func (s *Server) SignupHandler() http.HandlerFunc {
	return s.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := UserFromContext(r.Context())
		name := r.PathValue("name")

		if err := s.activities.Signup(name, identity.Email); err != nil {
			writeActivityError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, fmt.Sprintf("Signed up %s for %s", identity.Email, name))
	})
}

// UnregisterHandler removes a participant from an activity. The email query
// parameter lets a signed-in user remove another participant, matching the
// original UI's roster management; absent, it removes the caller.
func (s *Server) UnregisterHandler() http.HandlerFunc {
	return s.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := UserFromContext(r.Context())
		name := r.PathValue("name")

		email := r.URL.Query().Get("email")
		if email == "" {
			email = identity.Email
		}

		if err := s.activities.Unregister(name, email); err != nil {
			writeActivityError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, fmt.Sprintf("Unregistered %s from %s", email, name))
	})
}

func writeActivityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, activities.ErrActivityNotFound):
		writeDetail(w, http.StatusNotFound, "Activity not found")
	case errors.Is(err, activities.ErrAlreadySignedUp):
		writeDetail(w, http.StatusBadRequest, "Student already signed up for this activity")
	case errors.Is(err, activities.ErrNotSignedUp):
		writeDetail(w, http.StatusBadRequest, "Student is not signed up for this activity")
	case errors.Is(err, activities.ErrActivityFull):
		writeDetail(w, http.StatusBadRequest, "Activity is full")
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
