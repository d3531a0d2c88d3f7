// Package activities is the protected resource gated behind the auth core:
// an in-memory catalog of extracurricular activities with signup and
// unregister operations keyed by the authenticated user's email.
package activities

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrAlreadySignedUp  = errors.New("already signed up for this activity")
	ErrNotSignedUp      = errors.New("not signed up for this activity")
	ErrActivityFull     = errors.New("activity is full")
)

// Activity is one extracurricular offering.
type Activity struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Service is a concurrency-safe activity catalog.
type Service struct {
	mu         sync.RWMutex
	activities map[string]*Activity
	order      []string
}

// NewService creates a catalog seeded with the given activities.
func NewService(seed []Activity) *Service {
	s := &Service{activities: make(map[string]*Activity)}
	for i := range seed {
		a := seed[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Participants == nil {
			a.Participants = []string{}
		}
		s.activities[a.Name] = &a
		s.order = append(s.order, a.Name)
	}
	return s
}

// List returns the catalog in seed order.
func (s *Service) List() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Activity, 0, len(s.order))
	for _, name := range s.order {
		a := s.activities[name]
		out = append(out, Activity{
			ID:              a.ID,
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    append([]string{}, a.Participants...),
		})
	}
	return out
}

// Signup registers email for the named activity.
func (s *Service) Signup(name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[name]
	if !ok {
		return ErrActivityNotFound
	}
	for _, p := range activity.Participants {
		if p == email {
			return ErrAlreadySignedUp
		}
	}
	if activity.MaxParticipants > 0 && len(activity.Participants) >= activity.MaxParticipants {
		return ErrActivityFull
	}
	activity.Participants = append(activity.Participants, email)
	return nil
}

// Unregister removes email from the named activity.
func (s *Service) Unregister(name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[name]
	if !ok {
		return ErrActivityNotFound
	}
	for i, p := range activity.Participants {
		if p == email {
			activity.Participants = append(activity.Participants[:i], activity.Participants[i+1:]...)
			return nil
		}
	}
	return ErrNotSignedUp
}
