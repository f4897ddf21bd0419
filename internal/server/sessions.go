package server

import (
	"sync"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/resolution"
)

// reviewSession pairs one resolution session with the initiative it reviews.
// The engine itself is single-threaded; the registry is the only state
// shared across requests, hence the lock lives here and not in the engine.
type reviewSession struct {
	ID         string
	Initiative model.Initiative
	Message    string
	Session    *resolution.Session
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*reviewSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*reviewSession)}
}

func (r *sessionRegistry) Add(s *reviewSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *sessionRegistry) Get(id string) (*reviewSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *sessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
