package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the live wizard sessions of every user.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		now:      time.Now,
	}
}

func (r *Registry) Create(owner string) *Session {
	session := newSession(uuid.NewString(), owner, r.now)
	r.mu.Lock()
	r.sessions[session.id] = session
	r.mu.Unlock()
	return session
}

// Get returns the session only to the user who created it.
func (r *Registry) Get(id, owner string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.owner != owner {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *Registry) Delete(id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.owner != owner {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SweepIdle drops sessions untouched for longer than ttl.
func (r *Registry) SweepIdle(ttl time.Duration) int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.idle(now, ttl) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
