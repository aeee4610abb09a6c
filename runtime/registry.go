package runtime

import (
	"sort"
	"sync"

	"chat-relay/contract"
	apperrors "chat-relay/errors"
)

// Registry is the authoritative in-memory table of connected sessions,
// keyed by username. All mutations are serialized behind the mutex;
// readers never observe a torn entry.
type Registry struct {
	mu         sync.RWMutex
	generation uint64
	sessions   map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register inserts a new session for the username. It fails with
// ErrDuplicateUsername when the name is already taken, leaving the
// existing session untouched.
func (r *Registry) Register(username string, peer contract.Peer) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.sessions[username]; taken {
		return nil, apperrors.ErrDuplicateUsername
	}
	r.generation++
	session := newSession(username, peer, r.generation)
	r.sessions[username] = session
	return session, nil
}

// Unregister removes the entry for username if it still belongs to the
// given generation. The check prevents a liveness eviction racing a
// disconnect (double removal) or removing a newly reconnected session
// that reused the name. Returns whether an entry was removed.
func (r *Registry) Unregister(username string, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[username]
	if !ok || session.Generation != generation {
		return false
	}
	delete(r.sessions, username)
	return true
}

func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[username]
	return session, ok
}

// Snapshot returns a sorted copy of the currently registered usernames.
// The order carries no semantic weight; sorting just makes broadcasts
// and assertions stable.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// Sessions returns a copy of the current session set, for iteration
// outside the lock (liveness sweep, presence broadcast).
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
