package runtime

import (
	"sync"
	"time"

	"chat-relay/contract"
)

// Session is the server-side record of one authenticated connection.
// It is owned by the registry entry for its username and destroyed on
// disconnect or liveness timeout. The generation disambiguates a session
// from a later reconnection under the same username.
type Session struct {
	Username   string
	Peer       contract.Peer
	Generation uint64

	mu      sync.Mutex
	alive   bool
	lastAck time.Time
}

func newSession(username string, peer contract.Peer, generation uint64) *Session {
	return &Session{
		Username:   username,
		Peer:       peer,
		Generation: generation,
		alive:      true,
		lastAck:    time.Now().UTC(),
	}
}

// MarkAlive records proof of life: a probe acknowledgment or any other
// inbound traffic from the connection.
func (s *Session) MarkAlive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = true
	s.lastAck = time.Now().UTC()
}

// ClearAlive flips the liveness flag to false and reports whether the
// session was alive before the call. The liveness monitor calls this once
// per cycle: a false return means no traffic arrived since the last probe.
func (s *Session) ClearAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.alive
	s.alive = false
	return was
}

func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// LastAck returns the time of the most recent proof of life.
func (s *Session) LastAck() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAck
}
