// Package ws exposes the duplex frame endpoint. Each accepted
// connection runs its own handler goroutine that reads and processes
// frames sequentially, which is what yields the per-sender ordering
// guarantee downstream.
package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/runtime"
)

type Server struct {
	log          *slog.Logger
	registry     *runtime.Registry
	presence     *runtime.Presence
	router       *runtime.Router
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

func NewServer(log *slog.Logger, registry *runtime.Registry, presence *runtime.Presence,
	router *runtime.Router, writeTimeout time.Duration) *Server {
	return &Server{
		log:      log,
		registry: registry,
		presence: presence,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced upstream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.handle(conn)
}

// handle is the per-connection session loop. It starts unauthenticated;
// a successful connect frame registers the session, and from then on
// frames flow through the router. Any exit path unregisters the session
// under its own generation and announces the membership change.
func (s *Server) handle(conn *websocket.Conn) {
	p := newPeer(conn, s.writeTimeout)
	var session *runtime.Session

	defer func() {
		_ = p.Close()
		if session != nil && s.registry.Unregister(session.Username, session.Generation) {
			s.log.Info("Client disconnected", "user", session.Username, "remote", p.RemoteAddr())
			s.presence.Broadcast()
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		frame, err := domain.DecodeFrame(raw)
		if err != nil {
			s.log.Debug("Protocol error", "remote", p.RemoteAddr(), "error", err)
			s.send(p, domain.NewErrorFrame("Invalid frame"))
			continue
		}

		// Any decoded inbound frame proves the connection is live.
		if session != nil {
			session.MarkAlive()
		}

		switch f := frame.(type) {
		case domain.ConnectFrame:
			done := s.handleConnect(p, &session, f)
			if done {
				return
			}
		case domain.PongFrame:
			// Probe acknowledgment; MarkAlive above already did the work.
		case domain.MessageFrame:
			if session == nil {
				s.send(p, domain.NewErrorFrame("Not authenticated"))
				continue
			}
			s.router.RouteMessage(session, f)
		case domain.TypingFrame:
			if session == nil {
				s.send(p, domain.NewErrorFrame("Not authenticated"))
				continue
			}
			s.router.RouteTyping(session, f)
		}
	}
}

// handleConnect runs the handshake transition. It reports true when the
// connection must be closed (invalid or duplicate username).
func (s *Server) handleConnect(p *peer, session **runtime.Session, frame domain.ConnectFrame) bool {
	if *session != nil {
		s.send(p, domain.NewErrorFrame("Already authenticated"))
		return false
	}
	if frame.Username == "" {
		s.send(p, domain.NewErrorFrame("Valid username required"))
		return true
	}

	registered, err := s.registry.Register(frame.Username, p)
	if errors.Is(err, apperrors.ErrDuplicateUsername) {
		// The pre-existing session under this name is untouched.
		s.send(p, domain.NewErrorFrame("Username already taken"))
		return true
	}

	*session = registered
	s.send(p, domain.ConnectResponseFrame{
		Type:     domain.FrameConnectResponse,
		Success:  true,
		Username: frame.Username,
	})
	s.log.Info("Client connected", "user", frame.Username, "remote", p.RemoteAddr())
	s.presence.Broadcast()
	return false
}

func (s *Server) send(p *peer, frame any) {
	if err := p.Send(frame); err != nil {
		s.log.Debug("Write failed", "remote", p.RemoteAddr(), "error", err)
	}
}
