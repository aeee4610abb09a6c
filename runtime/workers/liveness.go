package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-relay/domain"
	"chat-relay/runtime"
)

// LivenessWorker sweeps the registry on a fixed period. A session that
// produced no traffic since the previous sweep is treated as half-open:
// its connection is closed and it is evicted under its own generation,
// so a concurrent disconnect or reconnection is never clobbered. Live
// sessions have their flag cleared and receive a probe frame; any
// inbound frame (a pong included) sets the flag again.
type LivenessWorker struct {
	log      *slog.Logger
	registry *runtime.Registry
	presence *runtime.Presence
	interval time.Duration
}

func NewLivenessWorker(log *slog.Logger, registry *runtime.Registry,
	presence *runtime.Presence, interval time.Duration) *LivenessWorker {
	return &LivenessWorker{log: log, registry: registry, presence: presence, interval: interval}
}

func (w *LivenessWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping liveness monitor")
			return ctx.Err()
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *LivenessWorker) sweep() {
	for _, session := range w.registry.Sessions() {
		if !session.ClearAlive() {
			w.evict(session)
			continue
		}
		if err := session.Peer.Send(domain.PingFrame{Type: domain.FramePing}); err != nil {
			w.log.Debug("Probe not delivered", "user", session.Username, "error", err)
		}
	}
}

func (w *LivenessWorker) evict(session *runtime.Session) {
	w.log.Info("Evicting unresponsive session",
		"user", session.Username, "last_ack", session.LastAck())
	_ = session.Peer.Close()
	if w.registry.Unregister(session.Username, session.Generation) {
		w.presence.Broadcast()
	}
}
