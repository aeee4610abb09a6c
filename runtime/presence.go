package runtime

import (
	"log/slog"

	"chat-relay/domain"
)

// Presence broadcasts registry membership changes to every active
// session. Best-effort fan-out: a peer that fails to take the write is
// logged and skipped, never aborting the loop. Cost is O(sessions) per
// change; frequent churn means proportionally frequent full-list
// broadcasts, a known scalability boundary.
type Presence struct {
	log      *slog.Logger
	registry *Registry
}

func NewPresence(log *slog.Logger, registry *Registry) *Presence {
	return &Presence{log: log, registry: registry}
}

// Broadcast sends the current online-user snapshot to every session
// whose connection still accepts writes.
func (p *Presence) Broadcast() {
	frame := domain.UpdateUsersFrame{
		Type:  domain.FrameUpdateUsers,
		Users: p.registry.Snapshot(),
	}
	for _, session := range p.registry.Sessions() {
		if err := session.Peer.Send(frame); err != nil {
			p.log.Warn("Presence update not delivered",
				"user", session.Username, "error", err)
		}
	}
}
