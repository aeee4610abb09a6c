package runtime

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

type fixedClassifier struct {
	score float64
}

func (c fixedClassifier) Score(string) float64 { return c.score }

type routerFixture struct {
	router  *Router
	sender  *Session
	senders *stubPeer
	appends chan domain.Append
}

func newRouterFixture(t *testing.T, score float64, groups map[string][]string) *routerFixture {
	t.Helper()
	req := require.New(t)

	registry := NewRegistry()
	appends := make(chan domain.Append, 16)
	router := NewRouter(slog.Default(), registry, NewDirectory(groups),
		fixedClassifier{score: score}, nil, appends, 5000)

	senderPeer := &stubPeer{}
	sender, err := registry.Register("alice", senderPeer)
	req.NoError(err)

	return &routerFixture{router: router, sender: sender, senders: senderPeer, appends: appends}
}

func (f *routerFixture) connect(t *testing.T, username string) *stubPeer {
	t.Helper()
	peer := &stubPeer{}
	_, err := f.router.registry.Register(username, peer)
	require.NoError(t, err)
	return peer
}

func TestRouter_Direct_Message_To_Online_Recipient(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 3, nil)
	bob := f.connect(t, "bob")

	// When alice sends a positive message to bob
	f.router.RouteMessage(f.sender, domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "bob", Message: "I love this!",
	})

	// Then bob receives exactly one frame with the mood attached
	req.Len(bob.frames, 1)
	delivered := bob.frames[0].(domain.MessageFrame)
	req.Equal("alice", delivered.Sender)
	req.Equal("I love this!", delivered.Message)
	req.Equal(domain.MoodHappy, delivered.Mood)
	req.NotZero(delivered.Timestamp)

	// And the write-through job was enqueued for the shared pair
	req.Len(f.appends, 1)
	job := <-f.appends
	req.Equal(domain.NewPairKey("alice", "bob"), job.Pair)
	req.Equal("I love this!", job.Message.Body)

	// And the sender got no echo or error
	req.Empty(f.senders.frames)
}

func TestRouter_Direct_Message_To_Offline_Recipient_Still_Persists(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 0, nil)

	// When alice messages someone who is not connected
	f.router.RouteMessage(f.sender, domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "bob", Message: "are you there?",
	})

	// Then nothing is delivered and no error reaches the sender
	req.Empty(f.senders.frames)

	// But history still gets the append
	req.Len(f.appends, 1)
	req.Equal(domain.NewPairKey("bob", "alice"), (<-f.appends).Pair)
}

func TestRouter_Group_Fanout_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 0, map[string][]string{
		"#team": {"alice", "bob", "carol", "dave"},
	})
	bob := f.connect(t, "bob")
	carol := f.connect(t, "carol")
	// dave is a member but offline

	f.router.RouteMessage(f.sender, domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "#team", Message: "standup time",
	})

	req.Len(bob.frames, 1)
	req.Len(carol.frames, 1)
	req.Empty(f.senders.frames)
	req.Equal("alice", bob.frames[0].(domain.MessageFrame).Sender)
}

func TestRouter_Unknown_Group_Is_Silent_Noop(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 0, nil)

	f.router.RouteMessage(f.sender, domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "#ghosts", Message: "anyone home?",
	})

	req.Empty(f.senders.frames)
	// The message is still written through to history
	req.Len(f.appends, 1)
}

func TestRouter_Validation_Failures_Answer_The_Sender(t *testing.T) {
	tests := []struct {
		name   string
		frame  domain.MessageFrame
		reason string
	}{
		{
			name:   "missing recipient",
			frame:  domain.MessageFrame{Type: domain.FrameMessage, Message: "hi"},
			reason: "Recipient required",
		},
		{
			name:   "empty body",
			frame:  domain.MessageFrame{Type: domain.FrameMessage, Recipient: "bob"},
			reason: "Message body required",
		},
		{
			name: "oversized body",
			frame: domain.MessageFrame{
				Type: domain.FrameMessage, Recipient: "bob",
				Message: strings.Repeat("x", 5001),
			},
			reason: "Message exceeds 5000 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f := newRouterFixture(t, 0, nil)
			bob := f.connect(t, "bob")

			f.router.RouteMessage(f.sender, tt.frame)

			req.Len(f.senders.frames, 1)
			req.Equal(tt.reason, f.senders.frames[0].(domain.ErrorFrame).Message)
			req.Empty(bob.frames)
			req.Empty(f.appends)
		})
	}
}

func TestRouter_Mood_Thresholds(t *testing.T) {
	tests := []struct {
		score float64
		mood  domain.Mood
	}{
		{score: 3, mood: domain.MoodHappy},
		{score: 2, mood: domain.MoodNeutral},
		{score: 0, mood: domain.MoodNeutral},
		{score: -1, mood: domain.MoodAngry},
		{score: -2, mood: domain.MoodAngry},
		{score: -3, mood: domain.MoodSad},
	}

	for _, tt := range tests {
		req := require.New(t)
		f := newRouterFixture(t, tt.score, nil)
		bob := f.connect(t, "bob")

		f.router.RouteMessage(f.sender, domain.MessageFrame{
			Type: domain.FrameMessage, Recipient: "bob", Message: "whatever",
		})

		req.Len(bob.frames, 1)
		req.Equal(tt.mood, bob.frames[0].(domain.MessageFrame).Mood)
	}
}

func TestRouter_Typing_Is_Relayed_Without_Persistence(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 0, nil)
	bob := f.connect(t, "bob")

	f.router.RouteTyping(f.sender, domain.TypingFrame{
		Type: domain.FrameTyping, Recipient: "bob",
	})

	req.Len(bob.frames, 1)
	relayed := bob.frames[0].(domain.TypingFrame)
	req.Equal("alice", relayed.Sender)
	req.Empty(f.appends)
}
