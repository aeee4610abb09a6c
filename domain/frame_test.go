package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "chat-relay/errors"
)

func TestDecodeFrame_Typed_Client_Frames(t *testing.T) {
	req := require.New(t)

	frame, err := DecodeFrame([]byte(`{"type":"connect","username":"alice"}`))
	req.NoError(err)
	req.Equal(ConnectFrame{Type: FrameConnect, Username: "alice"}, frame)

	frame, err = DecodeFrame([]byte(`{"type":"message","recipient":"bob","message":"hi"}`))
	req.NoError(err)
	message := frame.(MessageFrame)
	req.Equal("bob", message.Recipient)
	req.Equal("hi", message.Message)

	frame, err = DecodeFrame([]byte(`{"type":"typing","recipient":"bob"}`))
	req.NoError(err)
	req.Equal("bob", frame.(TypingFrame).Recipient)

	_, err = DecodeFrame([]byte(`{"type":"pong"}`))
	req.NoError(err)
}

func TestDecodeFrame_Protocol_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid JSON", raw: `{"type":`},
		{name: "missing type", raw: `{"username":"alice"}`},
		{name: "unknown type", raw: `{"type":"teleport"}`},
		{name: "server-only type from client", raw: `{"type":"updateUsers","users":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.raw))
			require.ErrorIs(t, err, apperrors.ErrProtocol)
		})
	}
}

func TestMoodForScore_Threshold_Policy(t *testing.T) {
	req := require.New(t)

	req.Equal(MoodHappy, MoodForScore(2.5))
	req.Equal(MoodNeutral, MoodForScore(2))
	req.Equal(MoodNeutral, MoodForScore(0))
	req.Equal(MoodAngry, MoodForScore(-0.5))
	req.Equal(MoodAngry, MoodForScore(-2))
	req.Equal(MoodSad, MoodForScore(-2.5))
}

func TestPairKey_Is_Direction_Agnostic(t *testing.T) {
	req := require.New(t)

	req.Equal(NewPairKey("alice", "bob"), NewPairKey("bob", "alice"))

	left, right := NewPairKey("bob", "alice").Users()
	req.Equal("alice", left)
	req.Equal("bob", right)
}

func TestIsGroupRecipient(t *testing.T) {
	req := require.New(t)

	req.True(IsGroupRecipient("#team"))
	req.False(IsGroupRecipient("alice"))
	req.False(IsGroupRecipient(""))
}
