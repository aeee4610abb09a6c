package domain

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	apperrors "chat-relay/errors"
)

// Frame type discriminators carried in the "type" field of every wire frame.
const (
	FrameConnect         = "connect"
	FrameConnectResponse = "connect-response"
	FrameMessage         = "message"
	FrameTyping          = "typing"
	FrameUpdateUsers     = "updateUsers"
	FrameError           = "error"
	FramePing            = "ping"
	FramePong            = "pong"
)

type ConnectFrame struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type ConnectResponseFrame struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

type MessageFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Timestamp int64  `json:"timestamp"`
	Mood      Mood   `json:"mood,omitempty"`
}

type TypingFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient" validate:"required"`
}

type UpdateUsersFrame struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PingFrame struct {
	Type string `json:"type"`
}

type PongFrame struct {
	Type string `json:"type"`
}

func NewErrorFrame(reason string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Message: reason}
}

// DecodeFrame turns one raw inbound text frame into its typed form.
// Only client-to-server kinds are accepted; anything undecodable,
// missing its discriminator, or of an unknown kind is a protocol error.
func DecodeFrame(raw []byte) (any, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", apperrors.ErrProtocol)
	}
	kind := gjson.GetBytes(raw, "type")
	if !kind.Exists() {
		return nil, fmt.Errorf("%w: missing type", apperrors.ErrProtocol)
	}

	switch kind.String() {
	case FrameConnect:
		return unmarshalFrame[ConnectFrame](raw)
	case FrameMessage:
		return unmarshalFrame[MessageFrame](raw)
	case FrameTyping:
		return unmarshalFrame[TypingFrame](raw)
	case FramePong:
		return unmarshalFrame[PongFrame](raw)
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", apperrors.ErrProtocol, kind.String())
	}
}

func unmarshalFrame[T any](raw []byte) (T, error) {
	var frame T
	if err := json.Unmarshal(raw, &frame); err != nil {
		return frame, fmt.Errorf("%w: %v", apperrors.ErrProtocol, err)
	}
	return frame, nil
}
