// Package domain contains core concepts of the messaging engine.
// Messages are immutable values: created once per send, never mutated.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupPrefix marks a recipient identifier as a group.
const GroupPrefix = "#"

// Message represents one routed chat message.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Recipient string
	Body      string
	Mood      Mood
	CreatedAt time.Time
}

func NewMessage(sender, recipient, body string, mood Mood, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Body:      body,
		Mood:      mood,
		CreatedAt: at,
	}
}

// IsGroupRecipient reports whether the identifier addresses a group
// rather than a single username.
func IsGroupRecipient(recipient string) bool {
	return len(recipient) > 0 && recipient[:1] == GroupPrefix
}
