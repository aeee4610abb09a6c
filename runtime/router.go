package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/moderation"
)

var validate = validator.New()

// Router validates, classifies, persists, and delivers inbound frames
// from authenticated sessions. Persistence is queued (write-through,
// best-effort); delivery is direct or fanned out over the group
// directory. Per-sender ordering holds because each connection feeds the
// router sequentially.
type Router struct {
	log        *slog.Logger
	registry   *Registry
	directory  contract.IDirectory
	classifier contract.Classifier
	moderator  *moderation.Moderator
	appends    chan<- domain.Append
	maxLength  int
}

func NewRouter(log *slog.Logger, registry *Registry, directory contract.IDirectory,
	classifier contract.Classifier, moderator *moderation.Moderator,
	appends chan<- domain.Append, maxLength int) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		directory:  directory,
		classifier: classifier,
		moderator:  moderator,
		appends:    appends,
		maxLength:  maxLength,
	}
}

// RouteMessage processes one message frame from an authenticated sender.
// Validation failures answer the sender with an error frame and stop
// there. Offline recipients and unknown groups are silent no-ops.
func (r *Router) RouteMessage(sender *Session, frame domain.MessageFrame) {
	if reason, ok := r.checkMessage(frame); !ok {
		r.reply(sender, domain.NewErrorFrame(reason))
		return
	}

	body := frame.Message
	if r.moderator != nil {
		body = r.moderator.Censor(body)
	}
	mood := domain.MoodForScore(r.classifier.Score(body))
	message := domain.NewMessage(sender.Username, frame.Recipient, body, mood, time.Now().UTC())

	r.enqueueAppend(message)

	outbound := domain.MessageFrame{
		Type:      domain.FrameMessage,
		Sender:    message.Sender,
		Recipient: message.Recipient,
		Message:   message.Body,
		Timestamp: message.CreatedAt.UnixMilli(),
		Mood:      message.Mood,
	}
	if domain.IsGroupRecipient(frame.Recipient) {
		r.fanout(sender.Username, frame.Recipient, outbound)
		return
	}
	r.deliver(frame.Recipient, outbound)
}

// RouteTyping relays a typing indicator with the same recipient
// resolution as messages but without persistence or classification.
func (r *Router) RouteTyping(sender *Session, frame domain.TypingFrame) {
	if frame.Recipient == "" {
		r.reply(sender, domain.NewErrorFrame("Recipient required"))
		return
	}
	outbound := domain.TypingFrame{
		Type:      domain.FrameTyping,
		Sender:    sender.Username,
		Recipient: frame.Recipient,
	}
	if domain.IsGroupRecipient(frame.Recipient) {
		r.fanout(sender.Username, frame.Recipient, outbound)
		return
	}
	r.deliver(frame.Recipient, outbound)
}

func (r *Router) checkMessage(frame domain.MessageFrame) (string, bool) {
	if err := validate.Struct(frame); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			switch errs[0].Field() {
			case "Recipient":
				return "Recipient required", false
			default:
				return "Message body required", false
			}
		}
		return "Invalid message", false
	}
	if len([]rune(frame.Message)) > r.maxLength {
		return fmt.Sprintf("Message exceeds %d characters", r.maxLength), false
	}
	return "", true
}

// enqueueAppend hands the message to the persistence queue. A full queue
// drops the write with a warning: history gaps are a tolerated failure
// mode and must never block delivery.
func (r *Router) enqueueAppend(message domain.Message) {
	job := domain.Append{
		Pair:    domain.NewPairKey(message.Sender, message.Recipient),
		Message: message,
	}
	select {
	case r.appends <- job:
	default:
		r.log.Warn("Persistence queue full, dropping history write",
			"pair", job.Pair, "message_id", message.ID)
	}
}

func (r *Router) deliver(recipient string, frame any) {
	session, online := r.registry.Lookup(recipient)
	if !online {
		return
	}
	if err := session.Peer.Send(frame); err != nil {
		r.log.Warn("Delivery failed", "recipient", recipient, "error", err)
	}
}

// fanout sends the frame to every online member of the group except the
// sender. An unknown group has no members to notify.
func (r *Router) fanout(sender, groupID string, frame any) {
	members := lo.Without(r.directory.Members(groupID), sender)
	for _, member := range members {
		r.deliver(member, frame)
	}
}

func (r *Router) reply(session *Session, frame domain.ErrorFrame) {
	if err := session.Peer.Send(frame); err != nil {
		r.log.Warn("Error frame not delivered", "user", session.Username, "error", err)
	}
}
