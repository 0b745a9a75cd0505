package orch

import (
	"context"
	"strings"

	"github.com/dkeye/roomchat/internal/attachment"
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog/log"
)

// MaxContentLen bounds the text of one message, in bytes.
const MaxContentLen = 4000

func (o *Orchestrator) joined(sid core.SessionID, code domain.RoomCode) (core.MemberSession, error) {
	cur, sess, ok := o.Registry.RoomOf(sid)
	if !ok || cur != code {
		return nil, core.ErrNotJoined
	}
	return sess, nil
}

// SendText persists a text message and broadcasts it to every member,
// sender included.
func (o *Orchestrator) SendText(ctx context.Context, sid core.SessionID, code domain.RoomCode, content string) (*core.MessageRecord, error) {
	if strings.TrimSpace(content) == "" {
		return nil, core.NewValidationError("content", "is required")
	}
	if len(content) > MaxContentLen {
		return nil, core.NewValidationError("content", "is too long")
	}
	sess, err := o.joined(sid, code)
	if err != nil {
		return nil, err
	}
	user := sess.Meta().User
	return o.publish(ctx, code, user, domain.NewTextMessage(code, user.ID, content, o.now()))
}

// AttachFile turns an uploaded attachment into a message and broadcasts it.
func (o *Orchestrator) AttachFile(ctx context.Context, sid core.SessionID, code domain.RoomCode, meta attachment.Meta) (*core.MessageRecord, error) {
	if err := attachment.Validate(meta, o.maxAttachmentBytes); err != nil {
		return nil, err
	}
	sess, err := o.joined(sid, code)
	if err != nil {
		return nil, err
	}
	user := sess.Meta().User
	msgType, fileType := attachment.Classify(meta.MIME)
	att := domain.Attachment{URL: meta.URL, Name: attachment.SanitizeName(meta.Name), Kind: fileType}
	return o.publish(ctx, code, user, domain.NewFileMessage(code, user.ID, att, msgType, o.now()))
}

// publish persists then broadcasts under the room lock, so every member
// sees messages in persistence order. Nothing is sent if the write fails.
func (o *Orchestrator) publish(ctx context.Context, code domain.RoomCode, sender *domain.User, msg *domain.Message) (*core.MessageRecord, error) {
	unlock := o.Locks.Lock(code)
	defer unlock()
	// Stamped under the lock so timestamps follow persistence order.
	msg.CreatedAt = o.now()

	ctx, cancel := o.opContext(ctx)
	defer cancel()
	if err := o.Store.CreateMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(code)).Msg("failed to persist message")
		return nil, core.Persistence("create message", err)
	}
	rec := core.NewMessageRecord(msg, sender)
	res := o.broadcast(code, "", core.ReceiveMessage(rec))
	log.Debug().Str("module", "orch").Str("room", string(code)).Str("message_id", msg.ID).Int("sent_to", res.SendTo).Msg("message published")
	return &rec, nil
}

// SendTyping relays a typing indicator to the other members only.
func (o *Orchestrator) SendTyping(sid core.SessionID, code domain.RoomCode) error {
	return o.relayTyping(sid, code, core.EventUserTyping)
}

func (o *Orchestrator) SendStopTyping(sid core.SessionID, code domain.RoomCode) error {
	return o.relayTyping(sid, code, core.EventUserStopTyping)
}

func (o *Orchestrator) relayTyping(sid core.SessionID, code domain.RoomCode, typ string) error {
	sess, err := o.joined(sid, code)
	if err != nil {
		return err
	}
	o.broadcast(code, sid, core.TypingEvent{Type: typ, Username: sess.Meta().User.Username})
	return nil
}
