package orch

import (
	"context"
	"errors"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Connect authenticates a connection attempt. No session exists until
// Attach is called with the returned user.
func (o *Orchestrator) Connect(ctx context.Context, token string) (*domain.User, error) {
	ctx, cancel := o.opContext(ctx)
	defer cancel()
	user, err := o.Gate.Authenticate(ctx, token)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Msg("connection rejected")
		return nil, err
	}
	return user, nil
}

// Attach binds an authenticated session and marks its user online.
func (o *Orchestrator) Attach(ctx context.Context, sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	o.presenceMu.Lock()
	defer o.presenceMu.Unlock()
	o.Registry.BindSession(sid, sess, cancel)
	ctx, done := o.opContext(ctx)
	defer done()
	o.Gate.MarkOnline(ctx, sess.Meta().User)
}

// Join puts sid into code, leaving its previous room first.
func (o *Orchestrator) Join(ctx context.Context, sid core.SessionID, code domain.RoomCode) (*core.RoomState, error) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil, core.ErrNoSession
	}
	if cur, _, ok := o.Registry.RoomOf(sid); ok {
		if cur == code {
			unlock := o.Locks.Lock(code)
			defer unlock()
			return o.roomState(code), nil
		}
		o.leave(sid, sess, cur)
	}

	unlock := o.Locks.Lock(code)
	defer unlock()

	user := sess.Meta().User
	ctx, cancel := o.opContext(ctx)
	defer cancel()
	if err := o.Store.AddRoomMember(ctx, code, user.ID); err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("join to deleted room")
			o.SendTo(sess, core.RoomDeleted(code))
			return nil, core.ErrRoomNotFound
		}
		return nil, core.Persistence("add room member", err)
	}

	o.Rooms.Join(code, sid, sess)
	o.Registry.UpdateRoom(sid, code)
	o.Expiry.Cancel(code)
	o.broadcast(code, sid, core.UserJoined(user.Username))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("joined room")
	return o.roomState(code), nil
}

func (o *Orchestrator) roomState(code domain.RoomCode) *core.RoomState {
	members := o.Rooms.Snapshot(code)
	return &core.RoomState{Type: core.EventRoomState, RoomCode: code, Members: members, Count: len(members)}
}

// Leave removes sid from code. An empty code means the current room.
func (o *Orchestrator) Leave(sid core.SessionID, code domain.RoomCode) error {
	cur, sess, ok := o.Registry.RoomOf(sid)
	if !ok || (code != "" && cur != code) {
		return core.ErrNotJoined
	}
	o.leave(sid, sess, cur)
	return nil
}

func (o *Orchestrator) leave(sid core.SessionID, sess core.MemberSession, code domain.RoomCode) {
	unlock := o.Locks.Lock(code)
	defer unlock()

	o.Registry.RemoveRoom(sid)
	if !o.Rooms.Leave(code, sid) {
		return
	}
	o.broadcast(code, "", core.UserLeft(sess.Meta().User.Username))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("left room")
	if !o.Rooms.IsOccupied(code) {
		o.Expiry.Start(code)
	}
}

// OnDisconnect is the implicit leave when a connection ends. The user is
// marked offline once no other session of theirs remains.
func (o *Orchestrator) OnDisconnect(ctx context.Context, sid core.SessionID) {
	if code, sess, ok := o.Registry.RoomOf(sid); ok {
		o.leave(sid, sess, code)
	}

	o.presenceMu.Lock()
	defer o.presenceMu.Unlock()
	sess, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	uid := sess.Meta().User.ID
	if o.Registry.SessionsOfUser(uid) == 0 {
		ctx, cancel := o.opContext(ctx)
		defer cancel()
		o.Gate.Release(ctx, uid)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(uid)).Msg("disconnected")
}

// KickBySID closes the connection; its read pump then runs OnDisconnect.
// Safe to call with a room lock held.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	o.Registry.Cancel(sid)
	sess.Signal().Close()
}
