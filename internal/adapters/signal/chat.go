package signal

import (
	"context"

	"github.com/dkeye/roomchat/internal/core"
)

func (ctl *SignalWSController) allow(sid core.SessionID) error {
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return core.ErrNoSession
	}
	if !ctl.Limiter.Allow(sess.Meta().User.ID) {
		return core.ErrRateLimited
	}
	return nil
}

func (ctl *SignalWSController) handleSendMessage(ctx context.Context, sid core.SessionID, data []byte) error {
	var p messagePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	code, err := parseRoom(p.Room)
	if err != nil {
		return err
	}
	if err := ctl.allow(sid); err != nil {
		return err
	}
	_, err = ctl.Orch.SendText(ctx, sid, code, p.Content)
	return err
}

func (ctl *SignalWSController) handleTyping(sid core.SessionID, typ string, data []byte) error {
	var p roomPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	code, err := parseRoom(p.Room)
	if err != nil {
		return err
	}
	if typ == TypeStopTyping {
		return ctl.Orch.SendStopTyping(sid, code)
	}
	return ctl.Orch.SendTyping(sid, code)
}

func (ctl *SignalWSController) handleFile(ctx context.Context, sid core.SessionID, data []byte) error {
	var p filePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	code, err := parseRoom(p.Room)
	if err != nil {
		return err
	}
	if err := ctl.allow(sid); err != nil {
		return err
	}
	_, err = ctl.Orch.AttachFile(ctx, sid, code, p.File)
	return err
}
