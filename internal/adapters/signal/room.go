package signal

import (
	"context"
	"errors"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog/log"
)

type leftEvent struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data []byte) error {
	var p roomPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	code, err := parseRoom(p.Room)
	if err != nil {
		return err
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("join")
	state, err := ctl.Orch.Join(ctx, sid, code)
	if errors.Is(err, core.ErrRoomNotFound) {
		// The client already got room_deleted.
		return nil
	}
	if err != nil {
		return err
	}
	ctl.sendJSON(conn, state)
	return nil
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, conn *WsSignalConn, data []byte) error {
	var p leavePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	var code domain.RoomCode
	if p.Room != "" {
		var err error
		if code, err = parseRoom(p.Room); err != nil {
			return err
		}
	}
	cur, _, _ := ctl.Orch.Registry.RoomOf(sid)
	if err := ctl.Orch.Leave(sid, code); err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(cur)).Msg("leave")
	ctl.sendJSON(conn, leftEvent{Type: core.EventLeft, RoomCode: cur})
	return nil
}
