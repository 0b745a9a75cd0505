package signal

import (
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, conn *WsSignalConn) {
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		ctl.sendError(conn, core.ErrNoSession)
		return
	}
	user := sess.Meta().User

	resp := struct {
		Type     string          `json:"type"`
		ID       domain.UserID   `json:"id"`
		Username string          `json:"username"`
		Room     domain.RoomCode `json:"room,omitempty"`
	}{
		Type:     "whoami",
		ID:       user.ID,
		Username: user.Username,
	}
	if code, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = code
	}
	ctl.sendJSON(conn, resp)
}
