package app

import (
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(code domain.RoomCode, sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks slow members; their client reconnects and refetches
// history.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(code domain.RoomCode, sid core.SessionID) BackpressureAction {
	return KickMember
}
