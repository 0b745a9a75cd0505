package app

import (
	"sync"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
)

// RoomManagerImpl holds the live member set of every occupied room.
// A room's entry exists only while it has members.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]core.RoomService
}

func NewRoomManager() *RoomManagerImpl {
	return &RoomManagerImpl{rooms: make(map[domain.RoomCode]core.RoomService)}
}

func (f *RoomManagerImpl) get(code domain.RoomCode) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[code]
	return room, ok
}

func (f *RoomManagerImpl) getOrCreate(code domain.RoomCode) core.RoomService {
	if room, ok := f.get(code); ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[code]; ok {
		return room
	}
	room := core.NewRoomService(code)
	f.rooms[code] = room
	return room
}

// Join adds sid to the room; it reports false if sid was already there.
func (f *RoomManagerImpl) Join(code domain.RoomCode, sid core.SessionID, ms core.MemberSession) bool {
	return f.getOrCreate(code).AddMember(sid, ms)
}

// Leave removes sid and drops the room entry once it is empty.
func (f *RoomManagerImpl) Leave(code domain.RoomCode, sid core.SessionID) bool {
	room, ok := f.get(code)
	if !ok {
		return false
	}
	removed := room.RemoveMember(sid)
	if room.MemberCount() == 0 {
		f.mu.Lock()
		if cur, ok := f.rooms[code]; ok && cur == room && cur.MemberCount() == 0 {
			delete(f.rooms, code)
		}
		f.mu.Unlock()
	}
	return removed
}

// IsOccupied is evaluated at call time; do not cache the answer.
func (f *RoomManagerImpl) IsOccupied(code domain.RoomCode) bool {
	room, ok := f.get(code)
	return ok && room.MemberCount() > 0
}

func (f *RoomManagerImpl) MembersOf(code domain.RoomCode) []core.SessionID {
	room, ok := f.get(code)
	if !ok {
		return nil
	}
	return room.SessionIDs()
}

func (f *RoomManagerImpl) Snapshot(code domain.RoomCode) []core.MemberDTO {
	room, ok := f.get(code)
	if !ok {
		return []core.MemberDTO{}
	}
	return room.MembersSnapshot()
}

func (f *RoomManagerImpl) Broadcast(code domain.RoomCode, except core.SessionID, data core.Frame) core.PublishResult {
	room, ok := f.get(code)
	if !ok {
		return core.PublishResult{}
	}
	return room.Broadcast(except, data)
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for code, r := range f.rooms {
		out = append(out, core.RoomInfo{Code: code, MemberCount: r.MemberCount()})
	}
	return out
}
