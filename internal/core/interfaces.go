package core

import "github.com/dkeye/roomchat/internal/domain"

// Frame is a raw encoded event.
type Frame []byte

// SessionID is the opaque id the transport assigns to one live connection.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Avatar   string        `json:"avatar,omitempty"`
}

// RoomService is the live member set of one room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Code() domain.RoomCode
	MemberCount() int
	MembersSnapshot() []MemberDTO
	SessionIDs() []SessionID

	AddMember(sid SessionID, ms MemberSession) bool
	RemoveMember(sid SessionID) bool
	Broadcast(except SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Code          domain.RoomCode `json:"roomCode"`
	MemberCount   int             `json:"client_count"`
	ExpiryPending bool            `json:"expiry_pending"`
}

// RoomRegistry is the narrow fan-out capability handed to the chat and
// expiry paths: who is in a room and how to reach all of them.
type RoomRegistry interface {
	MembersOf(code domain.RoomCode) []SessionID
	Broadcast(code domain.RoomCode, except SessionID, data Frame) PublishResult
}

// RoomManager tracks live occupancy per room code.
// Mutations for one code must be serialized by the caller.
type RoomManager interface {
	RoomRegistry

	Join(code domain.RoomCode, sid SessionID, ms MemberSession) bool
	Leave(code domain.RoomCode, sid SessionID) bool
	IsOccupied(code domain.RoomCode) bool
	Snapshot(code domain.RoomCode) []MemberDTO
	List() []RoomInfo
}
