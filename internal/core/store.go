package core

import (
	"context"

	"github.com/dkeye/roomchat/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/dkeye/roomchat/internal/core RoomStore,UserStore,IdentityVerifier

// RoomStore is the durable home of rooms and their messages.
// DeleteRoom and DeleteMessagesForRoom are idempotent: a second call is a no-op.
type RoomStore interface {
	FindRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error)
	CreateRoom(ctx context.Context, room *domain.Room) error
	AddRoomMember(ctx context.Context, code domain.RoomCode, uid domain.UserID) error
	DeleteRoom(ctx context.Context, code domain.RoomCode) error

	CreateMessage(ctx context.Context, msg *domain.Message) error
	DeleteMessagesForRoom(ctx context.Context, code domain.RoomCode) error
	// FindMessagesForRoom returns messages sorted by creation time ascending.
	FindMessagesForRoom(ctx context.Context, code domain.RoomCode) ([]domain.Message, error)
}

// UserStore is the user directory. Registration lives elsewhere.
type UserStore interface {
	FindUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	FindUsers(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*domain.User, error)
	SetOnline(ctx context.Context, id domain.UserID, online bool) error
}

// IdentityVerifier checks a pre-issued bearer token.
type IdentityVerifier interface {
	VerifyToken(token string) (domain.UserID, error)
}
