package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxCodeAttempts = 5

// RoomCatalog manages durable room records and history for the HTTP side.
type RoomCatalog struct {
	rooms core.RoomStore
	users core.UserStore
	// newCode is swapped in tests to force collisions.
	newCode func() (domain.RoomCode, error)
}

func NewRoomCatalog(rooms core.RoomStore, users core.UserStore) *RoomCatalog {
	return &RoomCatalog{rooms: rooms, users: users, newCode: domain.GenerateRoomCode}
}

// Create makes a room with a fresh code; the creator is its first member.
func (c *RoomCatalog) Create(ctx context.Context, creator domain.UserID) (*domain.Room, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := c.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		room := &domain.Room{
			Code:      code,
			CreatedBy: creator,
			Members:   []domain.UserID{creator},
			CreatedAt: time.Now().UTC(),
		}
		err = c.rooms.CreateRoom(ctx, room)
		if errors.Is(err, core.ErrRoomCodeTaken) {
			log.Warn().Str("module", "app.catalog").Str("room", string(code)).Int("attempt", attempt).Msg("room code collision")
			continue
		}
		if err != nil {
			return nil, core.Persistence("create room", err)
		}
		log.Info().Str("module", "app.catalog").Str("room", string(code)).Str("user", string(creator)).Msg("room created")
		return room, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", core.ErrRoomCodeTaken, maxCodeAttempts)
}

// Join records uid as a member of the room and returns the updated record.
func (c *RoomCatalog) Join(ctx context.Context, code domain.RoomCode, uid domain.UserID) (*domain.Room, error) {
	if err := c.rooms.AddRoomMember(ctx, code, uid); err != nil {
		return nil, core.Persistence("add room member", err)
	}
	room, err := c.rooms.FindRoom(ctx, code)
	if err != nil {
		return nil, core.Persistence("find room", err)
	}
	return room, nil
}

// History returns the room's messages oldest first with senders populated.
func (c *RoomCatalog) History(ctx context.Context, code domain.RoomCode) ([]core.MessageRecord, error) {
	if _, err := c.rooms.FindRoom(ctx, code); err != nil {
		return nil, core.Persistence("find room", err)
	}
	msgs, err := c.rooms.FindMessagesForRoom(ctx, code)
	if err != nil {
		return nil, core.Persistence("find messages", err)
	}
	seen := make(map[domain.UserID]struct{}, len(msgs))
	ids := make([]domain.UserID, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.Sender]; !ok {
			seen[m.Sender] = struct{}{}
			ids = append(ids, m.Sender)
		}
	}
	senders, err := c.users.FindUsers(ctx, ids)
	if err != nil {
		return nil, core.Persistence("find users", err)
	}
	out := make([]core.MessageRecord, 0, len(msgs))
	for i := range msgs {
		out = append(out, core.NewMessageRecord(&msgs[i], senders[msgs[i].Sender]))
	}
	return out, nil
}
