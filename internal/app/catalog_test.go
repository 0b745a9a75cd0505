package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/core/mocks"
	"github.com/dkeye/roomchat/internal/domain"
	"go.uber.org/mock/gomock"
)

func TestRoomCatalog_CreateRetriesOnCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockRoomStore(ctrl)
	ctx := context.Background()

	codes := []domain.RoomCode{"TAKEN1", "FRESH1"}
	c := NewRoomCatalog(rooms, mocks.NewMockUserStore(ctrl))
	c.newCode = func() (domain.RoomCode, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	gomock.InOrder(
		rooms.EXPECT().CreateRoom(ctx, gomock.Any()).Return(core.ErrRoomCodeTaken),
		rooms.EXPECT().CreateRoom(ctx, gomock.Any()).Return(nil),
	)

	room, err := c.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if room.Code != "FRESH1" || room.CreatedBy != "u1" || !room.HasMember("u1") {
		t.Errorf("Create() = %+v", room)
	}
}

func TestRoomCatalog_CreateGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockRoomStore(ctrl)
	rooms.EXPECT().CreateRoom(gomock.Any(), gomock.Any()).Return(core.ErrRoomCodeTaken).Times(maxCodeAttempts)

	c := NewRoomCatalog(rooms, mocks.NewMockUserStore(ctrl))
	c.newCode = func() (domain.RoomCode, error) { return "SAME00", nil }

	if _, err := c.Create(context.Background(), "u1"); !errors.Is(err, core.ErrRoomCodeTaken) {
		t.Errorf("Create() error = %v, want ErrRoomCodeTaken", err)
	}
}

func TestRoomCatalog_JoinUnknownRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockRoomStore(ctrl)
	rooms.EXPECT().AddRoomMember(gomock.Any(), domain.RoomCode("NOPE00"), domain.UserID("u1")).Return(core.ErrRoomNotFound)

	_, err := NewRoomCatalog(rooms, mocks.NewMockUserStore(ctrl)).Join(context.Background(), "NOPE00", "u1")
	if !errors.Is(err, core.ErrRoomNotFound) {
		t.Errorf("Join() error = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomCatalog_HistoryPopulatesSenders(t *testing.T) {
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockRoomStore(ctrl)
	users := mocks.NewMockUserStore(ctrl)
	ctx := context.Background()
	now := time.Now().UTC()

	rooms.EXPECT().FindRoom(ctx, domain.RoomCode("AB12CD")).Return(&domain.Room{Code: "AB12CD"}, nil)
	rooms.EXPECT().FindMessagesForRoom(ctx, domain.RoomCode("AB12CD")).Return([]domain.Message{
		*domain.NewTextMessage("AB12CD", "u1", "hi", now),
		*domain.NewTextMessage("AB12CD", "u2", "yo", now.Add(time.Second)),
		*domain.NewTextMessage("AB12CD", "u1", "again", now.Add(2*time.Second)),
	}, nil)
	users.EXPECT().FindUsers(ctx, []domain.UserID{"u1", "u2"}).Return(map[domain.UserID]*domain.User{
		"u1": {ID: "u1", Username: "alice"},
	}, nil)

	got, err := NewRoomCatalog(rooms, users).History(ctx, "AB12CD")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("History() len = %d, want 3", len(got))
	}
	if got[0].Sender.Username != "alice" || got[0].Content != "hi" {
		t.Errorf("History()[0] = %+v", got[0])
	}
	if got[1].Sender.ID != "u2" || got[1].Sender.Username != "" {
		t.Errorf("deleted sender should keep only id, got %+v", got[1].Sender)
	}
}
