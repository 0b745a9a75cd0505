package app

import (
	"context"
	"testing"
)

func TestRegistry_BindRoomUnbind(t *testing.T) {
	reg := NewRegistry()
	sess, _ := newSession("u1", "alice")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg.BindSession("s1", sess, cancel)
	if _, _, ok := reg.RoomOf("s1"); ok {
		t.Fatal("RoomOf() ok before joining")
	}
	if !reg.UpdateRoom("s1", "AB12CD") {
		t.Fatal("UpdateRoom() = false for bound session")
	}
	code, got, ok := reg.RoomOf("s1")
	if !ok || code != "AB12CD" || got != sess {
		t.Errorf("RoomOf() = %q, %v, %v", code, got, ok)
	}

	reg.RemoveRoom("s1")
	if _, _, ok := reg.RoomOf("s1"); ok {
		t.Error("RoomOf() ok after RemoveRoom")
	}

	if !reg.Cancel("s1") {
		t.Error("Cancel() = false for bound session")
	}
	if ctx.Err() == nil {
		t.Error("connection context not canceled")
	}

	if _, ok := reg.Unbind("s1"); !ok {
		t.Error("Unbind() = false for bound session")
	}
	if _, ok := reg.GetSession("s1"); ok {
		t.Error("GetSession() ok after Unbind")
	}
	if reg.UpdateRoom("s1", "AB12CD") {
		t.Error("UpdateRoom() = true after Unbind")
	}
}

func TestRegistry_SessionsOfUser(t *testing.T) {
	reg := NewRegistry()
	a1, _ := newSession("u1", "alice")
	a2, _ := newSession("u1", "alice")
	b, _ := newSession("u2", "bob")
	reg.BindSession("s1", a1, nil)
	reg.BindSession("s2", a2, nil)
	reg.BindSession("s3", b, nil)

	if n := reg.SessionsOfUser("u1"); n != 2 {
		t.Errorf("SessionsOfUser(u1) = %d, want 2", n)
	}
	reg.Unbind("s1")
	if n := reg.SessionsOfUser("u1"); n != 1 {
		t.Errorf("SessionsOfUser(u1) = %d, want 1", n)
	}
	if reg.Count() != 2 || len(reg.SessionIDs()) != 2 {
		t.Errorf("Count() = %d, SessionIDs() = %v, want 2", reg.Count(), reg.SessionIDs())
	}
}
