package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/roomchat/internal/app"
	"github.com/dkeye/roomchat/internal/auth"
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/dkeye/roomchat/internal/store"
)

type testConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *testConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *testConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *testConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// events decodes every frame received so far and clears the buffer.
func (c *testConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var ev map[string]any
		if err := json.Unmarshal(f, &ev); err != nil {
			t.Fatalf("bad frame %q: %v", f, err)
		}
		out = append(out, ev)
	}
	return out
}

func ofType(evs []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, ev := range evs {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

type stubTimer struct {
	f       func()
	stopped bool
}

func (t *stubTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type timerQueue struct {
	mu     sync.Mutex
	timers []*stubTimer
}

func (q *timerQueue) AfterFunc(_ time.Duration, f func()) app.Timer {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &stubTimer{f: f}
	q.timers = append(q.timers, t)
	return t
}

func (q *timerQueue) last(t *testing.T) *stubTimer {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.timers) == 0 {
		t.Fatal("no timer was scheduled")
	}
	return q.timers[len(q.timers)-1]
}

type fixture struct {
	o      *Orchestrator
	store  *store.Store
	tokens *auth.TokenManager
	timers *timerQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	st := store.New(db)
	tokens := auth.NewTokenManager(auth.Config{Secret: "test-secret", Issuer: "roomchat"})
	timers := &timerQueue{}
	o := New(Config{
		Store:     st,
		Gate:      app.NewGate(tokens, st),
		AfterFunc: timers.AfterFunc,
	})
	return &fixture{o: o, store: st, tokens: tokens, timers: timers}
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name)
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func (f *fixture) room(t *testing.T, code domain.RoomCode, creator *domain.User) {
	t.Helper()
	room := &domain.Room{Code: code, CreatedBy: creator.ID, Members: []domain.UserID{creator.ID}, CreatedAt: time.Now().UTC()}
	if err := f.store.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
}

// connect runs the full handshake for u and returns its session id and conn.
func (f *fixture) connect(t *testing.T, u *domain.User, sid core.SessionID) *testConn {
	t.Helper()
	token, err := f.tokens.Issue(u.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	user, err := f.o.Connect(context.Background(), token)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	conn := &testConn{}
	sess := core.NewMemberSession(domain.NewMember(user), conn)
	f.o.Attach(context.Background(), sid, sess, func() {})
	return conn
}

func (f *fixture) join(t *testing.T, sid core.SessionID, code domain.RoomCode) *core.RoomState {
	t.Helper()
	state, err := f.o.Join(context.Background(), sid, code)
	if err != nil {
		t.Fatalf("Join(%s, %s) error = %v", sid, code, err)
	}
	return state
}
