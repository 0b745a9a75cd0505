package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/roomchat/internal/app"
	"github.com/dkeye/roomchat/internal/app/orch"
	"github.com/dkeye/roomchat/internal/auth"
	"github.com/dkeye/roomchat/internal/config"
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/dkeye/roomchat/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type testServer struct {
	srv    *httptest.Server
	store  *store.Store
	tokens *auth.TokenManager
	orch   *orch.Orchestrator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	st := store.New(db)
	tokens := auth.NewTokenManager(auth.Config{Secret: "test-secret", Issuer: "roomchat"})
	o := orch.New(orch.Config{Store: st, Gate: app.NewGate(tokens, st)})
	cfg := &config.Config{
		Mode:       "test",
		Secret:     "cookie-secret",
		PingPeriod: time.Minute,
		ReadLimit:  32768,
		SendBuffer: 32,
		JWT:        config.JWTConfig{Secret: "test-secret"},
		RateLimit:  config.RateLimitConfig{Messages: 100, Interval: time.Second},
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, o, app.NewRoomCatalog(st, st)))
	t.Cleanup(func() {
		o.Shutdown()
		cancel()
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testServer{srv: srv, store: st, tokens: tokens, orch: o}
}

func (ts *testServer) user(t *testing.T, name string) (*domain.User, string) {
	t.Helper()
	u, err := domain.NewUser(name)
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if err := ts.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	token, err := ts.tokens.Issue(u.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return u, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (ts *testServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

// expect reads until an event of type typ arrives, skipping others.
func expect(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var ev map[string]any
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if ev["type"] == typ {
			return ev
		}
	}
}

func TestRouter_RejectsInvalidToken(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/api/ws?token=garbage"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("Dial() error = %v, want ErrBadHandshake", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if n := ts.orch.Registry.Count(); n != 0 {
		t.Errorf("sessions after rejected handshake = %d", n)
	}

	if r := ts.do(t, http.MethodPost, "/api/chat/rooms", "", nil); r.StatusCode != http.StatusUnauthorized {
		t.Errorf("POST /api/chat/rooms without token = %d, want 401", r.StatusCode)
	}
}

func TestRouter_ChatFlow(t *testing.T) {
	ts := newTestServer(t)
	_, aTok := ts.user(t, "A")
	_, bTok := ts.user(t, "B")

	resp := ts.do(t, http.MethodPost, "/api/chat/rooms", aTok, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room status = %d", resp.StatusCode)
	}
	var room domain.Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	if len(room.Code) != domain.RoomCodeLength {
		t.Fatalf("room code = %q", room.Code)
	}

	resp = ts.do(t, http.MethodPost, "/api/chat/rooms/join", bTok, map[string]string{"roomCode": strings.ToLower(string(room.Code))})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join room status = %d", resp.StatusCode)
	}

	a := ts.dial(t, aTok)
	send(t, a, map[string]string{"type": "join_room", "room": string(room.Code)})
	if st := expect(t, a, core.EventRoomState); st["count"] != float64(1) {
		t.Errorf("A room_state = %v", st)
	}

	send(t, a, map[string]string{"type": "whoami"})
	if ev := expect(t, a, "whoami"); ev["username"] != "A" || ev["room"] != string(room.Code) {
		t.Errorf("whoami = %v", ev)
	}
	send(t, a, map[string]string{"type": "ping"})
	expect(t, a, "pong")

	b := ts.dial(t, bTok)
	send(t, b, map[string]string{"type": "join_room", "room": string(room.Code)})
	expect(t, b, core.EventRoomState)
	if ev := expect(t, a, core.EventUserJoined); ev["username"] != "B" {
		t.Errorf("user_joined = %v", ev)
	}

	send(t, b, map[string]string{"type": "send_message", "room": string(room.Code), "content": "hi"})
	for _, conn := range []*websocket.Conn{a, b} {
		ev := expect(t, conn, core.EventReceiveMessage)
		msg := ev["message"].(map[string]any)
		if msg["content"] != "hi" || msg["sender"].(map[string]any)["username"] != "B" {
			t.Errorf("receive_message = %v", msg)
		}
	}

	send(t, a, map[string]string{"type": "send_message", "room": "OTHER1", "content": "x"})
	if ev := expect(t, a, core.EventError); ev["error"] != "not_joined" {
		t.Errorf("error event = %v", ev)
	}
	send(t, a, map[string]string{"type": "join_room"})
	if ev := expect(t, a, core.EventError); ev["error"] != "invalid_payload" || ev["field"] != "room" {
		t.Errorf("error event = %v", ev)
	}

	resp = ts.do(t, http.MethodGet, "/api/chat/rooms/"+string(room.Code)+"/messages", aTok, nil)
	var history []core.MessageRecord
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Content != "hi" || history[0].MessageType != domain.MessageText || history[0].FileURL != "" {
		t.Errorf("history = %+v", history)
	}

	_ = b.Close()
	if ev := expect(t, a, core.EventUserLeft); ev["username"] != "B" {
		t.Errorf("user_left = %v", ev)
	}
	if ts.orch.Expiry.Pending(room.Code) {
		t.Error("expiry pending while A is present")
	}
}

func TestRouter_CookieSession(t *testing.T) {
	ts := newTestServer(t)
	_, tok := ts.user(t, "alice")

	resp := ts.do(t, http.MethodPost, "/api/session", "", map[string]string{"token": tok})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/session status = %d", resp.StatusCode)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/rooms", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	got, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/rooms error = %v", err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Errorf("GET /api/rooms with cookie = %d, want 200", got.StatusCode)
	}

	if r := ts.do(t, http.MethodPost, "/api/session", "", map[string]string{"token": "bogus"}); r.StatusCode != http.StatusUnauthorized {
		t.Errorf("POST /api/session bogus token = %d, want 401", r.StatusCode)
	}
}

func TestRouter_JoinUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	_, tok := ts.user(t, "alice")

	if r := ts.do(t, http.MethodPost, "/api/chat/rooms/join", tok, map[string]string{"roomCode": "ZZZZZZ"}); r.StatusCode != http.StatusNotFound {
		t.Errorf("join unknown room = %d, want 404", r.StatusCode)
	}

	conn := ts.dial(t, tok)
	send(t, conn, map[string]string{"type": "join_room", "room": "ZZZZZZ"})
	if ev := expect(t, conn, core.EventRoomDeleted); ev["roomCode"] != "ZZZZZZ" {
		t.Errorf("room_deleted = %v", ev)
	}
}
