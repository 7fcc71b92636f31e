package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/pinpoint/internal/game"
	"github.com/kiliankoe/pinpoint/internal/transcript"
)

type emitted struct {
	event string
	args  []any
}

// fakeConn implements the parts of socketio.Conn the handlers use.
type fakeConn struct {
	socketio.Conn
	id string

	mu    sync.Mutex
	ctx   any
	rooms map[string]bool
	out   []emitted
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, ctx: &ConnCtx{}, rooms: map[string]bool{}}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Context() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func (c *fakeConn) SetContext(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = v
}

func (c *fakeConn) Emit(event string, v ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, emitted{event: event, args: v})
}

func (c *fakeConn) Join(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

func (c *fakeConn) Leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

func (c *fakeConn) events(name string) []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []emitted
	for _, e := range c.out {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

// waitFor polls until cond holds or fails the test after a second.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func lastView(t *testing.T, c *fakeConn) transcript.View {
	t.Helper()
	states := c.events("game:state")
	if len(states) == 0 {
		t.Fatal("no game:state emitted")
	}
	v, ok := states[len(states)-1].args[0].(transcript.View)
	if !ok {
		t.Fatalf("unexpected payload %T", states[len(states)-1].args[0])
	}
	return v
}

func newTestServer(t *testing.T, reply game.Answer) *Server {
	t.Helper()
	rm, err := game.NewRoomManager(game.Options{
		Oracle: game.AskerFunc(func(ctx context.Context, question, secret string, mode game.Mode) game.Answer {
			return reply
		}),
	})
	if err != nil {
		t.Fatalf("room manager: %v", err)
	}
	return New(rm)
}

func TestStart(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	c := newFakeConn("a")

	ack := srv.onStart(c, startPayload{Mode: "city", TZ: "Asia/Tokyo"})
	id, _ := ack["gameId"].(string)
	if id == "" {
		t.Fatalf("expected game id in ack, got %v", ack)
	}
	if srv.gameID(c) != id || !c.rooms[id] {
		t.Fatal("connection should be bound to the new game")
	}
	v := lastView(t, c)
	if v.GameID != id || v.Mode != game.ModeCity || v.Placeholder == nil {
		t.Fatalf("unexpected initial view %+v", v)
	}
}

func TestStartInvalidMode(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	c := newFakeConn("a")

	ack := srv.onStart(c, startPayload{Mode: "galaxy"})
	if ack["error"] == nil {
		t.Fatalf("expected error ack, got %v", ack)
	}
	if len(c.events("error")) != 1 {
		t.Fatal("expected an error event")
	}
	if srv.RM.Len() != 0 {
		t.Fatal("no session should be created")
	}
}

func TestAskBroadcastsToMembers(t *testing.T) {
	srv := newTestServer(t, game.AnswerNo)
	a, b := newFakeConn("a"), newFakeConn("b")

	ack := srv.onStart(a, startPayload{Mode: "country"})
	srv.onResume(b, resumePayload{GameID: ack["gameId"].(string)})

	srv.onAsk(a, textPayload{Text: "Is it in Asia?"})

	for _, c := range []*fakeConn{a, b} {
		c := c
		waitFor(t, "answer on "+c.id, func() bool {
			states := c.events("game:state")
			v := states[len(states)-1].args[0].(transcript.View)
			return len(v.Entries) == 2
		})
		v := lastView(t, c)
		if v.Entries[0].Content != "Is it in Asia?" || v.Entries[1].Content != "No" {
			t.Fatalf("%s: unexpected entries %+v", c.id, v.Entries)
		}
		if v.Meter.Asked != 1 {
			t.Fatalf("%s: expected meter at 1, got %d", c.id, v.Meter.Asked)
		}
	}
}

func TestAskBlankIsIgnored(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	c := newFakeConn("a")
	srv.onStart(c, startPayload{Mode: "country"})

	srv.onAsk(c, textPayload{Text: "  "})
	waitFor(t, "ignored event", func() bool { return len(c.events("game:ignored")) == 1 })

	payload := c.events("game:ignored")[0].args[0].(map[string]any)
	if payload["reason"] != "invalid_input" {
		t.Fatalf("unexpected reason %v", payload["reason"])
	}
	if v := payload["view"].(transcript.View); len(v.Entries) != 0 {
		t.Fatal("blank question must not reach the transcript")
	}
}

func TestGuess(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	c := newFakeConn("a")
	sess, _ := srv.RM.CreateSessionWithSecret(game.ModeCity, "Tokyo")
	srv.onResume(c, resumePayload{GameID: sess.ID})

	if ack := srv.onGuess(c, textPayload{Text: "Osaka"}); ack["correct"] != false {
		t.Fatalf("wrong guess acked as %v", ack)
	}
	ack := srv.onGuess(c, textPayload{Text: "tokyo"})
	if ack["correct"] != true {
		t.Fatalf("correct guess acked as %v", ack)
	}
	waitFor(t, "won state", func() bool { return lastView(t, c).Secret == "Tokyo" })

	srv.onGuess(c, textPayload{Text: "Tokyo"})
	ignored := c.events("game:ignored")
	if len(ignored) != 1 || ignored[0].args[0].(map[string]any)["reason"] != "game_over" {
		t.Fatalf("guess after winning should be ignored, got %v", ignored)
	}
}

func TestWithoutGame(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	c := newFakeConn("a")

	if ack := srv.onAsk(c, textPayload{Text: "Is it hot?"}); ack["error"] == nil {
		t.Fatal("ask without a game should fail")
	}
	if ack := srv.onGuess(c, textPayload{Text: "Egypt"}); ack["error"] == nil {
		t.Fatal("guess without a game should fail")
	}
	if ack := srv.onResume(c, resumePayload{GameID: "missing"}); ack["error"] == nil {
		t.Fatal("resume of an unknown game should fail")
	}
	if ack := srv.onReset(c); ack["ok"] != true {
		t.Fatal("reset without a game is a no-op")
	}
}

func TestReset(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	c := newFakeConn("a")
	ack := srv.onStart(c, startPayload{Mode: "city"})
	id := ack["gameId"].(string)

	srv.onReset(c)
	if _, err := srv.RM.Get(id); err == nil {
		t.Fatal("session should be discarded")
	}
	if srv.gameID(c) != "" || c.rooms[id] {
		t.Fatal("connection should be unbound")
	}
	if len(c.events("game:reset")) != 1 {
		t.Fatal("expected game:reset event")
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.members) != 0 || len(srv.watchers) != 0 {
		t.Fatalf("bookkeeping should be empty, got %d members %d watchers", len(srv.members), len(srv.watchers))
	}
}

func TestLastMemberStopsWatcher(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	a, b := newFakeConn("a"), newFakeConn("b")
	ack := srv.onStart(a, startPayload{Mode: "country"})
	id := ack["gameId"].(string)
	srv.onResume(b, resumePayload{GameID: id})

	srv.unbind(a)
	srv.mu.Lock()
	if srv.watchers[id] == nil {
		srv.mu.Unlock()
		t.Fatal("watcher should survive while a member remains")
	}
	srv.mu.Unlock()

	srv.unbind(b)
	srv.mu.Lock()
	if srv.watchers[id] != nil {
		srv.mu.Unlock()
		t.Fatal("watcher should stop with the last member")
	}
	srv.mu.Unlock()

	if _, err := srv.RM.Get(id); err != nil {
		t.Fatal("disconnecting keeps the session for a later resume")
	}
}

func TestResetReleasesEveryMember(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	a, b := newFakeConn("a"), newFakeConn("b")
	ack := srv.onStart(a, startPayload{Mode: "country"})
	id := ack["gameId"].(string)
	srv.onResume(b, resumePayload{GameID: id})

	srv.onReset(a)

	for _, c := range []*fakeConn{a, b} {
		if n := len(c.events("game:reset")); n != 1 {
			t.Fatalf("%s: expected one game:reset, got %d", c.id, n)
		}
		if srv.gameID(c) != "" || c.rooms[id] {
			t.Fatalf("%s: should be unbound after reset", c.id)
		}
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if _, ok := srv.members[id]; ok {
		t.Fatal("members of a reset game should be dropped")
	}
	if srv.watchers[id] != nil {
		t.Fatal("watcher of a reset game should be dropped")
	}
}

func TestSessionRemovedElsewhere(t *testing.T) {
	srv := newTestServer(t, game.AnswerYes)
	a, b := newFakeConn("a"), newFakeConn("b")
	ack := srv.onStart(a, startPayload{Mode: "city"})
	id := ack["gameId"].(string)
	srv.onResume(b, resumePayload{GameID: id})

	// as done by DELETE /api/games/:id or the idle reaper
	if err := srv.RM.Remove(id); err != nil {
		t.Fatalf("remove: %v", err)
	}

	for _, c := range []*fakeConn{a, b} {
		c := c
		waitFor(t, "game:reset on "+c.id, func() bool { return len(c.events("game:reset")) == 1 })
		if srv.gameID(c) != "" {
			t.Fatalf("%s: should be unbound", c.id)
		}
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.members) != 0 || len(srv.watchers) != 0 {
		t.Fatalf("bookkeeping should be empty, got %d members %d watchers", len(srv.members), len(srv.watchers))
	}

	if ack := srv.onGuess(b, textPayload{Text: "Paris"}); ack["error"] == nil {
		t.Fatal("guess after the game is gone should fail")
	}
}
