package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/pinpoint/internal/api"
	"github.com/kiliankoe/pinpoint/internal/game"
	"github.com/kiliankoe/pinpoint/internal/transcript"
	"github.com/rs/zerolog/log"
)

// ConnCtx is stored on every connection; GameID is empty until the
// connection starts or resumes a game. GameID is guarded by Server.mu.
type ConnCtx struct {
	GameID string
}

type member struct {
	conn socketio.Conn
	loc  *time.Location
}

type watcher struct {
	stop    func()
	stopped bool
}

type Server struct {
	RM *game.RoomManager

	mu       sync.Mutex
	members  map[string]map[string]member // gameID -> socketID -> member
	watchers map[string]*watcher
}

func New(rm *game.RoomManager) *Server {
	return &Server{
		RM:       rm,
		members:  make(map[string]map[string]member),
		watchers: make(map[string]*watcher),
	}
}

type startPayload struct {
	Mode string `json:"mode"`
	TZ   string `json:"tz"`
}

type resumePayload struct {
	GameID string `json:"gameId"`
	TZ     string `json:"tz"`
}

type textPayload struct {
	Text string `json:"text"`
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})
	io.OnEvent("/", "game:start", srv.onStart)
	io.OnEvent("/", "game:resume", srv.onResume)
	io.OnEvent("/", "game:ask", srv.onAsk)
	io.OnEvent("/", "game:guess", srv.onGuess)
	io.OnEvent("/", "game:reset", srv.onReset)
	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.unbind(s)
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) onStart(s socketio.Conn, payload startPayload) map[string]any {
	mode, err := game.ParseMode(payload.Mode)
	if err != nil {
		return srv.err(s, "invalid_mode", "Unknown game mode")
	}
	sess, err := srv.RM.CreateSession(mode)
	if err != nil {
		log.Error().Err(err).Str("mode", string(mode)).Msg("game:start")
		return srv.err(s, "internal_error", "Could not start a game")
	}
	loc := location(payload.TZ)
	srv.bind(s, sess, loc)
	log.Info().Str("sid", s.ID()).Str("id", sess.ID).Msg("game:start")
	s.Emit("game:state", transcript.Render(sess.Snapshot(), loc))
	return map[string]any{"gameId": sess.ID}
}

func (srv *Server) onResume(s socketio.Conn, payload resumePayload) map[string]any {
	sess, err := srv.RM.Get(payload.GameID)
	if err != nil {
		return srv.err(s, "session_not_found", "Session not found")
	}
	loc := location(payload.TZ)
	srv.bind(s, sess, loc)
	log.Info().Str("sid", s.ID()).Str("id", sess.ID).Msg("game:resume")
	s.Emit("game:state", transcript.Render(sess.Snapshot(), loc))
	return map[string]any{"gameId": sess.ID}
}

// onAsk returns immediately; the question and the oracle's answer reach
// the client as two game:state updates.
func (srv *Server) onAsk(s socketio.Conn, payload textPayload) map[string]any {
	sess, err := srv.session(s)
	if err != nil {
		return srv.err(s, "session_not_found", "Session not found")
	}
	go func() {
		snap, err := sess.SubmitQuestion(context.Background(), payload.Text)
		if err != nil {
			srv.ignored(s, snap, err)
		}
	}()
	return map[string]any{"ok": true}
}

func (srv *Server) onGuess(s socketio.Conn, payload textPayload) map[string]any {
	sess, err := srv.session(s)
	if err != nil {
		return srv.err(s, "session_not_found", "Session not found")
	}
	snap, err := sess.SubmitGuess(payload.Text)
	if err != nil {
		srv.ignored(s, snap, err)
		return map[string]any{"ok": false}
	}
	log.Info().Str("id", sess.ID).Bool("correct", snap.IsOver).Msg("game:guess")
	return map[string]any{"ok": true, "correct": snap.IsOver}
}

// onReset discards the game for every connection bound to it.
func (srv *Server) onReset(s socketio.Conn) map[string]any {
	id := srv.gameID(s)
	if id == "" {
		return map[string]any{"ok": true}
	}
	srv.release(id)
	if err := srv.RM.Remove(id); err != nil {
		log.Debug().Str("id", id).Err(err).Msg("game:reset")
	}
	log.Info().Str("sid", s.ID()).Str("id", id).Msg("game:reset")
	return map[string]any{"ok": true}
}

func (srv *Server) session(s socketio.Conn) (*game.Session, error) {
	return srv.RM.Get(srv.gameID(s))
}

func (srv *Server) gameID(s socketio.Conn) string {
	ctx := connCtx(s)
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return ctx.GameID
}

// bind attaches s to the game, replacing any previous binding, and makes
// sure one watcher relays the game's snapshots to its members.
func (srv *Server) bind(s socketio.Conn, sess *game.Session, loc *time.Location) {
	srv.unbind(s)
	ctx := connCtx(s)
	s.Join(sess.ID)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	ctx.GameID = sess.ID
	m := srv.members[sess.ID]
	if m == nil {
		m = make(map[string]member)
		srv.members[sess.ID] = m
	}
	m[s.ID()] = member{conn: s, loc: loc}
	if srv.watchers[sess.ID] == nil {
		ch, stop := sess.Subscribe()
		w := &watcher{stop: stop}
		srv.watchers[sess.ID] = w
		go srv.watch(sess.ID, w, ch)
	}
}

// unbind detaches s from its game. The session itself is kept so the
// player can resume it later.
func (srv *Server) unbind(s socketio.Conn) {
	ctx := connCtx(s)

	srv.mu.Lock()
	id := ctx.GameID
	if id == "" {
		srv.mu.Unlock()
		return
	}
	ctx.GameID = ""
	var w *watcher
	if m := srv.members[id]; m != nil {
		delete(m, s.ID())
		if len(m) == 0 {
			delete(srv.members, id)
			w = srv.watchers[id]
			delete(srv.watchers, id)
			if w != nil {
				w.stopped = true
			}
		}
	}
	srv.mu.Unlock()

	s.Leave(id)
	if w != nil {
		w.stop()
	}
}

// release unbinds every member of the game and tells them it is gone.
func (srv *Server) release(id string) {
	srv.mu.Lock()
	members := srv.members[id]
	delete(srv.members, id)
	w := srv.watchers[id]
	delete(srv.watchers, id)
	if w != nil {
		w.stopped = true
	}
	for _, m := range members {
		connCtx(m.conn).GameID = ""
	}
	srv.mu.Unlock()

	if w != nil {
		w.stop()
	}
	for _, m := range members {
		m.conn.Leave(id)
		m.conn.Emit("game:reset", map[string]any{"gameId": id})
	}
}

// watch relays snapshots until the subscription ends. If it ended because
// the session was removed elsewhere (REST reset or idle reap), the members
// are released.
func (srv *Server) watch(id string, w *watcher, ch <-chan game.Snapshot) {
	for snap := range ch {
		srv.emitState(id, snap)
	}
	srv.mu.Lock()
	stopped := w.stopped
	srv.mu.Unlock()
	if !stopped {
		srv.release(id)
	}
}

func (srv *Server) emitState(id string, snap game.Snapshot) {
	srv.mu.Lock()
	members := make([]member, 0, len(srv.members[id]))
	for _, m := range srv.members[id] {
		members = append(members, m)
	}
	srv.mu.Unlock()
	for _, m := range members {
		m.conn.Emit("game:state", transcript.Render(snap, m.loc))
	}
}

func (srv *Server) ignored(s socketio.Conn, snap game.Snapshot, err error) {
	reason := api.IgnoredReason(err)
	if reason == "" {
		log.Error().Err(err).Str("id", snap.ID).Msg("submission failed")
		reason = "internal_error"
	}
	s.Emit("game:ignored", map[string]any{"reason": reason, "view": transcript.Render(snap, srv.memberLocation(snap.ID, s.ID()))})
}

func (srv *Server) memberLocation(id, sid string) *time.Location {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m, ok := srv.members[id][sid]; ok {
		return m.loc
	}
	return time.Local
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}

func connCtx(s socketio.Conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx != nil {
		return ctx
	}
	ctx := &ConnCtx{}
	s.SetContext(ctx)
	return ctx
}

func location(tz string) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}
