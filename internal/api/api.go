// Package api exposes the game over JSON/HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/pinpoint/internal/game"
	"github.com/kiliankoe/pinpoint/internal/transcript"
	"github.com/rs/zerolog/log"
)

type Server struct {
	RM *game.RoomManager
	// PublicURL is the externally visible base URL used for share links.
	PublicURL string
	// Page serves the web client for /game.
	Page http.Handler
}

func New(rm *game.RoomManager, publicURL string, page http.Handler) *Server {
	return &Server{RM: rm, PublicURL: strings.TrimRight(publicURL, "/"), Page: page}
}

type CreateGameRequest struct {
	Mode string `json:"mode" enum:"country,city" required:"true"`
}

type TextRequest struct {
	Text string `json:"text" required:"true"`
}

type GameResponse struct {
	Game game.Snapshot  `json:"game"`
	View transcript.View `json:"view"`
}

type IgnoredResponse struct {
	Ignored string          `json:"ignored"`
	Game    game.Snapshot   `json:"game"`
	View    transcript.View `json:"view"`
}

type LeaderboardResponse struct {
	Entries []game.LeaderboardEntry `json:"entries"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	OK       bool      `json:"ok"`
	Time     time.Time `json:"time"`
	Sessions int       `json:"sessions"`
}

func (s *Server) Register(r gin.IRouter) {
	r.GET("/health", s.handleHealth)
	r.GET("/openapi.json", handleOpenAPI())
	r.GET("/docs/*any", handleDocs())
	r.GET("/game", s.handleGamePage)
	r.GET("/qr", s.handleQR)

	g := r.Group("/api")
	g.POST("/games", s.handleCreate)
	g.GET("/games/:id", s.handleGet)
	g.POST("/games/:id/questions", s.handleQuestion)
	g.POST("/games/:id/guesses", s.handleGuess)
	g.DELETE("/games/:id", s.handleReset)
	g.GET("/leaderboard", s.handleLeaderboard)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{OK: true, Time: time.Now().UTC(), Sessions: s.RM.Len()})
}

// handleGamePage serves the client; without a valid mode it sends the
// player back to the menu.
func (s *Server) handleGamePage(c *gin.Context) {
	if _, err := game.ParseMode(c.Query("mode")); err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if s.Page == nil {
		c.Status(http.StatusNotFound)
		return
	}
	s.Page.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleCreate(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request"})
		return
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_mode"})
		return
	}
	sess, err := s.RM.CreateSession(mode)
	if err != nil {
		log.Error().Err(err).Str("mode", string(mode)).Msg("create session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}
	c.JSON(http.StatusCreated, s.respond(c, sess.Snapshot()))
}

func (s *Server) handleGet(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.respond(c, sess.Snapshot()))
}

func (s *Server) handleQuestion(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request"})
		return
	}
	// Only ORACLE_TIMEOUT bounds the oracle; a client hanging up does not.
	snap, err := sess.SubmitQuestion(context.WithoutCancel(c.Request.Context()), req.Text)
	s.reply(c, snap, err)
}

func (s *Server) handleGuess(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request"})
		return
	}
	snap, err := sess.SubmitGuess(req.Text)
	s.reply(c, snap, err)
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.RM.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session_not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	var mode game.Mode
	if q := c.Query("mode"); q != "" {
		m, err := game.ParseMode(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_mode"})
			return
		}
		mode = m
	}
	c.JSON(http.StatusOK, LeaderboardResponse{Entries: game.Leaderboard(mode)})
}

func (s *Server) session(c *gin.Context) (*game.Session, bool) {
	sess, err := s.RM.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session_not_found"})
		return nil, false
	}
	return sess, true
}

// reply writes the new state, or the unchanged state with the reason the
// submission was ignored.
func (s *Server) reply(c *gin.Context, snap game.Snapshot, err error) {
	if err == nil {
		c.JSON(http.StatusOK, s.respond(c, snap))
		return
	}
	reason := IgnoredReason(err)
	if reason == "" {
		log.Error().Err(err).Str("id", snap.ID).Msg("submission failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}
	log.Debug().Str("id", snap.ID).Str("reason", reason).Msg("submission ignored")
	c.JSON(http.StatusConflict, IgnoredResponse{Ignored: reason, Game: snap, View: transcript.Render(snap, viewerLocation(c))})
}

func (s *Server) respond(c *gin.Context, snap game.Snapshot) GameResponse {
	return GameResponse{Game: snap, View: transcript.Render(snap, viewerLocation(c))}
}

// IgnoredReason names a rejected transition, or "" for unexpected errors.
func IgnoredReason(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, game.ErrCapExceeded):
		return "cap_exceeded"
	case errors.Is(err, game.ErrGameOver):
		return "game_over"
	case errors.Is(err, game.ErrQuestionInFlight):
		return "question_in_flight"
	}
	return ""
}

// viewerLocation reads the optional ?tz= IANA zone for time-of-day labels.
func viewerLocation(c *gin.Context) *time.Location {
	if tz := c.Query("tz"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}
