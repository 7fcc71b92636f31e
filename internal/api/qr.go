package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/pinpoint/internal/game"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// handleQR renders a QR code that opens a new game in the requested mode.
func (s *Server) handleQR(c *gin.Context) {
	mode, err := game.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_mode"})
		return
	}
	link := s.baseURL(c.Request) + "/game?mode=" + url.QueryEscape(string(mode))
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("link", link).Msg("qr encode")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) baseURL(r *http.Request) string {
	if s.PublicURL != "" {
		return s.PublicURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
