package server

import (
	"errors"
	"net/http"
	"strings"

	"sus-party/internal/db"
	"sus-party/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const qrSize = 320

// writeGameError maps registry errors onto HTTP statuses.
func writeGameError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrNotInSession):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyInSession),
		errors.Is(err, game.ErrSessionFull),
		errors.Is(err, game.ErrGameInProgress),
		errors.Is(err, game.ErrSessionClosed):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req sessionRequest
	if !bindBody(c, &req, "invalid session request") {
		return
	}
	name, _ := validateName(req.Name)
	session, err := s.registry.Create(game.UserID(req.UserID), name)
	if err != nil {
		writeGameError(c, err)
		return
	}
	code := session.Code()
	s.logger.Info("session created", zap.String("session", code), zap.Int64("host", req.UserID))
	c.JSON(http.StatusCreated, gin.H{
		"code":     code,
		"host":     req.UserID,
		"join_url": joinURL(c, code),
		"qr_url":   "/api/sessions/" + code + "/qr",
	})
}

func (s *Server) handleJoinSession(c *gin.Context) {
	var uri codeURI
	if !bindPath(c, &uri) {
		return
	}
	var req sessionRequest
	if !bindBody(c, &req, "invalid join request") {
		return
	}
	name, _ := validateName(req.Name)
	if err := s.registry.Join(uri.Code, game.UserID(req.UserID), name); err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": strings.ToUpper(uri.Code), "user_id": req.UserID})
}

func (s *Server) handleLeaveSession(c *gin.Context) {
	var req leaveRequest
	if !bindBody(c, &req, "invalid leave request") {
		return
	}
	if err := s.registry.Leave(game.UserID(req.UserID)); err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if !bindBody(c, &req, "invalid action") {
		return
	}
	user := game.UserID(req.UserID)
	if _, ok := s.registry.SessionOf(user); !ok {
		writeGameError(c, game.ErrNotInSession)
		return
	}
	s.registry.Submit(user, req.Action)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (s *Server) handleConfirmTask(c *gin.Context) {
	s.handleConfirm(c, s.registry.ConfirmTaskPhoto)
}

func (s *Server) handleConfirmSabotage(c *gin.Context) {
	s.handleConfirm(c, s.registry.ConfirmSabotagePhoto)
}

func (s *Server) handleConfirm(c *gin.Context, confirm func(game.UserID, string)) {
	var req confirmRequest
	if !bindBody(c, &req, "invalid confirmation") {
		return
	}
	user := game.UserID(req.UserID)
	if _, ok := s.registry.SessionOf(user); !ok {
		writeGameError(c, game.ErrNotInSession)
		return
	}
	confirm(user, req.Photo)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.sessionSummaries()})
}

func (s *Server) handleGetSession(c *gin.Context) {
	var uri codeURI
	if !bindPath(c, &uri) {
		return
	}
	session, ok := s.registry.Session(uri.Code)
	if !ok {
		writeGameError(c, game.ErrSessionNotFound)
		return
	}
	summary := session.Summary()
	players := make([]gin.H, 0, summary.Players)
	for _, p := range session.Players() {
		players = append(players, gin.H{
			"id":     int64(p.ID),
			"name":   p.Name,
			"host":   p.Host,
			"status": p.Status.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"code":       summary.Code,
		"phase":      string(summary.Phase),
		"host":       int64(summary.Host),
		"players":    players,
		"settings":   summary.Settings,
		"idle_since": summary.IdleSince,
	})
}

func (s *Server) handleSessionQR(c *gin.Context) {
	var uri codeURI
	if !bindPath(c, &uri) {
		return
	}
	session, ok := s.registry.Session(uri.Code)
	if !ok {
		writeGameError(c, game.ErrSessionNotFound)
		return
	}
	png, err := qrcode.Encode(joinURL(c, session.Code()), qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleListMatches(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match archive is disabled"})
		return
	}
	q := readPage(c, defaultMatchesPerPage)
	matches, total, err := db.ListMatches(c.Request.Context(), s.db, q.Page, q.PerPage)
	if err != nil {
		s.logger.Error("list matches failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"matches":    matchSummaries(matches),
		"pagination": paginate("/api/matches", q, total),
	})
}

func (s *Server) handleGetMatch(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match archive is disabled"})
		return
	}
	var uri matchURI
	if !bindPath(c, &uri) {
		return
	}
	match, err := db.FindMatch(c.Request.Context(), s.db, uri.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	if err != nil {
		s.logger.Error("load match failed", zap.Uint("match", uri.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match"})
		return
	}
	c.JSON(http.StatusOK, match)
}

// joinURL is the address a phone lands on after scanning the session QR.
func joinURL(c *gin.Context, code string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/?code=" + code
}
