package server

import (
	"sus-party/internal/db"
	"sus-party/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleHome(c *gin.Context) {
	templ.Handler(web.Home()).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleStatus(c *gin.Context) {
	data := web.StatusData{
		Sessions: s.sessionSummaries(),
		Archive:  s.db != nil,
	}
	if s.db != nil {
		q := readPage(c, statusMatchesPerPage)
		matches, total, err := db.ListMatches(c.Request.Context(), s.db, q.Page, q.PerPage)
		if err != nil {
			s.logger.Error("status matches failed", zap.Error(err))
			data.Error = "Failed to load recent matches."
		} else {
			data.Matches = matchSummaries(matches)
			data.Pagination = paginate("/status", q, total)
		}
	}
	templ.Handler(web.StatusPage(data)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) sessionSummaries() []web.SessionSummary {
	sessions := s.registry.Sessions()
	list := make([]web.SessionSummary, 0, len(sessions))
	for _, summary := range sessions {
		list = append(list, web.SessionSummary{
			Code:      summary.Code,
			Phase:     string(summary.Phase),
			Players:   summary.Players,
			Host:      int64(summary.Host),
			IdleSince: summary.IdleSince,
		})
	}
	return list
}

func matchSummaries(matches []db.Match) []web.MatchSummary {
	list := make([]web.MatchSummary, 0, len(matches))
	for _, match := range matches {
		list = append(list, web.MatchSummary{
			ID:      match.ID,
			Code:    match.Code,
			Winner:  match.Winner,
			Reason:  match.Reason,
			Players: len(match.Players),
			EndedAt: match.EndedAt,
		})
	}
	return list
}
