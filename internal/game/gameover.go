package game

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type gameOverPhase struct {
	winner Winner
	reason string
}

func newGameOverPhase(winner Winner, reason string) *gameOverPhase {
	return &gameOverPhase{winner: winner, reason: reason}
}

func (g *gameOverPhase) Kind() PhaseKind {
	return PhaseGameOver
}

func (g *gameOverPhase) Enter(s *Session) {
	s.record(nil, EventGameOver, fmt.Sprintf("%s win: %s", g.winner, g.reason), "")
	report := s.report(g.winner, g.reason)
	s.broadcast(renderReport(report))
	s.logger.Info("game over", zap.Stringer("winner", g.winner), zap.String("reason", g.reason), zap.Int("events", len(report.Events)))
	if s.sink != nil {
		sink, logger := s.sink, s.logger
		s.afterCommit(func(ctx context.Context) {
			if err := sink.SaveReport(ctx, report); err != nil {
				logger.Error("save game report failed", zap.Error(err))
			}
		})
	}
	if host, ok := s.players[s.hostID]; ok {
		menu := &Menu{}
		menu.addRow(Button{Label: "New game", Action: string(ActNewGame)})
		s.tell(host, "Start another round when everyone is ready.", menu)
	}
}

func (g *gameOverPhase) Exit(s *Session) {
	s.events.Clear()
}

func (g *gameOverPhase) resume(s *Session) {}

func (g *gameOverPhase) Allows(s *Session, actor *Player, kind ActionKind) bool {
	return kind == ActNewGame && s.isHost(actor)
}

func (g *gameOverPhase) Handle(s *Session, actor *Player, act Action) (Phase, error) {
	if act.Kind != ActNewGame {
		return nil, reject("unsupported action %q", act.Kind)
	}
	return newLobbyPhase(s.now()), nil
}

func (g *gameOverPhase) PlayerLeft(s *Session, p *Player) Phase {
	return nil
}

func (s *Session) report(winner Winner, reason string) Report {
	report := Report{
		Code:      s.code,
		Winner:    winner,
		Reason:    reason,
		StartedAt: s.gameStarted,
		EndedAt:   s.now(),
		Events:    s.events.Events(),
	}
	for _, p := range s.members() {
		report.Players = append(report.Players, PlayerSummary{
			ID:         p.ID,
			Name:       p.Name,
			Role:       p.Role,
			Status:     p.Status,
			TasksDone:  p.CompletedTasks(),
			TasksTotal: len(p.Tasks),
		})
	}
	return report
}

func renderReport(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game over: the %s win, %s.\n", r.Winner, r.Reason)
	names := make(map[UserID]string, len(r.Players))
	for _, p := range r.Players {
		names[p.ID] = p.Name
		fmt.Fprintf(&b, "\n%s: %s, %s, tasks %d/%d", p.Name, p.Role, p.Status, p.TasksDone, p.TasksTotal)
	}
	if len(r.Events) > 0 {
		b.WriteString("\n\nTimeline:")
	}
	for _, e := range r.Events {
		actor := "system"
		if e.Actor != nil {
			actor = names[*e.Actor]
			if actor == "" {
				actor = e.Actor.String()
			}
		}
		fmt.Fprintf(&b, "\n%s %s %s", e.At.Format("15:04:05"), actor, e.Kind)
		if e.Detail != "" {
			b.WriteString(": " + e.Detail)
		}
	}
	return b.String()
}
