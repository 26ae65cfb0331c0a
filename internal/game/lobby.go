package game

import (
	"fmt"
	"time"
)

type lobbyPhase struct {
	openedAt time.Time
}

func newLobbyPhase(at time.Time) *lobbyPhase {
	return &lobbyPhase{openedAt: at}
}

func (l *lobbyPhase) Kind() PhaseKind {
	return PhaseLobby
}

func (l *lobbyPhase) Enter(s *Session) {
	for _, p := range s.members() {
		p.Reset()
	}
	s.gameStarted = time.Time{}
	s.settings.Clamp(len(s.players))
	s.broadcast(fmt.Sprintf("Lobby %s is open. Waiting for players (%d/%d).", s.code, len(s.players), MaxPlayers))
	if host, ok := s.players[s.hostID]; ok {
		menu := &Menu{}
		menu.addRow(Button{Label: "Start game", Action: string(ActStart)})
		s.tell(host, "You are the host. Start when everyone is in.", menu)
	}
}

func (l *lobbyPhase) Exit(s *Session) {}

func (l *lobbyPhase) resume(s *Session) {}

func (l *lobbyPhase) Allows(s *Session, actor *Player, kind ActionKind) bool {
	switch kind {
	case ActStart, ActSettings:
		return s.isHost(actor)
	}
	return false
}

func (l *lobbyPhase) Handle(s *Session, actor *Player, act Action) (Phase, error) {
	switch act.Kind {
	case ActStart:
		if len(s.players) < MinPlayers {
			return nil, reject("At least %d players are needed to start (%d joined).", MinPlayers, len(s.players))
		}
		s.settings.Clamp(len(s.players))
		return newSetupPhase(), nil
	case ActSettings:
		if err := s.settings.Set(act.Knob, act.Value, len(s.players)); err != nil {
			return nil, err
		}
		s.broadcast(fmt.Sprintf("Setting %s is now %d.", act.Knob, act.Value))
		return nil, nil
	}
	return nil, reject("unsupported action %q", act.Kind)
}

func (l *lobbyPhase) PlayerLeft(s *Session, p *Player) Phase {
	return nil
}
