package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// setupPhase assigns roles and tasks, then hands over to the active phase
// after the announcement delay.
type setupPhase struct {
	timer Timer
}

func newSetupPhase() *setupPhase {
	return &setupPhase{}
}

func (p *setupPhase) Kind() PhaseKind {
	return PhaseSetup
}

func (p *setupPhase) Enter(s *Session) {
	s.gameStarted = s.now()
	members := s.members()
	impostors := assignRoles(members, s.settings.Impostors)
	for _, player := range members {
		player.Tasks = drawTasks(s.settings.TasksPerPlayer)
	}
	s.record(nil, EventGameStarted, fmt.Sprintf("%d players, %d impostors", len(members), len(impostors)), "")
	for _, player := range members {
		s.tell(player, roleBriefing(player, impostors), nil)
	}
	s.broadcast(fmt.Sprintf("Roles are assigned. The game begins in %d seconds.", int(s.rules.SetupDelay.Seconds())))
	p.arm(s, s.rules.SetupDelay)
}

func (p *setupPhase) arm(s *Session, d time.Duration) {
	p.timer = s.schedule(p, d, func(s *Session) Phase {
		return newActivePhase()
	})
}

func (p *setupPhase) Exit(s *Session) {
	stopTimer(p.timer)
	p.timer = nil
}

func (p *setupPhase) resume(s *Session) {
	p.arm(s, remaining(s, s.phaseStarted, s.rules.SetupDelay))
}

func (p *setupPhase) Allows(s *Session, actor *Player, kind ActionKind) bool {
	return false
}

func (p *setupPhase) Handle(s *Session, actor *Player, act Action) (Phase, error) {
	return nil, reject("The game is being set up.")
}

// PlayerLeft ends the game before play starts when the departure already
// decides it.
func (p *setupPhase) PlayerLeft(s *Session, left *Player) Phase {
	if o := checkOutcome(s.members()); o.decided() {
		s.broadcast(fmt.Sprintf("%s left before the game began.", left.Name))
		return newGameOverPhase(o.winner, o.reason)
	}
	return nil
}

// assignRoles makes exactly count players impostors and the rest crewmates.
func assignRoles(players []*Player, count int) []*Player {
	if count > len(players) {
		count = len(players)
	}
	order := rand.Perm(len(players))
	impostors := make([]*Player, 0, count)
	for rank, index := range order {
		player := players[index]
		if rank < count {
			player.Role = RoleImpostor
			impostors = append(impostors, player)
			continue
		}
		player.Role = RoleCrewmate
	}
	return impostors
}

func roleBriefing(p *Player, impostors []*Player) string {
	var b strings.Builder
	if p.IsImpostor() {
		b.WriteString("You are an IMPOSTOR.")
		var partners []string
		for _, other := range impostors {
			if other.ID != p.ID {
				partners = append(partners, other.Name)
			}
		}
		if len(partners) > 0 {
			b.WriteString(" Your partners: " + strings.Join(partners, ", ") + ".")
		}
		b.WriteString(" Your tasks are fake, use them as cover:")
	} else {
		b.WriteString("You are a CREWMATE. Finish your tasks and find the impostors:")
	}
	for i, task := range p.Tasks {
		fmt.Fprintf(&b, "\n%d. %s", i+1, task.Name)
	}
	return b.String()
}
