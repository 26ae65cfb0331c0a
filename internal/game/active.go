package game

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// activePhase arbitrates the racing gameplay actions. Meeting and sabotage
// slots are claimed with compare-and-set so the first caller wins.
type activePhase struct {
	lastKill map[UserID]time.Time
	meeting  atomic.Bool
	current  atomic.Pointer[sabotage]
}

func newActivePhase() *activePhase {
	return &activePhase{lastKill: make(map[UserID]time.Time)}
}

func (a *activePhase) Kind() PhaseKind {
	return PhaseActive
}

func (a *activePhase) Enter(s *Session) {
	for _, p := range s.members() {
		text, menu := activeBriefing(s, p)
		s.tell(p, text, menu)
	}
}

func (a *activePhase) Exit(s *Session) {
	if sb := a.current.Load(); sb != nil {
		stopTimer(sb.meltdown)
	}
	for _, p := range s.members() {
		p.clearPending()
	}
}

func (a *activePhase) resume(s *Session) {
	a.meeting.Store(false)
	if sb := a.current.Load(); sb != nil && sb.kind == SabotageReactor {
		a.armMeltdown(s, sb, remaining(s, sb.startedAt, s.rules.ReactorMeltdown))
	}
}

func (a *activePhase) armMeltdown(s *Session, sb *sabotage, d time.Duration) {
	sb.meltdown = s.schedule(a, d, func(s *Session) Phase {
		return a.meltdown(s, sb)
	})
}

func (a *activePhase) Allows(s *Session, actor *Player, kind ActionKind) bool {
	switch kind {
	case ActTask, ActConfirmTask:
		return true
	case ActKill:
		return actor.IsImpostor() && actor.Alive()
	case ActSabotage:
		return actor.IsImpostor()
	case ActSelfReport:
		return actor.Role == RoleCrewmate && actor.Alive()
	case ActFix, ActConfirmRepair, ActScan, ActReport, ActEmergency:
		return actor.Alive()
	}
	return false
}

func (a *activePhase) Handle(s *Session, actor *Player, act Action) (Phase, error) {
	switch act.Kind {
	case ActTask:
		return a.requestTask(s, actor, act.Index)
	case ActConfirmTask:
		return a.confirmTask(s, actor, act.Photo)
	case ActKill:
		return a.kill(s, actor, act.Target)
	case ActSelfReport:
		return a.selfReport(s, actor)
	case ActSabotage:
		return a.startSabotage(s, actor, act.Sabotage)
	case ActFix:
		return a.fix(s, actor, act.Sabotage, act.Index)
	case ActConfirmRepair:
		return a.confirmRepair(s, actor, act.Photo)
	case ActScan:
		return a.scan(s, actor, act.Target)
	case ActReport:
		return a.report(s, actor)
	case ActEmergency:
		return a.emergency(s, actor)
	}
	return nil, reject("unsupported action %q", act.Kind)
}

func (a *activePhase) PlayerLeft(s *Session, p *Player) Phase {
	if sb := a.current.Load(); sb != nil {
		sb.release(p)
	}
	return a.settle(s)
}

// settle runs the win check after any change to life status or tasks.
func (a *activePhase) settle(s *Session) Phase {
	if o := checkOutcome(s.members()); o.decided() {
		return newGameOverPhase(o.winner, o.reason)
	}
	return nil
}

func (a *activePhase) requestTask(s *Session, actor *Player, index int) (Phase, error) {
	if a.current.Load() != nil {
		return nil, reject("Tasks are blocked during a sabotage.")
	}
	if err := actor.claimPending(index); err != nil {
		return nil, err
	}
	s.tell(actor, fmt.Sprintf("Send a photo to confirm %q.", actor.Tasks[index].Name), nil)
	return nil, nil
}

func (a *activePhase) confirmTask(s *Session, actor *Player, photo string) (Phase, error) {
	task, ok := actor.completePending()
	if !ok {
		return nil, reject("You have no task waiting for a photo.")
	}
	if actor.IsImpostor() {
		s.record(actor, EventFakeTask, task.Name, photo)
		s.tell(actor, fmt.Sprintf("Fake task %q done.", task.Name), nil)
		return nil, nil
	}
	s.record(actor, EventTaskCompleted, task.Name, photo)
	done, total := taskProgress(s.members())
	s.tell(actor, fmt.Sprintf("%q done. Your progress: %d%%. Crew progress: %d%%.", task.Name, actor.Progress(), percent(done, total)), nil)
	return a.settle(s), nil
}

// claimKill checks and sets the impostor's cooldown in one step.
func (a *activePhase) claimKill(impostor UserID, now time.Time, cooldown time.Duration) (time.Duration, bool) {
	if last, ok := a.lastKill[impostor]; ok {
		if wait := last.Add(cooldown).Sub(now); wait > 0 {
			return wait, false
		}
	}
	a.lastKill[impostor] = now
	return 0, true
}

func (a *activePhase) kill(s *Session, actor *Player, targetID UserID) (Phase, error) {
	target, ok := s.players[targetID]
	if !ok {
		return nil, reject("There is no such player.")
	}
	if target.ID == actor.ID {
		return nil, reject("You can't kill yourself.")
	}
	if !target.Alive() {
		return nil, reject("%s is not alive.", target.Name)
	}
	if target.IsImpostor() {
		return nil, reject("%s is an impostor.", target.Name)
	}
	if wait, ok := a.claimKill(actor.ID, s.now(), s.settings.KillCooldown()); !ok {
		return nil, reject("Your kill is on cooldown for %d more seconds.", ceilSeconds(wait))
	}
	target.setStatus(StatusKilled)
	if sb := a.current.Load(); sb != nil {
		sb.release(target)
	}
	s.record(actor, EventKill, target.Name, "")
	s.tell(target, "You were killed. Stay quiet until your body is found. You can still finish your tasks.", nil)
	s.tell(actor, fmt.Sprintf("You killed %s. Next kill in %d seconds.", target.Name, s.settings.KillCooldownSeconds), nil)
	return a.settle(s), nil
}

func (a *activePhase) selfReport(s *Session, actor *Player) (Phase, error) {
	if !actor.setStatus(StatusKilled) {
		return nil, reject("You are not alive.")
	}
	if sb := a.current.Load(); sb != nil {
		sb.release(actor)
	}
	s.record(actor, EventSelfReport, "", "")
	s.tell(actor, "Noted, you are dead. Stay quiet until your body is found.", nil)
	return a.settle(s), nil
}

func (a *activePhase) startSabotage(s *Session, actor *Player, kind SabotageKind) (Phase, error) {
	sb := newSabotage(kind, actor.ID, s.now())
	if !a.current.CompareAndSwap(nil, sb) {
		return nil, reject("A sabotage is already active.")
	}
	s.record(actor, EventSabotage, string(kind), "")
	menu := &Menu{}
	switch kind {
	case SabotageLights:
		menu.addRow(Button{Label: "Fix lights", Action: "fix:lights"})
		s.broadcast("Lights are out! Scans are blocked until someone fixes the panel.")
	case SabotageReactor:
		a.armMeltdown(s, sb, s.rules.ReactorMeltdown)
		menu.addRow(
			Button{Label: "Hold location 1", Action: "fix:reactor:1"},
			Button{Label: "Hold location 2", Action: "fix:reactor:2"},
		)
		s.broadcast(fmt.Sprintf("Reactor meltdown in %d seconds! Two players must hold both locations.", int(s.rules.ReactorMeltdown.Seconds())))
	}
	for _, p := range s.alive() {
		s.tell(p, "Sabotage! Help fix it:", menu)
	}
	return nil, nil
}

func (a *activePhase) meltdown(s *Session, sb *sabotage) Phase {
	if !a.current.CompareAndSwap(sb, nil) {
		return nil
	}
	// Credited to the saboteur; nil once they have left.
	s.record(s.players[sb.by], EventMeltdown, string(sb.kind), "")
	s.broadcast("The reactor melted down!")
	return newGameOverPhase(WinnerImpostors, "the reactor melted down")
}

func (a *activePhase) fix(s *Session, actor *Player, kind SabotageKind, location int) (Phase, error) {
	sb := a.current.Load()
	if sb == nil || sb.kind != kind {
		return nil, reject("The %s is not sabotaged.", kind)
	}
	if err := sb.claim(actor, location); err != nil {
		return nil, err
	}
	s.tell(actor, fmt.Sprintf("Send a photo to confirm your %s repair.", kind), nil)
	return nil, nil
}

func (a *activePhase) confirmRepair(s *Session, actor *Player, photo string) (Phase, error) {
	sb := a.current.Load()
	if sb == nil {
		return nil, reject("Nothing needs fixing.")
	}
	resolved, err := sb.confirm(actor)
	if err != nil {
		return nil, err
	}
	if !resolved {
		s.tell(actor, "Location confirmed. Keep holding until the other location is confirmed.", nil)
		return nil, nil
	}
	if !a.current.CompareAndSwap(sb, nil) {
		return nil, nil
	}
	stopTimer(sb.meltdown)
	s.record(actor, EventSabotageFixed, fmt.Sprintf("%s after %ds", sb.kind, ceilSeconds(s.now().Sub(sb.startedAt))), photo)
	if sb.kind == SabotageLights {
		s.broadcast("The lights are back on.")
	} else {
		s.broadcast("The reactor is stable again.")
	}
	return nil, nil
}

func (a *activePhase) scan(s *Session, actor *Player, targetID UserID) (Phase, error) {
	if sb := a.current.Load(); sb != nil && sb.kind == SabotageLights {
		return nil, reject("It is too dark to scan anyone.")
	}
	target, ok := s.players[targetID]
	if !ok || target.ID == actor.ID {
		return nil, reject("There is no such player to scan.")
	}
	s.record(actor, EventScan, target.Name, "")
	switch target.Status {
	case StatusKilled:
		s.tell(actor, fmt.Sprintf("%s is dead.", target.Name), nil)
	case StatusEjected:
		s.tell(actor, fmt.Sprintf("%s was ejected.", target.Name), nil)
	default:
		s.tell(actor, fmt.Sprintf("%s is alive.", target.Name), nil)
	}
	return nil, nil
}

func (a *activePhase) report(s *Session, actor *Player) (Phase, error) {
	if sb := a.current.Load(); sb != nil && sb.kind == SabotageReactor {
		return nil, reject("Fix the reactor first!")
	}
	var bodies []*Player
	for _, p := range s.members() {
		if p.Status == StatusKilled && !p.bodyFound {
			bodies = append(bodies, p)
		}
	}
	if len(bodies) == 0 {
		return nil, reject("There is no body to report.")
	}
	if !a.meeting.CompareAndSwap(false, true) {
		return nil, reject("A meeting is already in progress.")
	}
	s.record(actor, EventBodyReported, s.names(bodies), "")
	return newDiscussionPhase(fmt.Sprintf("%s found the body of %s", actor.Name, s.names(bodies))), nil
}

func (a *activePhase) emergency(s *Session, actor *Player) (Phase, error) {
	if sb := a.current.Load(); sb != nil {
		return nil, reject("Emergency meetings are disabled during a sabotage.")
	}
	if actor.MeetingsUsed >= s.settings.EmergencyMeetings {
		return nil, reject("You have no emergency meetings left.")
	}
	if !a.meeting.CompareAndSwap(false, true) {
		return nil, reject("A meeting is already in progress.")
	}
	actor.MeetingsUsed++
	s.record(actor, EventEmergency, "", "")
	return newDiscussionPhase(fmt.Sprintf("%s called an emergency meeting", actor.Name)), nil
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return done * 100 / total
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
