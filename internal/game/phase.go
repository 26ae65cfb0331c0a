package game

import "time"

// Phase is one stage of the session lifecycle. Every method runs with the
// session lock held. Handle and PlayerLeft return the next phase, or nil to
// stay; the session calls Exit on the old phase before Enter on the new one.
//
// Exit stops the phase's timers and may release state kept on players, but
// leaves the phase's own fields in place: when a transition panics the
// session rolls back and calls resume on the exited phase to re-arm its
// timers for the time they had left.
type Phase interface {
	Kind() PhaseKind
	Enter(s *Session)
	Exit(s *Session)
	Handle(s *Session, actor *Player, act Action) (Phase, error)
	Allows(s *Session, actor *Player, kind ActionKind) bool
	PlayerLeft(s *Session, p *Player) Phase
	resume(s *Session)
}

// remaining is how much of d is left after start.
func remaining(s *Session, start time.Time, d time.Duration) time.Duration {
	return max(d-s.now().Sub(start), 0)
}
