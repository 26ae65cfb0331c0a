package game

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// discussionPhase runs one combined discussion and voting window. Voting is
// closed exactly once, by the timer or by the last ballot, whichever comes
// first.
type discussionPhase struct {
	reason   string
	deadline time.Time
	voted    map[UserID]struct{}
	votes    map[UserID]ballot
	ballots  map[UserID]MessageRef
	closed   atomic.Bool
	timer    Timer
}

func newDiscussionPhase(reason string) *discussionPhase {
	return &discussionPhase{
		reason:  reason,
		voted:   make(map[UserID]struct{}),
		votes:   make(map[UserID]ballot),
		ballots: make(map[UserID]MessageRef),
	}
}

func (d *discussionPhase) Kind() PhaseKind {
	return PhaseDiscussion
}

func (d *discussionPhase) Enter(s *Session) {
	window := s.settings.MeetingWindow()
	d.deadline = s.now().Add(window)
	var found []*Player
	for _, p := range s.members() {
		if p.Status == StatusKilled && !p.bodyFound {
			p.bodyFound = true
			found = append(found, p)
		}
	}
	s.broadcast(fmt.Sprintf("%s! You have %d seconds to discuss and vote.", d.reason, int(window.Seconds())))
	if len(found) > 0 {
		s.broadcast("Dead: " + s.names(found) + ".")
	}
	alive := s.alive()
	for _, voter := range alive {
		s.tellTracked(voter, "Who is the impostor?", ballotMenu(voter, alive), func(ref MessageRef) {
			d.trackBallot(s, voter, ref)
		})
	}
	d.arm(s, window)
}

func (d *discussionPhase) arm(s *Session, window time.Duration) {
	d.timer = s.schedule(d, window, func(s *Session) Phase {
		return d.closeVoting(s)
	})
}

func (d *discussionPhase) resume(s *Session) {
	d.closed.Store(false)
	d.arm(s, max(d.deadline.Sub(s.now()), 0))
}

func (d *discussionPhase) Exit(s *Session) {
	stopTimer(d.timer)
	if d.closed.CompareAndSwap(false, true) {
		for id, ref := range d.ballots {
			if p, ok := s.players[id]; ok {
				s.unsend(p, ref)
			}
		}
	}
}

func (d *discussionPhase) Allows(s *Session, actor *Player, kind ActionKind) bool {
	return kind == ActVote && actor.Alive()
}

func (d *discussionPhase) Handle(s *Session, actor *Player, act Action) (Phase, error) {
	if act.Kind != ActVote {
		return nil, reject("unsupported action %q", act.Kind)
	}
	if d.closed.Load() {
		return nil, reject("Voting is closed.")
	}
	choice := ballot{skip: act.Skip, target: act.Target}
	label := "skip"
	if !choice.skip {
		target, ok := s.players[act.Target]
		if !ok || !target.Alive() || target.ID == actor.ID {
			return nil, reject("You can't vote for that player.")
		}
		label = target.Name
	}
	if _, dup := d.voted[actor.ID]; dup {
		return nil, nil
	}
	d.voted[actor.ID] = struct{}{}
	d.votes[actor.ID] = choice
	s.record(actor, EventVote, label, "")
	confirmation := fmt.Sprintf("You voted: %s.", label)
	if ref, ok := d.ballots[actor.ID]; ok {
		s.edit(actor, ref, confirmation)
	} else {
		s.tell(actor, confirmation, nil)
	}
	if d.allVoted(s) {
		return d.closeVoting(s), nil
	}
	return nil, nil
}

func (d *discussionPhase) PlayerLeft(s *Session, p *Player) Phase {
	delete(d.voted, p.ID)
	delete(d.votes, p.ID)
	delete(d.ballots, p.ID)
	if d.closed.Load() {
		return nil
	}
	alive := s.alive()
	for voter, choice := range d.votes {
		if choice.skip || choice.target != p.ID {
			continue
		}
		delete(d.votes, voter)
		delete(d.voted, voter)
		if other, ok := s.players[voter]; ok {
			s.tellTracked(other, fmt.Sprintf("%s left, vote again:", p.Name), ballotMenu(other, alive), func(ref MessageRef) {
				d.trackBallot(s, other, ref)
			})
		}
	}
	if d.allVoted(s) || checkOutcome(s.members()).decided() {
		return d.closeVoting(s)
	}
	return nil
}

// trackBallot stores the delivered ballot reference, or removes the message
// if voting closed before it was delivered.
func (d *discussionPhase) trackBallot(s *Session, voter *Player, ref MessageRef) {
	if d.closed.Load() || s.phase != d {
		s.unsend(voter, ref)
		return
	}
	d.ballots[voter.ID] = ref
}

func (d *discussionPhase) allVoted(s *Session) bool {
	for _, p := range s.alive() {
		if _, ok := d.voted[p.ID]; !ok {
			return false
		}
	}
	return true
}

// closeVoting tallies the ballots and picks the next phase. Only the first
// call has any effect.
func (d *discussionPhase) closeVoting(s *Session) Phase {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	stopTimer(d.timer)
	for id, ref := range d.ballots {
		if _, voted := d.voted[id]; voted {
			continue
		}
		if p, ok := s.players[id]; ok {
			s.unsend(p, ref)
		}
	}
	result := tallyVotes(d.votes)
	s.broadcast(d.summary(s, result))
	if result.Ejection {
		ejected := s.players[result.Ejected]
		ejected.setStatus(StatusEjected)
		s.record(nil, EventEjected, ejected.Name, "")
		verdict := "not an impostor"
		if ejected.IsImpostor() {
			verdict = "an impostor"
		}
		s.broadcast(fmt.Sprintf("%s was ejected. %s was %s.", ejected.Name, ejected.Name, verdict))
	} else {
		detail := "skipped"
		if result.Tie {
			detail = "tie"
		}
		s.record(nil, EventNoEjection, detail, "")
		s.broadcast("No one was ejected.")
	}
	if o := checkOutcome(s.members()); o.decided() {
		return newGameOverPhase(o.winner, o.reason)
	}
	return newActivePhase()
}

func (d *discussionPhase) summary(s *Session, result Tally) string {
	type line struct {
		name  string
		count int
	}
	lines := make([]line, 0, len(result.Counts))
	for id, count := range result.Counts {
		name := id.String()
		if p, ok := s.players[id]; ok {
			name = p.Name
		}
		lines = append(lines, line{name: name, count: count})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].count != lines[j].count {
			return lines[i].count > lines[j].count
		}
		return lines[i].name < lines[j].name
	})
	parts := make([]string, 0, len(lines)+1)
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s %d", l.name, l.count))
	}
	parts = append(parts, fmt.Sprintf("skip %d", result.Skips))
	return "Votes: " + strings.Join(parts, ", ") + "."
}
