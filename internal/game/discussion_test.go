package game

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// meeting starts a game of eight with one impostor and calls an emergency
// meeting from the first crewmate.
func meeting(t *testing.T) (*harness, *Session, PlayerView, []PlayerView) {
	t.Helper()
	h := newHarness(t)
	s := h.active(8, 1)
	impostors, crew := h.split(s)
	h.reg.Submit(crew[0].ID, "emergency_meeting")
	h.requirePhase(s, PhaseDiscussion)
	return h, s, impostors[0], crew
}

func TestDiscussionSendsBallotsToAlivePlayers(t *testing.T) {
	h := newHarness(t)
	s := h.active(8, 1)
	impostors, crew := h.split(s)
	h.reg.Submit(impostors[0].ID, fmt.Sprintf("kill:%d", crew[0].ID))
	h.reg.Submit(crew[1].ID, "report")
	h.requirePhase(s, PhaseDiscussion)

	if got := len(h.msgs.ballots(crew[0].ID)); got != 0 {
		t.Fatalf("dead player got %d ballots", got)
	}
	ballots := h.msgs.ballots(crew[1].ID)
	if len(ballots) != 1 {
		t.Fatalf("got %d ballots", len(ballots))
	}
	// six other alive players plus skip
	if got := len(ballots[0].Menu.Rows); got != 7 {
		t.Fatalf("ballot has %d options", got)
	}
	for _, row := range ballots[0].Menu.Rows {
		if row[0].Action == voteToken(crew[1].ID) || row[0].Action == voteToken(crew[0].ID) {
			t.Fatalf("ballot offers %s", row[0].Action)
		}
	}

	h.reg.Submit(crew[0].ID, fmt.Sprintf("vote:%d", impostors[0].ID))
	if !h.msgs.received(crew[0].ID, `You can't use "vote" during discussion.`) {
		t.Fatal("dead player voted")
	}
}

func TestDoubleVoteCountsOnce(t *testing.T) {
	h, s, imp, crew := meeting(t)
	voter := crew[1].ID

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.reg.Submit(voter, fmt.Sprintf("vote:%d", imp.ID))
		}()
	}
	wg.Wait()

	s.mu.Lock()
	d := s.phase.(*discussionPhase)
	result := tallyVotes(d.votes)
	recorded := len(d.votes)
	s.mu.Unlock()

	if recorded != 1 || result.Counts[imp.ID] != 1 {
		t.Fatalf("votes recorded = %d, weight = %d", recorded, result.Counts[imp.ID])
	}
	if got := countEvents(s, EventVote); got != 1 {
		t.Fatalf("vote events = %d", got)
	}
}

func TestVotingClosesEarlyAndCancelsTimer(t *testing.T) {
	h, s, _, _ := meeting(t)

	for _, p := range s.Players() {
		h.reg.Submit(p.ID, "vote:skip")
	}
	h.requirePhase(s, PhaseActive)
	if got := h.clock.Pending(); got != 0 {
		t.Fatalf("%d timers pending after voting closed", got)
	}

	h.clock.Advance(DefaultSettings().MeetingWindow() + time.Second)
	h.requirePhase(s, PhaseActive)
	if got := h.msgs.count(1, "Votes:"); got != 1 {
		t.Fatalf("tally announced %d times", got)
	}
	if got := countEvents(s, EventNoEjection); got != 1 {
		t.Fatalf("no_ejection events = %d", got)
	}
}

func TestEjectingLastImpostorEndsGame(t *testing.T) {
	h, s, imp, _ := meeting(t)

	for _, p := range s.Players() {
		if p.ID == imp.ID {
			h.reg.Submit(p.ID, "vote:skip")
			continue
		}
		h.reg.Submit(p.ID, fmt.Sprintf("vote:%d", imp.ID))
	}

	h.requirePhase(s, PhaseGameOver)
	if p, _ := s.Player(imp.ID); p.Status != StatusEjected {
		t.Fatalf("impostor status = %s", p.Status)
	}
	if !h.msgs.received(2, imp.Name+" was an impostor.") {
		t.Fatal("ejection verdict was not revealed")
	}
	reports := h.sink.saved()
	if len(reports) != 1 || reports[0].Winner != WinnerCrewmates {
		t.Fatalf("reports = %+v", reports)
	}
}

func TestEjectingCrewmateReturnsToActive(t *testing.T) {
	h, s, imp, crew := meeting(t)
	target := crew[2]

	for _, p := range s.Players() {
		if p.ID == target.ID {
			h.reg.Submit(p.ID, fmt.Sprintf("vote:%d", imp.ID))
			continue
		}
		h.reg.Submit(p.ID, fmt.Sprintf("vote:%d", target.ID))
	}

	h.requirePhase(s, PhaseActive)
	if p, _ := s.Player(target.ID); p.Status != StatusEjected {
		t.Fatalf("target status = %s", p.Status)
	}
	if !h.msgs.received(1, target.Name+" was not an impostor.") {
		t.Fatal("ejection verdict was not revealed")
	}
}

func TestSkipTiedWithLeaderEjectsNobody(t *testing.T) {
	h, s, _, crew := meeting(t)
	target := crew[3]

	h.reg.Submit(target.ID, "vote:skip")
	skips := 1
	for _, p := range s.Players() {
		if p.ID == target.ID {
			continue
		}
		if skips < 4 {
			h.reg.Submit(p.ID, "vote:skip")
			skips++
			continue
		}
		h.reg.Submit(p.ID, fmt.Sprintf("vote:%d", target.ID))
	}

	h.requirePhase(s, PhaseActive)
	if p, _ := s.Player(target.ID); p.Status != StatusAlive {
		t.Fatalf("target status = %s after a tie with skip", p.Status)
	}
	events := s.Events()
	var detail string
	for _, e := range events {
		if e.Kind == EventNoEjection {
			detail = e.Detail
		}
	}
	if detail != "tie" {
		t.Fatalf("no_ejection detail = %q", detail)
	}
}

func TestVotingTimeoutRemovesUnusedBallots(t *testing.T) {
	h, s, imp, crew := meeting(t)
	voter := crew[1].ID

	h.reg.Submit(voter, fmt.Sprintf("vote:%d", imp.ID))
	h.clock.Advance(DefaultSettings().MeetingWindow() - time.Second)
	h.requirePhase(s, PhaseDiscussion)
	h.clock.Advance(time.Second)
	h.requirePhase(s, PhaseGameOver)

	for _, p := range s.Players() {
		ballots := h.msgs.ballots(p.ID)
		if len(ballots) != 1 {
			t.Fatalf("player %d got %d ballots", p.ID, len(ballots))
		}
		b := ballots[0]
		if p.ID == voter {
			if b.Deleted || len(b.Edits) != 1 || b.Edits[0] != "You voted: "+imp.Name+"." {
				t.Fatalf("voter ballot = %+v", b)
			}
			continue
		}
		if !b.Deleted {
			t.Fatalf("unused ballot of player %d was not removed", p.ID)
		}
	}
	if p, _ := s.Player(imp.ID); p.Status != StatusEjected {
		t.Fatal("single vote should eject on timeout")
	}
}

func TestVoterRecastsWhenTargetLeaves(t *testing.T) {
	h, s, imp, crew := meeting(t)
	voter, target := crew[1], crew[2]

	h.reg.Submit(voter.ID, fmt.Sprintf("vote:%d", target.ID))
	if err := h.reg.Leave(target.ID); err != nil {
		t.Fatal(err)
	}

	h.requirePhase(s, PhaseDiscussion)
	if !h.msgs.received(voter.ID, target.Name+" left, vote again:") {
		t.Fatal("voter was not asked to vote again")
	}
	h.reg.Submit(voter.ID, fmt.Sprintf("vote:%d", imp.ID))
	if got := countEvents(s, EventVote); got != 2 {
		t.Fatalf("vote events = %d", got)
	}
}

func TestOldTimerCannotCloseNextMeeting(t *testing.T) {
	h, s, _, crew := meeting(t)
	for _, p := range s.Players() {
		h.reg.Submit(p.ID, "vote:skip")
	}
	h.requirePhase(s, PhaseActive)

	h.clock.Advance(10 * time.Second)
	h.reg.Submit(crew[1].ID, "emergency_meeting")
	h.requirePhase(s, PhaseDiscussion)

	h.clock.Advance(DefaultSettings().MeetingWindow() - 5*time.Second)
	h.requirePhase(s, PhaseDiscussion)
	h.clock.Advance(5 * time.Second)
	h.requirePhase(s, PhaseActive)
	if got := countEvents(s, EventNoEjection); got != 2 {
		t.Fatalf("no_ejection events = %d", got)
	}
}
