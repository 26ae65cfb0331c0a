package game

import "time"

type reactorSlot struct {
	holder    *Player
	confirmed bool
}

// sabotage is the single active sabotage of an active phase. Lights need one
// fixer; the reactor needs both locations held and confirmed at once.
type sabotage struct {
	kind      SabotageKind
	startedAt time.Time
	by        UserID
	fixer     *Player
	slots     [reactorLocations]reactorSlot
	meltdown  Timer
}

func newSabotage(kind SabotageKind, by UserID, at time.Time) *sabotage {
	return &sabotage{kind: kind, by: by, startedAt: at}
}

func (sb *sabotage) holding(p *Player) bool {
	if sb.fixer == p {
		return true
	}
	for _, slot := range sb.slots {
		if slot.holder == p {
			return true
		}
	}
	return false
}

// claim assigns p to the lights panel or to a reactor location. The first
// claimer wins; a player holds at most one claim.
func (sb *sabotage) claim(p *Player, location int) error {
	if sb.holding(p) {
		return reject("You are already working on the %s.", sb.kind)
	}
	switch sb.kind {
	case SabotageLights:
		if sb.fixer != nil {
			return reject("%s is already fixing the lights.", sb.fixer.Name)
		}
		sb.fixer = p
	case SabotageReactor:
		if location < 0 || location >= reactorLocations {
			return reject("The reactor has no location %d.", location+1)
		}
		if holder := sb.slots[location].holder; holder != nil {
			return reject("%s is already holding reactor location %d.", holder.Name, location+1)
		}
		sb.slots[location] = reactorSlot{holder: p}
	}
	return nil
}

// release drops every claim held by p, confirmed or not.
func (sb *sabotage) release(p *Player) bool {
	released := false
	if sb.fixer == p {
		sb.fixer = nil
		released = true
	}
	for i := range sb.slots {
		if sb.slots[i].holder == p {
			sb.slots[i] = reactorSlot{}
			released = true
		}
	}
	return released
}

// confirm records p's photo for the claim they hold and reports whether the
// sabotage is now resolved.
func (sb *sabotage) confirm(p *Player) (bool, error) {
	switch sb.kind {
	case SabotageLights:
		if sb.fixer != p {
			return false, reject("You are not fixing the lights.")
		}
		return true, nil
	case SabotageReactor:
		held := false
		for i := range sb.slots {
			if sb.slots[i].holder == p {
				sb.slots[i].confirmed = true
				held = true
			}
		}
		if !held {
			return false, reject("You are not holding a reactor location.")
		}
		for _, slot := range sb.slots {
			if slot.holder == nil || !slot.confirmed {
				return false, nil
			}
		}
		return true, nil
	}
	return false, reject("Unknown sabotage.")
}
