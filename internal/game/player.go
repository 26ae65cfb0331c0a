package game

const noPending = -1

type Task struct {
	Name string
	Done bool
}

// Player is one participant of a session. All fields are guarded by the
// owning session's lock.
type Player struct {
	ID           UserID
	Name         string
	Address      string
	Role         Role
	Status       LifeStatus
	Tasks        []Task
	MeetingsUsed int

	pending   int
	bodyFound bool
}

func newPlayer(id UserID, name string) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		Status:  StatusAlive,
		pending: noPending,
	}
}

func (p *Player) Alive() bool {
	return p.Status == StatusAlive
}

func (p *Player) IsImpostor() bool {
	return p.Role == RoleImpostor
}

// setStatus moves an alive player to Killed or Ejected. Once a player has
// left the Alive state the status never changes again.
func (p *Player) setStatus(status LifeStatus) bool {
	if p.Status != StatusAlive || status == StatusAlive {
		return false
	}
	p.Status = status
	p.pending = noPending
	return true
}

// Pending returns the task index awaiting photo confirmation.
func (p *Player) Pending() (int, bool) {
	if p.pending == noPending {
		return 0, false
	}
	return p.pending, true
}

func (p *Player) claimPending(index int) error {
	if p.pending != noPending {
		return reject("task %q is still waiting for its photo", p.Tasks[p.pending].Name)
	}
	if index < 0 || index >= len(p.Tasks) {
		return reject("no task #%d", index)
	}
	if p.Tasks[index].Done {
		return reject("task %q is already done", p.Tasks[index].Name)
	}
	p.pending = index
	return nil
}

// completePending marks the pending task done and clears the marker.
func (p *Player) completePending() (Task, bool) {
	if p.pending == noPending {
		return Task{}, false
	}
	index := p.pending
	p.pending = noPending
	p.Tasks[index].Done = true
	return p.Tasks[index], true
}

func (p *Player) clearPending() {
	p.pending = noPending
}

func (p *Player) CompletedTasks() int {
	done := 0
	for _, task := range p.Tasks {
		if task.Done {
			done++
		}
	}
	return done
}

// Progress is the task completion percentage, rounded down. A crewmate with
// no tasks counts as finished; impostor progress is cosmetic and an empty
// fake list reads as zero.
func (p *Player) Progress() int {
	if len(p.Tasks) == 0 {
		if p.IsImpostor() {
			return 0
		}
		return 100
	}
	return p.CompletedTasks() * 100 / len(p.Tasks)
}

// Reset returns the player to a pristine state for a new game in the same
// session. Identity and address are kept.
func (p *Player) Reset() {
	p.Role = RoleNone
	p.Status = StatusAlive
	p.Tasks = nil
	p.MeetingsUsed = 0
	p.pending = noPending
	p.bodyFound = false
}

func (p *Player) recipient() Recipient {
	return Recipient{User: p.ID, Address: p.Address}
}
