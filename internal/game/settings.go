package game

import (
	"fmt"
	"sort"
	"time"
)

type Knob string

const (
	KnobImpostors    Knob = "impostors"
	KnobMeetings     Knob = "meetings"
	KnobDiscussion   Knob = "discussion"
	KnobVoting       Knob = "voting"
	KnobTasks        Knob = "tasks"
	KnobKillCooldown Knob = "cooldown"
)

type Bounds struct {
	Min int
	Max int
}

var knobBounds = map[Knob]Bounds{
	KnobImpostors:    {Min: 1, Max: 3},
	KnobMeetings:     {Min: 0, Max: 5},
	KnobDiscussion:   {Min: 15, Max: 300},
	KnobVoting:       {Min: 15, Max: 300},
	KnobTasks:        {Min: 1, Max: len(taskCatalog)},
	KnobKillCooldown: {Min: 10, Max: 120},
}

// Settings are the per-session game knobs. Durations are in seconds.
type Settings struct {
	Impostors           int
	EmergencyMeetings   int
	DiscussionSeconds   int
	VotingSeconds       int
	TasksPerPlayer      int
	KillCooldownSeconds int
}

func DefaultSettings() Settings {
	return Settings{
		Impostors:           1,
		EmergencyMeetings:   1,
		DiscussionSeconds:   60,
		VotingSeconds:       30,
		TasksPerPlayer:      5,
		KillCooldownSeconds: 30,
	}
}

func KnobBounds(knob Knob) (Bounds, bool) {
	b, ok := knobBounds[knob]
	return b, ok
}

func Knobs() []Knob {
	knobs := make([]Knob, 0, len(knobBounds))
	for knob := range knobBounds {
		knobs = append(knobs, knob)
	}
	sort.Slice(knobs, func(i, j int) bool { return knobs[i] < knobs[j] })
	return knobs
}

// MaxImpostorsFor maps a player count to the largest impostor count it
// supports.
func MaxImpostorsFor(players int) int {
	switch {
	case players < 5:
		return 1
	case players <= 10:
		return 2
	default:
		return 3
	}
}

func (s *Settings) field(knob Knob) *int {
	switch knob {
	case KnobImpostors:
		return &s.Impostors
	case KnobMeetings:
		return &s.EmergencyMeetings
	case KnobDiscussion:
		return &s.DiscussionSeconds
	case KnobVoting:
		return &s.VotingSeconds
	case KnobTasks:
		return &s.TasksPerPlayer
	case KnobKillCooldown:
		return &s.KillCooldownSeconds
	}
	return nil
}

func (s Settings) Get(knob Knob) (int, bool) {
	field := s.field(knob)
	if field == nil {
		return 0, false
	}
	return *field, true
}

// Set validates value against the knob range and, for impostors, against the
// current player count.
func (s *Settings) Set(knob Knob, value, players int) error {
	bounds, ok := knobBounds[knob]
	if !ok {
		return reject("unknown setting %q", knob)
	}
	if value < bounds.Min || value > bounds.Max {
		return reject("%s must be between %d and %d", knob, bounds.Min, bounds.Max)
	}
	if knob == KnobImpostors {
		if limit := MaxImpostorsFor(players); value > limit {
			return reject("%d players allow at most %d impostors", players, limit)
		}
	}
	*s.field(knob) = value
	return nil
}

// Clamp lowers the impostor count to what the player count allows.
func (s *Settings) Clamp(players int) bool {
	limit := MaxImpostorsFor(players)
	if s.Impostors > limit {
		s.Impostors = limit
		return true
	}
	if s.Impostors < knobBounds[KnobImpostors].Min {
		s.Impostors = knobBounds[KnobImpostors].Min
		return true
	}
	return false
}

func (s Settings) Validate() error {
	for knob, bounds := range knobBounds {
		value, _ := s.Get(knob)
		if value < bounds.Min || value > bounds.Max {
			return fmt.Errorf("setting %s=%d out of range [%d,%d]", knob, value, bounds.Min, bounds.Max)
		}
	}
	return nil
}

func (s Settings) KillCooldown() time.Duration {
	return time.Duration(s.KillCooldownSeconds) * time.Second
}

// MeetingWindow is the single combined discussion and voting window.
func (s Settings) MeetingWindow() time.Duration {
	return time.Duration(s.DiscussionSeconds+s.VotingSeconds) * time.Second
}
