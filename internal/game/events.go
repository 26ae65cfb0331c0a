package game

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventJoined        EventKind = "joined"
	EventLeft          EventKind = "left"
	EventGameStarted   EventKind = "game_started"
	EventTaskCompleted EventKind = "task_completed"
	EventFakeTask      EventKind = "fake_task"
	EventKill          EventKind = "kill"
	EventSelfReport    EventKind = "self_report"
	EventSabotage      EventKind = "sabotage"
	EventSabotageFixed EventKind = "sabotage_fixed"
	EventMeltdown      EventKind = "reactor_meltdown"
	EventScan          EventKind = "scan"
	EventBodyReported  EventKind = "body_reported"
	EventEmergency     EventKind = "emergency_meeting"
	EventVote          EventKind = "vote"
	EventEjected       EventKind = "ejected"
	EventNoEjection    EventKind = "no_ejection"
	EventGameOver      EventKind = "game_over"
)

// Event is an immutable gameplay record. Actor is nil for system events.
type Event struct {
	ID     uuid.UUID
	Actor  *UserID
	Kind   EventKind
	Detail string
	At     time.Time
	Photo  string
}

// EventLog is an append-only, time-ordered list of events.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Append(event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.events)
	if n == 0 || !event.At.Before(l.events[n-1].At) {
		l.events = append(l.events, event)
		return
	}
	i := sort.Search(n, func(i int) bool { return l.events[i].At.After(event.At) })
	l.events = append(l.events, Event{})
	copy(l.events[i+1:], l.events[i:])
	l.events[i] = event
}

// Events returns a copy of the log.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// reset replaces the log with events, which must already be in order.
func (l *EventLog) reset(events []Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = events
}

func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
