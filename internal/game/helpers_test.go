package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only moves when Advance is called. Due timers fire on the
// calling goroutine, outside the clock lock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due, rest []*fakeTimer
	for _, t := range c.timers {
		switch {
		case t.stopped || t.fired:
		case !t.at.After(c.now):
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type sentMessage struct {
	To      Recipient
	Ref     MessageRef
	Text    string
	Menu    *Menu
	Edits   []string
	Deleted bool
}

type fakeMessenger struct {
	mu       sync.Mutex
	messages []*sentMessage
	byRef    map[MessageRef]*sentMessage
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{byRef: make(map[MessageRef]*sentMessage)}
}

func (m *fakeMessenger) SendMessage(_ context.Context, to Recipient, text string, menu *Menu) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := &sentMessage{To: to, Ref: MessageRef(uuid.NewString()), Text: text, Menu: menu}
	m.messages = append(m.messages, msg)
	m.byRef[msg.Ref] = msg
	return msg.Ref, nil
}

func (m *fakeMessenger) DeleteMessage(_ context.Context, _ Recipient, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.byRef[ref]
	if !ok {
		return fmt.Errorf("unknown message %s", ref)
	}
	msg.Deleted = true
	return nil
}

func (m *fakeMessenger) EditMessageText(_ context.Context, _ Recipient, ref MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.byRef[ref]
	if !ok {
		return fmt.Errorf("unknown message %s", ref)
	}
	msg.Edits = append(msg.Edits, text)
	return nil
}

func (m *fakeMessenger) to(user UserID) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, msg := range m.messages {
		if msg.To.User == user {
			out = append(out, *msg)
		}
	}
	return out
}

// received reports whether user got a message containing substr.
func (m *fakeMessenger) received(user UserID, substr string) bool {
	for _, msg := range m.to(user) {
		if strings.Contains(msg.Text, substr) {
			return true
		}
	}
	return false
}

func (m *fakeMessenger) count(user UserID, substr string) int {
	n := 0
	for _, msg := range m.to(user) {
		if strings.Contains(msg.Text, substr) {
			n++
		}
	}
	return n
}

// ballots returns the ballot messages sent to user.
func (m *fakeMessenger) ballots(user UserID) []sentMessage {
	var out []sentMessage
	for _, msg := range m.to(user) {
		if msg.Menu == nil {
			continue
		}
		for _, row := range msg.Menu.Rows {
			if len(row) > 0 && strings.HasPrefix(row[0].Action, string(ActVote)+":") {
				out = append(out, msg)
				break
			}
		}
	}
	return out
}

type fakeSink struct {
	mu      sync.Mutex
	reports []Report
}

func (f *fakeSink) SaveReport(_ context.Context, report Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeSink) saved() []Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Report(nil), f.reports...)
}

type harness struct {
	t     *testing.T
	clock *fakeClock
	msgs  *fakeMessenger
	sink  *fakeSink
	reg   *Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		clock: newFakeClock(),
		msgs:  newFakeMessenger(),
		sink:  &fakeSink{},
	}
	h.reg = NewRegistry(RegistryConfig{
		Messenger: h.msgs,
		Sink:      h.sink,
		Clock:     h.clock,
		Logger:    zaptest.NewLogger(t),
	})
	return h
}

func playerName(id UserID) string {
	return fmt.Sprintf("p%d", id)
}

// lobby creates a session hosted by user 1 with players 1..n, all bound to
// an address.
func (h *harness) lobby(n int) *Session {
	h.t.Helper()
	s, err := h.reg.Create(1, playerName(1))
	if err != nil {
		h.t.Fatalf("create session: %v", err)
	}
	h.reg.Bind(1, "addr-1")
	for id := UserID(2); id <= UserID(n); id++ {
		if err := h.reg.Join(s.Code(), id, playerName(id)); err != nil {
			h.t.Fatalf("join %d: %v", id, err)
		}
		h.reg.Bind(id, fmt.Sprintf("addr-%d", id))
	}
	return s
}

// active starts a game of n players with the given impostor count and
// waits out the setup delay.
func (h *harness) active(n, impostors int) *Session {
	h.t.Helper()
	s := h.lobby(n)
	if impostors != 1 {
		h.reg.Submit(1, fmt.Sprintf("settings:impostors:%d", impostors))
	}
	h.reg.Submit(1, "start")
	h.requirePhase(s, PhaseSetup)
	h.clock.Advance(DefaultRules().SetupDelay)
	h.requirePhase(s, PhaseActive)
	return s
}

func (h *harness) requirePhase(s *Session, want PhaseKind) {
	h.t.Helper()
	if got := s.Summary().Phase; got != want {
		h.t.Fatalf("phase = %s, want %s", got, want)
	}
}

func (h *harness) split(s *Session) (impostors, crew []PlayerView) {
	for _, p := range s.Players() {
		if p.Role == RoleImpostor {
			impostors = append(impostors, p)
		} else {
			crew = append(crew, p)
		}
	}
	return impostors, crew
}

func (h *harness) finishTasks(p PlayerView) {
	for i := range p.TasksTotal {
		h.reg.Submit(p.ID, fmt.Sprintf("task:%d", i))
		h.reg.ConfirmTaskPhoto(p.ID, fmt.Sprintf("photo-%d-%d", p.ID, i))
	}
}

func countEvents(s *Session, kind EventKind) int {
	n := 0
	for _, e := range s.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// currentPhase reads the installed phase under the session lock.
func currentPhase(s *Session) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}
