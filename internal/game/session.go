package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const deliveryTimeout = 10 * time.Second

// Rules are process-wide timings that players cannot change.
type Rules struct {
	SetupDelay      time.Duration
	ReactorMeltdown time.Duration
}

func DefaultRules() Rules {
	return Rules{
		SetupDelay:      10 * time.Second,
		ReactorMeltdown: 45 * time.Second,
	}
}

type outKind int

const (
	outSend outKind = iota
	outEdit
	outDelete
	outEffect
)

type outbound struct {
	kind   outKind
	to     Recipient
	text   string
	menu   *Menu
	ref    MessageRef
	sent   func(ref MessageRef)
	effect func(ctx context.Context)
}

// Session is one game lobby. The player set, settings and current phase are
// guarded by mu; outbound messages collected under mu are delivered after it
// is released.
type Session struct {
	code      string
	rules     Rules
	clock     Clock
	messenger Messenger
	sink      ReportSink
	resolve   func(UserID) string
	logger    *zap.Logger
	events    *EventLog

	mu           sync.Mutex
	hostID       UserID
	players      map[UserID]*Player
	order        []UserID
	settings     Settings
	phase        Phase
	exiting      Phase
	phaseStarted time.Time
	gameStarted  time.Time
	lastActivity time.Time
	closed       bool
	outbox       []outbound
	issued       uint64

	// Batches are delivered in commit order: each commit takes a ticket under
	// mu and delivery waits on turn until served reaches it.
	turnMu sync.Mutex
	turn   *sync.Cond
	served uint64
}

type Summary struct {
	Code         string
	Host         UserID
	Phase        PhaseKind
	Players      int
	Settings     Settings
	PhaseStarted time.Time
	IdleSince    time.Time
}

type PlayerView struct {
	ID           UserID
	Name         string
	Host         bool
	Role         Role
	Status       LifeStatus
	TasksDone    int
	TasksTotal   int
	Progress     int
	MeetingsUsed int
	Pending      bool
}

type sessionDeps struct {
	rules     Rules
	clock     Clock
	messenger Messenger
	sink      ReportSink
	resolve   func(UserID) string
	logger    *zap.Logger
}

func newSession(code string, deps sessionDeps, settings Settings) *Session {
	now := deps.clock.Now()
	s := &Session{
		code:         code,
		rules:        deps.rules,
		clock:        deps.clock,
		messenger:    deps.messenger,
		sink:         deps.sink,
		resolve:      deps.resolve,
		logger:       deps.logger.With(zap.String("session", code)),
		events:       NewEventLog(),
		players:      make(map[UserID]*Player),
		settings:     settings,
		phaseStarted: now,
		lastActivity: now,
	}
	s.turn = sync.NewCond(&s.turnMu)
	return s
}

func (s *Session) Code() string {
	return s.code
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Code:         s.code,
		Host:         s.hostID,
		Phase:        s.phase.Kind(),
		Players:      len(s.players),
		Settings:     s.settings,
		PhaseStarted: s.phaseStarted,
		IdleSince:    s.lastActivity,
	}
}

func (s *Session) Players() []PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]PlayerView, 0, len(s.players))
	for _, p := range s.members() {
		views = append(views, s.view(p))
	}
	return views
}

func (s *Session) Player(id UserID) (PlayerView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return PlayerView{}, false
	}
	return s.view(p), true
}

func (s *Session) view(p *Player) PlayerView {
	_, pending := p.Pending()
	return PlayerView{
		ID:           p.ID,
		Name:         p.Name,
		Host:         p.ID == s.hostID,
		Role:         p.Role,
		Status:       p.Status,
		TasksDone:    p.CompletedTasks(),
		TasksTotal:   len(p.Tasks),
		Progress:     p.Progress(),
		MeetingsUsed: p.MeetingsUsed,
		Pending:      pending,
	}
}

// Events returns the gameplay log of the current game.
func (s *Session) Events() []Event {
	return s.events.Events()
}

// Allowed reports whether the current phase accepts kind from user.
func (s *Session) Allowed(user UserID, kind ActionKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[user]
	if !ok || s.closed {
		return false
	}
	return s.phase.Allows(s, p, kind)
}

// Dispatch routes an action to the current phase and applies any resulting
// transition. Rejections are reported to the actor only.
func (s *Session) Dispatch(user UserID, act Action) {
	s.update(func() {
		if s.closed {
			return
		}
		actor, ok := s.players[user]
		if !ok {
			s.logger.Warn("action from player outside session", zap.Stringer("user", user), zap.String("action", string(act.Kind)))
			return
		}
		s.lastActivity = s.now()
		if !s.phase.Allows(s, actor, act.Kind) {
			s.tell(actor, fmt.Sprintf("You can't use %q during %s.", act.Kind, s.phase.Kind()), nil)
			return
		}
		next, err := s.phase.Handle(s, actor, act)
		if err != nil {
			var rejected *RejectedError
			if errors.As(err, &rejected) {
				s.tell(actor, rejected.Reason, nil)
				return
			}
			s.logger.Error("action failed", zap.Stringer("user", user), zap.String("action", string(act.Kind)), zap.Error(err))
			return
		}
		if next != nil {
			s.transition(next)
		}
	})
}

func (s *Session) ConfirmTaskPhoto(user UserID, photo string) {
	s.Dispatch(user, Action{Kind: ActConfirmTask, Photo: photo})
}

func (s *Session) ConfirmSabotagePhoto(user UserID, photo string) {
	s.Dispatch(user, Action{Kind: ActConfirmRepair, Photo: photo})
}

func (s *Session) bind(user UserID, address string) bool {
	found := false
	s.update(func() {
		if p, ok := s.players[user]; ok {
			p.Address = address
			found = true
		}
	})
	return found
}

// start installs the lobby phase with the host as the only player.
func (s *Session) start(host UserID, name string) {
	p := newPlayer(host, name)
	p.Address = s.resolve(host)
	s.players[host] = p
	s.order = append(s.order, host)
	s.hostID = host
	s.record(p, EventJoined, name, "")
	s.phase = newLobbyPhase(s.now())
	s.phase.Enter(s)
}

func (s *Session) addPlayer(id UserID, name string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.players[id]; ok {
		return nil
	}
	if len(s.players) >= MaxPlayers {
		return ErrSessionFull
	}
	if s.phase.Kind() != PhaseLobby {
		return ErrGameInProgress
	}
	p := newPlayer(id, name)
	p.Address = s.resolve(id)
	s.players[id] = p
	s.order = append(s.order, id)
	s.lastActivity = s.now()
	s.settings.Clamp(len(s.players))
	s.record(p, EventJoined, name, "")
	s.broadcast(fmt.Sprintf("%s joined the lobby (%d/%d).", name, len(s.players), MaxPlayers))
	return nil
}

// removePlayer drops a member, reassigns the host and clamps settings. It
// reports whether the session is now empty.
func (s *Session) removePlayer(id UserID) (bool, error) {
	p, ok := s.players[id]
	if !ok {
		return false, ErrNotInSession
	}
	s.tell(p, fmt.Sprintf("You left session %s.", s.code), nil)
	delete(s.players, id)
	s.order = slices.DeleteFunc(s.order, func(other UserID) bool { return other == id })
	s.lastActivity = s.now()
	s.record(p, EventLeft, p.Name, "")
	if len(s.players) == 0 {
		return true, nil
	}
	s.broadcast(fmt.Sprintf("%s left the session.", p.Name))
	if s.hostID == id {
		s.hostID = s.order[0]
		s.broadcast(fmt.Sprintf("%s is the new host.", s.players[s.hostID].Name))
	}
	if s.settings.Clamp(len(s.players)) {
		s.broadcast(fmt.Sprintf("Impostor count lowered to %d.", s.settings.Impostors))
	}
	if next := s.phase.PlayerLeft(s, p); next != nil {
		s.transition(next)
	}
	return false, nil
}

// shutdown releases the current phase and marks the session closed. It
// returns the players that were still registered.
func (s *Session) shutdown(reason string) []UserID {
	if s.closed {
		return nil
	}
	s.phase.Exit(s)
	s.closed = true
	if reason != "" {
		s.broadcast(reason)
	}
	remaining := slices.Clone(s.order)
	s.players = make(map[UserID]*Player)
	s.order = nil
	return remaining
}

func (s *Session) transition(next Phase) {
	prev := s.phase
	s.exiting = prev
	prev.Exit(s)
	s.exiting = nil
	s.phase = next
	s.phaseStarted = s.now()
	s.logger.Info("phase changed", zap.String("from", string(prev.Kind())), zap.String("to", string(next.Kind())))
	next.Enter(s)
}

// schedule runs fire on the timer facility. The callback is dropped if owner
// is no longer the current phase by the time it acquires the session lock.
func (s *Session) schedule(owner Phase, d time.Duration, fire func(s *Session) Phase) Timer {
	return s.clock.AfterFunc(d, func() {
		s.update(func() {
			if s.closed || s.phase != owner {
				return
			}
			if next := fire(s); next != nil {
				s.transition(next)
			}
		})
	})
}

func (s *Session) update(fn func()) {
	s.begin()
	ok := s.guard(fn)
	s.commit(ok).send()
}

func (s *Session) begin() {
	s.mu.Lock()
}

// guard runs fn and turns a panic into an operator log entry. A panicking
// fn is rolled back to the state the session had before it ran; the caller
// drops the outbound batch when guard reports failure.
func (s *Session) guard(fn func()) (ok bool) {
	cp := s.checkpoint()
	defer func() {
		if r := recover(); r != nil {
			phase := PhaseKind("")
			if s.phase != nil {
				phase = s.phase.Kind()
			}
			s.logger.Error("phase logic panicked", zap.String("phase", string(phase)), zap.Any("panic", r), zap.Stack("stack"))
			s.rollback(cp)
			ok = false
		}
	}()
	fn()
	return true
}

type playerState struct {
	ptr *Player
	val Player
}

// checkpoint is the session state an action can change outside the phase
// object itself.
type checkpoint struct {
	phase        Phase
	players      []playerState
	order        []UserID
	hostID       UserID
	settings     Settings
	phaseStarted time.Time
	gameStarted  time.Time
	lastActivity time.Time
	closed       bool
	events       []Event
}

func (s *Session) checkpoint() checkpoint {
	cp := checkpoint{
		phase:        s.phase,
		players:      make([]playerState, 0, len(s.players)),
		order:        slices.Clone(s.order),
		hostID:       s.hostID,
		settings:     s.settings,
		phaseStarted: s.phaseStarted,
		gameStarted:  s.gameStarted,
		lastActivity: s.lastActivity,
		closed:       s.closed,
		events:       s.events.Events(),
	}
	for _, p := range s.players {
		val := *p
		val.Tasks = slices.Clone(p.Tasks)
		cp.players = append(cp.players, playerState{ptr: p, val: val})
	}
	return cp
}

// rollback restores cp. Player records are restored in place so phase state
// holding *Player keeps pointing at session members. A phase entered by the
// failed action is exited and the previous phase resumes its timers.
func (s *Session) rollback(cp checkpoint) {
	switched := s.phase != cp.phase
	if switched && s.phase != nil {
		s.quietly("abandon phase", s.phase.Exit)
	}
	// Exit may have stopped the previous phase's timers before panicking.
	exited := switched || s.exiting == cp.phase
	s.exiting = nil
	s.players = make(map[UserID]*Player, len(cp.players))
	for _, st := range cp.players {
		*st.ptr = st.val
		s.players[st.ptr.ID] = st.ptr
	}
	s.order = cp.order
	s.hostID = cp.hostID
	s.settings = cp.settings
	s.phase = cp.phase
	s.phaseStarted = cp.phaseStarted
	s.gameStarted = cp.gameStarted
	s.lastActivity = cp.lastActivity
	s.closed = cp.closed
	s.events.reset(cp.events)
	if exited && cp.phase != nil && !cp.closed {
		s.quietly("resume phase", cp.phase.resume)
	}
}

// quietly runs a cleanup step of a rollback, logging instead of propagating
// a second panic.
func (s *Session) quietly(step string, fn func(*Session)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("rollback step panicked", zap.String("step", step), zap.Any("panic", r))
		}
	}()
	fn(s)
}

type delivery struct {
	s      *Session
	ticket uint64
	batch  []outbound
}

// commit takes a delivery ticket and releases the session lock. It never
// waits, so callers may hold the registry lock.
func (s *Session) commit(ok bool) *delivery {
	batch := s.outbox
	s.outbox = nil
	if !ok {
		batch = nil
	}
	ticket := s.issued
	s.issued++
	s.mu.Unlock()
	return &delivery{s: s, ticket: ticket, batch: batch}
}

// send waits for the earlier batches of the session, delivers this one and
// then runs the delivery acknowledgements. It must be called without the
// registry lock held.
func (d *delivery) send() {
	s := d.s
	s.turnMu.Lock()
	for s.served != d.ticket {
		s.turn.Wait()
	}
	s.turnMu.Unlock()
	acks := d.deliver()
	for _, ack := range acks {
		ack()
	}
}

func (d *delivery) deliver() []func() {
	s := d.s
	defer func() {
		s.turnMu.Lock()
		s.served++
		s.turn.Broadcast()
		s.turnMu.Unlock()
	}()
	return s.deliver(d.batch)
}

func (s *Session) deliver(batch []outbound) []func() {
	if len(batch) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	var acks []func()
	for _, out := range batch {
		if out.kind == outEffect {
			out.effect(ctx)
			continue
		}
		if out.to.Address == "" {
			s.logger.Debug("recipient has no address yet", zap.Stringer("user", out.to.User))
			continue
		}
		switch out.kind {
		case outSend:
			ref, err := s.messenger.SendMessage(ctx, out.to, out.text, out.menu)
			if err != nil {
				s.logger.Warn("send message failed", zap.Stringer("user", out.to.User), zap.Error(err))
				continue
			}
			if out.sent != nil {
				sent := out.sent
				acks = append(acks, func() { s.update(func() { sent(ref) }) })
			}
		case outEdit:
			if err := s.messenger.EditMessageText(ctx, out.to, out.ref, out.text); err != nil {
				s.logger.Warn("edit message failed", zap.Stringer("user", out.to.User), zap.Error(err))
			}
		case outDelete:
			if err := s.messenger.DeleteMessage(ctx, out.to, out.ref); err != nil {
				s.logger.Warn("delete message failed", zap.Stringer("user", out.to.User), zap.Error(err))
			}
		}
	}
	return acks
}

func (s *Session) now() time.Time {
	return s.clock.Now()
}

// members returns players in join order.
func (s *Session) members() []*Player {
	out := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.players[id])
	}
	return out
}

func (s *Session) alive() []*Player {
	out := make([]*Player, 0, len(s.order))
	for _, p := range s.members() {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) isHost(p *Player) bool {
	return p.ID == s.hostID
}

func (s *Session) tell(p *Player, text string, menu *Menu) {
	s.outbox = append(s.outbox, outbound{kind: outSend, to: p.recipient(), text: text, menu: menu})
}

// tellTracked sends a message and hands its reference to sent under the
// session lock once delivered.
func (s *Session) tellTracked(p *Player, text string, menu *Menu, sent func(MessageRef)) {
	s.outbox = append(s.outbox, outbound{kind: outSend, to: p.recipient(), text: text, menu: menu, sent: sent})
}

func (s *Session) edit(p *Player, ref MessageRef, text string) {
	s.outbox = append(s.outbox, outbound{kind: outEdit, to: p.recipient(), ref: ref, text: text})
}

func (s *Session) unsend(p *Player, ref MessageRef) {
	s.outbox = append(s.outbox, outbound{kind: outDelete, to: p.recipient(), ref: ref})
}

func (s *Session) broadcast(text string) {
	for _, p := range s.members() {
		s.tell(p, text, nil)
	}
}

func (s *Session) afterCommit(effect func(ctx context.Context)) {
	s.outbox = append(s.outbox, outbound{kind: outEffect, effect: effect})
}

func (s *Session) record(actor *Player, kind EventKind, detail, photo string) {
	event := Event{Kind: kind, Detail: detail, At: s.now(), Photo: photo}
	if actor != nil {
		id := actor.ID
		event.Actor = &id
	}
	s.events.Append(event)
}

func (s *Session) names(players []*Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
