package game

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry maps session codes and users to sessions. Registry state and a
// session's player set change together: the registry lock is always taken
// before a session lock, never after. The maps only follow a session change
// that committed, and outbound delivery happens after the registry lock is
// released so a slow transport never holds up other sessions.
type Registry struct {
	deps     sessionDeps
	settings Settings
	newCode  func() string

	mu       sync.Mutex
	sessions map[string]*Session
	members  map[UserID]string
}

// RegistryConfig holds the collaborators shared by every session. Resolve
// returns the transport address a user is already reachable at, or "".
type RegistryConfig struct {
	Messenger Messenger
	Sink      ReportSink
	Clock     Clock
	Logger    *zap.Logger
	Rules     Rules
	Settings  Settings
	NewCode   func() string
	Resolve   func(UserID) string
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Messenger == nil {
		cfg.Messenger = discardMessenger{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Rules == (Rules{}) {
		cfg.Rules = DefaultRules()
	}
	if cfg.Settings == (Settings{}) {
		cfg.Settings = DefaultSettings()
	}
	if cfg.NewCode == nil {
		cfg.NewCode = NewCode
	}
	if cfg.Resolve == nil {
		cfg.Resolve = func(UserID) string { return "" }
	}
	return &Registry{
		deps: sessionDeps{
			rules:     cfg.Rules,
			clock:     cfg.Clock,
			messenger: cfg.Messenger,
			sink:      cfg.Sink,
			resolve:   cfg.Resolve,
			logger:    cfg.Logger,
		},
		settings: cfg.Settings,
		newCode:  cfg.NewCode,
		sessions: make(map[string]*Session),
		members:  make(map[UserID]string),
	}
}

// Create opens a new session with host as its only player.
func (r *Registry) Create(host UserID, name string) (*Session, error) {
	r.mu.Lock()
	if r.liveMembership(host) != "" {
		r.mu.Unlock()
		return nil, ErrAlreadyInSession
	}
	code := r.uniqueCode()
	s := newSession(code, r.deps, r.settings)
	s.begin()
	ok := s.guard(func() { s.start(host, name) })
	if ok {
		r.sessions[code] = s
		r.members[host] = code
	}
	d := s.commit(ok)
	r.mu.Unlock()
	d.send()
	if !ok {
		return nil, errors.New("create session failed")
	}
	r.deps.logger.Info("session created", zap.String("session", code), zap.Stringer("host", host))
	return s, nil
}

// Join adds user to the lobby identified by code.
func (r *Registry) Join(code string, user UserID, name string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	r.mu.Lock()
	s, ok := r.sessions[code]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	if current := r.liveMembership(user); current != "" && current != code {
		r.mu.Unlock()
		return ErrAlreadyInSession
	}
	var err error
	s.begin()
	ok = s.guard(func() { err = s.addPlayer(user, name) })
	if ok && err == nil {
		r.members[user] = code
	}
	d := s.commit(ok && err == nil)
	r.mu.Unlock()
	d.send()
	if !ok {
		return errors.New("join session failed")
	}
	if err == nil {
		r.deps.logger.Info("player joined", zap.String("session", code), zap.Stringer("user", user))
	}
	return err
}

// Leave removes user from their session. An emptied session is deleted.
func (r *Registry) Leave(user UserID) error {
	r.mu.Lock()
	code, ok := r.members[user]
	if !ok {
		r.mu.Unlock()
		return ErrNotInSession
	}
	s, ok := r.sessions[code]
	if !ok {
		delete(r.members, user)
		r.mu.Unlock()
		r.deps.logger.Warn("removed membership of missing session", zap.String("session", code), zap.Stringer("user", user))
		return ErrNotInSession
	}
	var empty bool
	var err error
	s.begin()
	ok = s.guard(func() {
		empty, err = s.removePlayer(user)
		if empty {
			s.shutdown("")
		}
	})
	if ok {
		delete(r.members, user)
		if empty {
			delete(r.sessions, code)
		}
	}
	d := s.commit(ok)
	r.mu.Unlock()
	d.send()
	if !ok {
		return errors.New("leave session failed")
	}
	if errors.Is(err, ErrNotInSession) {
		r.deps.logger.Warn("membership pointed at a session without the player", zap.String("session", code), zap.Stringer("user", user))
	}
	if empty {
		r.deps.logger.Info("session deleted", zap.String("session", code))
	}
	return err
}

// Close ends a session and unregisters all of its players.
func (r *Registry) Close(code, reason string) error {
	r.mu.Lock()
	s, ok := r.sessions[code]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	var remaining []UserID
	s.begin()
	ok = s.guard(func() { remaining = s.shutdown(reason) })
	if ok {
		for _, user := range remaining {
			if r.members[user] == code {
				delete(r.members, user)
			}
		}
		delete(r.sessions, code)
	}
	d := s.commit(ok)
	r.mu.Unlock()
	d.send()
	if !ok {
		return errors.New("close session failed")
	}
	r.deps.logger.Info("session closed", zap.String("session", code), zap.String("reason", reason), zap.Int("players", len(remaining)))
	return nil
}

// Sweep closes every session idle for longer than idle and returns their
// codes.
func (r *Registry) Sweep(idle time.Duration) []string {
	cutoff := r.deps.clock.Now().Add(-idle)
	var expired []string
	for _, summary := range r.Sessions() {
		if summary.IdleSince.Before(cutoff) {
			expired = append(expired, summary.Code)
		}
	}
	for _, code := range expired {
		_ = r.Close(code, "This session was closed after a long period of inactivity.")
	}
	return expired
}

func (r *Registry) Session(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[strings.ToUpper(code)]
	return s, ok
}

// SessionOf returns the session user belongs to, repairing a membership
// that points at a deleted session.
func (r *Registry) SessionOf(user UserID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code := r.liveMembership(user)
	if code == "" {
		return nil, false
	}
	return r.sessions[code], true
}

func (r *Registry) Sessions() []Summary {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()
	list := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, s.Summary())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// Submit parses an action token and routes it to the user's session.
// Malformed tokens are logged and dropped.
func (r *Registry) Submit(user UserID, token string) {
	act, err := ParseAction(token)
	if err != nil {
		r.deps.logger.Warn("malformed action ignored", zap.Stringer("user", user), zap.Error(err))
		return
	}
	s, ok := r.SessionOf(user)
	if !ok {
		r.deps.logger.Debug("action from user outside any session", zap.Stringer("user", user), zap.String("action", token))
		return
	}
	s.Dispatch(user, act)
}

func (r *Registry) ConfirmTaskPhoto(user UserID, photo string) {
	if s, ok := r.SessionOf(user); ok {
		s.ConfirmTaskPhoto(user, photo)
	}
}

func (r *Registry) ConfirmSabotagePhoto(user UserID, photo string) {
	if s, ok := r.SessionOf(user); ok {
		s.ConfirmSabotagePhoto(user, photo)
	}
}

func (r *Registry) Allowed(user UserID, kind ActionKind) bool {
	s, ok := r.SessionOf(user)
	if !ok {
		return false
	}
	return s.Allowed(user, kind)
}

// Bind records the transport address of user.
func (r *Registry) Bind(user UserID, address string) bool {
	s, ok := r.SessionOf(user)
	if !ok {
		return false
	}
	return s.bind(user, address)
}

// liveMembership returns the code of the session user is registered to,
// dropping the mapping when that session no longer exists. Requires r.mu.
func (r *Registry) liveMembership(user UserID) string {
	code, ok := r.members[user]
	if !ok {
		return ""
	}
	if _, live := r.sessions[code]; !live {
		delete(r.members, user)
		r.deps.logger.Warn("removed membership of missing session", zap.String("session", code), zap.Stringer("user", user))
		return ""
	}
	return code
}

func (r *Registry) uniqueCode() string {
	for {
		code := r.newCode()
		if _, taken := r.sessions[code]; !taken {
			return code
		}
	}
}
