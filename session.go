package tempo

import (
	"fmt"
	"sync"
)

// Session is one media session: string variables read by playback and
// written by administration, an optional processing State, and hangup
// hooks that run exactly once when the session ends.
type Session struct {
	id string

	mu     sync.Mutex
	vars   map[string]string
	state  *State
	hooks  []func(*Session)
	hooked bool // state release hook registered
	hungUp bool
}

// NewSession creates a live session with the given identity.
func NewSession(id string) *Session {
	return &Session{
		id:   id,
		vars: make(map[string]string),
	}
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// Var returns a session variable, or "" if it is unset.
func (s *Session) Var(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars[name]
}

// LookupVar returns a session variable and whether it is set.
func (s *Session) LookupVar(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	return v, ok
}

// SetVar sets a session variable. An empty value unsets it.
func (s *Session) SetVar(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.vars, name)
		return
	}
	s.vars[name] = value
}

// State returns the attached processing state, or nil.
func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnHangup registers fn to run when the session hangs up. If the session
// has already hung up, fn runs immediately.
func (s *Session) OnHangup(fn func(*Session)) {
	s.mu.Lock()
	if !s.hungUp {
		s.hooks = append(s.hooks, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn(s)
}

// Hangup ends the session and runs its hooks in registration order. Calls
// after the first do nothing.
func (s *Session) Hangup() {
	s.mu.Lock()
	if s.hungUp {
		s.mu.Unlock()
		return
	}
	s.hungUp = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
}

// HungUp reports whether the session has ended.
func (s *Session) HungUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hungUp
}

// acquireState returns the session's processing state, creating it on
// first use. The release hook is registered with the first creation only.
func acquireState(sess *Session, factory EngineFactory) (*State, error) {
	sess.mu.Lock()
	if sess.hungUp {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, sess.id)
	}
	if sess.state != nil {
		st := sess.state
		sess.mu.Unlock()
		return st, nil
	}

	st, err := newState(factory)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.state = st
	if !sess.hooked {
		sess.hooked = true
		sess.hooks = append(sess.hooks, releaseOnHangup)
	}
	sess.mu.Unlock()
	return st, nil
}

func releaseOnHangup(sess *Session) {
	ReleaseState(sess)
}

// ReleaseState detaches the session's processing state and releases its
// engine. It reports whether there was state to release; releasing a
// session without state is a no-op.
func ReleaseState(sess *Session) bool {
	sess.mu.Lock()
	st := sess.state
	sess.state = nil
	sess.mu.Unlock()

	if st == nil {
		return false
	}
	_ = st.Close()
	return true
}
