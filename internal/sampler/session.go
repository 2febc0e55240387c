package sampler

import (
	"errors"
	"time"
)

// ErrNoSession is returned by Stop when no session is active.
var ErrNoSession = errors.New("no active session")

// Session is an operator-labelled span of tracking.
type Session struct {
	Label     string
	StartTime time.Time
}

// SessionState is the NoSession / InSession(label) state machine. The zero
// value is NoSession.
type SessionState struct {
	current *Session
}

// Start enters InSession(label). A session that was already active is
// replaced and returned.
func (s *SessionState) Start(label string, now time.Time) (replaced *Session) {
	replaced = s.current
	s.current = &Session{Label: label, StartTime: now}
	return replaced
}

// Stop returns to NoSession and returns the session that ended.
func (s *SessionState) Stop() (*Session, error) {
	if s.current == nil {
		return nil, ErrNoSession
	}
	ended := s.current
	s.current = nil
	return ended, nil
}

// Current returns the active session, or nil.
func (s *SessionState) Current() *Session { return s.current }

// Label returns a pointer to the active label for persisting, or nil.
func (s *SessionState) Label() *string {
	if s.current == nil {
		return nil
	}
	label := s.current.Label
	return &label
}
