// Package session holds the live master key, username and session
// token for the single active authenticated session of the process.
//
// The session is the only shared mutable state in the client core. It
// is either fully populated or fully empty: Initialize swaps the whole
// state under one lock, and every accessor reads through a single
// snapshot, so a torn read (a key without its matching username) can
// never be observed.
//
// The master key rests in a memguard Enclave while the session is
// active, so it stays encrypted in process memory except for the short
// window an accessor holds a decrypted copy.
package session

import (
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/keywarden/internal/util"
)

// InactivityTimeout is the fixed idle lifetime of a session. Any
// accessor hit after this much idle time tears the session down and
// reports no session.
const InactivityTimeout = 30 * time.Minute

// Session is the process-wide holder of live secret material.
// Construct with New; the zero value is usable but shares no clock
// customisation.
type Session struct {
	mu           sync.Mutex
	key          *memguard.Enclave
	username     string
	token        string
	lastActivity time.Time
	now          func() time.Time
}

// Option customises session construction.
type Option func(*Session)

// WithClock injects the time source, for tests that need to simulate
// inactivity.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize transitions the session to Active with the given key,
// username and token. The key bytes are copied into an enclave; the
// caller keeps ownership of (and should wipe) its own copy. Any
// previous state is discarded wholesale; callers need not tear down an
// existing session before re-authenticating.
func (s *Session) Initialize(key []byte, username, token string) {
	enclave := memguard.NewEnclave(util.CopyBytes(key))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = enclave
	s.username = username
	s.token = token
	s.lastActivity = s.now()
}

// Key returns a copy of the master key, or ok=false if the session is
// empty or has expired. The caller must wipe the returned copy when
// done. Reading the key refreshes the inactivity deadline.
func (s *Session) Key() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return nil, false
	}
	buf, err := s.key.Open()
	if err != nil {
		// Enclave failure means the key is unrecoverable; drop the session.
		s.clearLocked()
		return nil, false
	}
	defer buf.Destroy()
	key := util.CopyBytes(buf.Bytes())
	s.lastActivity = s.now()
	return key, true
}

// Username returns the authenticated username, or ok=false if the
// session is empty or expired.
func (s *Session) Username() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return "", false
	}
	s.lastActivity = s.now()
	return s.username, true
}

// Token returns the server session token, or ok=false if the session
// is empty or expired.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return "", false
	}
	s.lastActivity = s.now()
	return s.token, true
}

// Active reports whether a non-expired session is present without
// refreshing the inactivity deadline.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return false
	}
	return s.now().Sub(s.lastActivity) <= InactivityTimeout
}

// Clear transitions the session to Empty, dropping the key enclave and
// all identity fields. It is idempotent and safe to call concurrently
// with in-flight accessors.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// activeLocked checks liveness and tears the session down on expiry.
// Callers hold s.mu.
func (s *Session) activeLocked() bool {
	if s.key == nil {
		return false
	}
	if s.now().Sub(s.lastActivity) > InactivityTimeout {
		s.clearLocked()
		return false
	}
	return true
}

func (s *Session) clearLocked() {
	s.key = nil
	s.username = ""
	s.token = ""
	s.lastActivity = time.Time{}
}
