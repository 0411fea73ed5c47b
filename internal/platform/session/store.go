package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/domain/assessment"
	"github.com/fetalcare/fetalcare/internal/domain/records"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
	"github.com/fetalcare/fetalcare/internal/platform/websocket"
)

// DefaultTTL is how long an untouched session lives.
const DefaultTTL = 30 * time.Minute

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = time.Minute

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session: not found")

// Factory builds the per-session components. The notifier delivers toasts to
// the new session only.
type Factory func(id string, n notification.Notifier) (*assessment.Controller, *records.Browser)

// Gauge receives the live session count.
type Gauge interface {
	SetSessions(n int)
}

type nopGauge struct{}

func (nopGauge) SetSessions(int) {}

// Session is one operator's console state.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *assessment.Controller
	Browser    *records.Browser

	lastSeen time.Time
}

// Info is the public description of a session.
type Info struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Option customises a Store.
type Option func(*Store)

// WithTTL sets the idle lifetime of a session.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithGauge reports the session count to g.
func WithGauge(g Gauge) Option {
	return func(s *Store) { s.gauge = g }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds live sessions in memory. Every lookup refreshes the session's
// idle timer; Sweep drops sessions idle for longer than the TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	center   *notification.Center
	factory  Factory
	gauge    Gauge
	logger   zerolog.Logger
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
}

// NewStore returns an empty store. Call Start to run the background sweep.
func NewStore(center *notification.Center, factory Factory, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		center:   center,
		factory:  factory,
		gauge:    nopGauge{},
		logger:   logger.With().Str("component", "session").Logger(),
		ttl:      DefaultTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session.
func (s *Store) Create() *Session {
	id := uuid.New().String()
	ctl, browser := s.factory(id, s.center.For(id))
	now := s.now()
	sess := &Session{
		ID:         id,
		CreatedAt:  now,
		Controller: ctl,
		Browser:    browser,
		lastSeen:   now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.gauge.SetSessions(n)
	s.logger.Info().Str("session_id", id).Msg("session created")
	return sess
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expiredLocked(sess) {
		return nil, ErrNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Info describes a live session.
func (s *Store) Info(id string) (Info, error) {
	sess, err := s.Get(id)
	if err != nil {
		return Info{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:        sess.ID,
		Topic:     websocket.SessionTopic(sess.ID),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.lastSeen.Add(s.ttl),
	}, nil
}

// Delete ends a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.center.Forget(id)
	s.gauge.SetSessions(n)
	s.logger.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Controller implements assessment.Sessions.
func (s *Store) Controller(id string) (*assessment.Controller, bool) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, false
	}
	return sess.Controller, true
}

// Browser implements records.Sessions.
func (s *Store) Browser(id string) (*records.Browser, bool) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, false
	}
	return sess.Browser, true
}

// Notifier implements records.Sessions.
func (s *Store) Notifier(id string) notification.Notifier {
	return s.center.For(id)
}

// Exists implements notification.SessionLookup.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return ok && !s.expiredLocked(sess)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if s.expiredLocked(sess) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, id := range expired {
		s.center.Forget(id)
	}
	if len(expired) > 0 {
		s.gauge.SetSessions(n)
		s.logger.Info().Int("expired", len(expired)).Int("remaining", n).Msg("expired sessions removed")
	}
	return len(expired)
}

// Start runs Sweep every interval until Close is called.
func (s *Store) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Close stops the background sweep. It is safe to call more than once.
func (s *Store) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Store) expiredLocked(sess *Session) bool {
	return s.now().Sub(sess.lastSeen) > s.ttl
}
