package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type entry struct {
	session  *basicpdf.Session
	lastSeen time.Time
}

// Store keeps the signing sessions of every client in memory.
// Sessions idle for longer than the ttl are dropped by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	toolkit  *basicpdf.Toolkit
	ttl      time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewStore(toolkit *basicpdf.Toolkit, ttl time.Duration, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Store{
		sessions: make(map[string]*entry),
		toolkit:  toolkit,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a new session and returns its id.
func (s *Store) Create(variant basicpdf.Variant) (string, *basicpdf.Session) {
	id := uuid.NewString()
	sess := basicpdf.NewSession(s.toolkit, variant)

	s.mu.Lock()
	s.sessions[id] = &entry{session: sess, lastSeen: s.now()}
	s.mu.Unlock()

	s.logger.Debugf("Created %s session %s", variant, id)
	return id, sess
}

// Get returns the session and marks it as used.
func (s *Store) Get(id string) (*basicpdf.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.session, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		e.session.Reset()
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(e *entry) bool {
	return s.now().Sub(e.lastSeen) > s.ttl
}

// Sweep drops the expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.RLock()
	var stale []string
	for id, e := range s.sessions {
		if s.expired(e) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		s.mu.Lock()
		e, ok := s.sessions[id]
		if ok && s.expired(e) {
			delete(s.sessions, id)
			removed++
		}
		s.mu.Unlock()
		if ok {
			e.session.Reset()
		}
	}

	if removed > 0 {
		s.logger.Infof("Dropped %d expired sessions", removed)
	}
	return removed
}

// Run sweeps on every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
