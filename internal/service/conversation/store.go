package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

// Store keeps the in-process working copy of every live session and mirrors
// it to a durable backend. The in-memory copy is the source of truth for this
// process: a failed durable write is logged and retried on the next Put,
// never surfaced to the caller.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	durable   ports.SessionRepository
	timeout   time.Duration
	ioTimeout time.Duration
	log       *zap.Logger
}

// NewStore creates a session store. sessionTimeout is the idle expiry;
// ioTimeout bounds every durable read/write.
func NewStore(durable ports.SessionRepository, sessionTimeout, ioTimeout time.Duration, log *zap.Logger) *Store {
	if ioTimeout <= 0 {
		ioTimeout = 2 * time.Second
	}
	return &Store{
		sessions:  make(map[string]*domain.Session),
		durable:   durable,
		timeout:   sessionTimeout,
		ioTimeout: ioTimeout,
		log:       log,
	}
}

// Get returns the live session for userID, loading the durable copy on a
// memory miss. Expired sessions are deleted (memory and durable) and reported
// as domain.ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Session, error) {
	now := time.Now()

	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()

	if ok {
		if session.Expired(s.timeout, now) {
			s.log.Info("Session expired", zap.String("user_id", userID))
			telemetry.SessionExpiries.Inc()
			s.Delete(ctx, userID)
			return nil, domain.ErrSessionNotFound
		}
		return session, nil
	}

	loaded, err := s.loadDurable(ctx, userID)
	if err != nil {
		return nil, err
	}
	if loaded.Expired(s.timeout, now) {
		s.log.Info("Durable session expired", zap.String("user_id", userID))
		telemetry.SessionExpiries.Inc()
		s.deleteDurable(ctx, userID)
		return nil, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	// Another goroutine may have raced the load; keep whichever copy is
	// already in memory so writers never get two working copies.
	if existing, ok := s.sessions[userID]; ok {
		loaded = existing
	} else {
		s.sessions[userID] = loaded
	}
	s.mu.Unlock()

	return loaded, nil
}

// Put replaces the working copy and mirrors it to the durable backend.
func (s *Store) Put(ctx context.Context, session *domain.Session) {
	s.mu.Lock()
	s.sessions[session.UserID] = session
	s.mu.Unlock()

	ioCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ioTimeout)
	defer cancel()
	if err := s.durable.Save(ioCtx, session); err != nil {
		s.log.Error("Durable session write failed, in-memory copy remains authoritative",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
	}
}

// Delete removes both copies. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	s.deleteDurable(ctx, userID)
}

// Len reports the number of sessions currently held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) loadDurable(ctx context.Context, userID string) (*domain.Session, error) {
	ioCtx, cancel := context.WithTimeout(ctx, s.ioTimeout)
	defer cancel()

	session, err := s.durable.Load(ioCtx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		// Unreadable backend degrades to NotFound; the turn proceeds on a
		// fresh session rather than failing.
		s.log.Error("Durable session read failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) deleteDurable(ctx context.Context, userID string) {
	ioCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ioTimeout)
	defer cancel()
	if err := s.durable.Delete(ioCtx, userID); err != nil {
		s.log.Error("Durable session delete failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
