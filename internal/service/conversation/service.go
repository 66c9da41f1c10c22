package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/adapter/queue"
	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

// Service is the session lifecycle controller. It is the only component that
// mutates persisted sessions; everything else goes through it.
type Service struct {
	store   *Store
	locks   *keyLocks
	queue   queue.MessageQueue
	archive ports.TurnArchive
	log     *zap.Logger
}

// NewService wires the lifecycle controller. queue and archive may be nil
// when eventing/audit archiving is disabled.
func NewService(store *Store, mq queue.MessageQueue, archive ports.TurnArchive, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		locks:   newKeyLocks(64),
		queue:   mq,
		archive: archive,
		log:     log,
	}
}

type turnRecordedEvent struct {
	UserID         string    `json:"user_id"`
	TurnID         string    `json:"turn_id"`
	Intent         string    `json:"intent"`
	IsComplete     bool      `json:"is_complete"`
	ExecutionReady bool      `json:"execution_ready"`
	SecurityAlert  bool      `json:"security_alert"`
	Timestamp      time.Time `json:"timestamp"`
}

// RecordTurn merges one analyzed turn into the user's session and persists
// the result. The whole read-merge-write sequence holds the user's key lock,
// so concurrent turns for one user serialize and neither update is lost.
func (s *Service) RecordTurn(ctx context.Context, userID string, turn *domain.NLUResult) (*domain.TurnResult, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	now := time.Now()

	created := false
	session, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		session = domain.NewSession(userID, now)
		created = true
		s.log.Info("New session started", zap.String("user_id", userID))
	}

	outcome := Merge(session.Pending, turn, now)

	switch {
	case outcome.Untouched:
		// Unknown intent: the in-flight form survives an off-topic utterance.
	case outcome.IsComplete:
		// A completed intent never persists as pending.
		session.Pending = nil
	default:
		session.Pending = outcome.Pending
	}

	turnID := uuid.NewString()
	entry := domain.TurnData{
		TurnID:        turnID,
		Text:          turn.Text,
		Intent:        turn.Intent,
		Parameters:    turn.Parameters,
		Language:      turn.Language,
		SecurityAlert: turn.SecurityAlert,
	}
	session.AppendTurn(now, entry)
	session.Touch(now)

	s.store.Put(ctx, session)
	s.archiveTurn(ctx, userID, domain.HistoryEntry{Timestamp: now, Turn: entry})
	s.publishTurn(turnRecordedEvent{
		UserID:         userID,
		TurnID:         turnID,
		Intent:         turn.Intent,
		IsComplete:     outcome.IsComplete,
		ExecutionReady: outcome.ExecutionReady,
		SecurityAlert:  turn.SecurityAlert,
		Timestamp:      now,
	})

	status := "pending"
	if outcome.IsComplete {
		status = "complete"
	}
	telemetry.TurnsRecorded.WithLabelValues(turn.Intent, status).Inc()
	telemetry.ActiveSessions.Set(float64(s.store.Len()))

	return &domain.TurnResult{
		Session:        session,
		Pending:        outcome.Pending,
		IsComplete:     outcome.IsComplete,
		ExecutionReady: outcome.ExecutionReady,
		Created:        created,
	}, nil
}

// FetchPending returns the pending intent for userID, or nil when the session
// is clean, absent or expired.
func (s *Service) FetchPending(ctx context.Context, userID string) (*domain.PendingIntent, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	session, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session.Pending.Clone(), nil
}

// GetSession returns a snapshot of the user's session.
func (s *Service) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	session, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.Session{
		UserID:       session.UserID,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
		Pending:      session.Pending.Clone(),
		History:      append([]domain.HistoryEntry(nil), session.History...),
	}
	return snapshot, nil
}

// Clear deletes the session outright.
func (s *Service) Clear(ctx context.Context, userID string) error {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	s.store.Delete(ctx, userID)
	s.log.Info("Session cleared", zap.String("user_id", userID))
	return nil
}

func (s *Service) archiveTurn(ctx context.Context, userID string, entry domain.HistoryEntry) {
	if s.archive == nil {
		return
	}
	if err := s.archive.ArchiveTurn(ctx, userID, entry); err != nil {
		s.log.Error("Turn archive write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *Service) publishTurn(event turnRecordedEvent) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.queue.Publish("session.turn.recorded", payload); err != nil {
		s.log.Warn("Turn event publish failed", zap.Error(err))
	}
}
