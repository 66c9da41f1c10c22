package ports

import (
	"context"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

// SessionRepository is the durable backend for session records: one
// structured, human-readable record per user. Implementations must return
// domain.ErrSessionNotFound for absent records and degrade corrupt records to
// the same error rather than propagating a decode failure.
type SessionRepository interface {
	Load(ctx context.Context, userID string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
	Close() error
}

// TurnArchive keeps a long-term audit trail of recorded turns, independent of
// session expiry. Archiving is best-effort; failures never fail a turn.
type TurnArchive interface {
	ArchiveTurn(ctx context.Context, userID string, entry domain.HistoryEntry) error
}

// TurnAuditLog is the read side of the turn archive, backing the session
// history API. Entries come back newest first.
type TurnAuditLog interface {
	FindByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
}
