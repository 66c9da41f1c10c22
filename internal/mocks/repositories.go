package mocks

import (
	"context"
	"sync"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

// MockSessionRepository is an in-memory SessionRepository double. The func
// fields override individual operations; unset, it behaves like a working
// store backed by Sessions.
type MockSessionRepository struct {
	LoadFunc   func(ctx context.Context, userID string) (*domain.Session, error)
	SaveFunc   func(ctx context.Context, session *domain.Session) error
	DeleteFunc func(ctx context.Context, userID string) error
	PingFunc   func(ctx context.Context) error

	mu       sync.Mutex
	Sessions map[string]*domain.Session

	SaveCount   int
	DeleteCount int
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{Sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionRepository) Load(ctx context.Context, userID string) (*domain.Session, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	m.SaveCount++
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions[session.UserID] = session
	return nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	m.DeleteCount++
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, userID)
	return nil
}

func (m *MockSessionRepository) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockSessionRepository) Close() error { return nil }

// MockTurnArchive is a mock implementation of the TurnArchive and
// TurnAuditLog interfaces
type MockTurnArchive struct {
	ArchiveTurnFunc func(ctx context.Context, userID string, entry domain.HistoryEntry) error
	FindByUserFunc  func(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)

	mu       sync.Mutex
	Archived []domain.HistoryEntry
}

func (m *MockTurnArchive) ArchiveTurn(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	m.mu.Lock()
	m.Archived = append(m.Archived, entry)
	m.mu.Unlock()
	if m.ArchiveTurnFunc != nil {
		return m.ArchiveTurnFunc(ctx, userID, entry)
	}
	return nil
}

func (m *MockTurnArchive) FindByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, userID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.HistoryEntry(nil), m.Archived...), nil
}
