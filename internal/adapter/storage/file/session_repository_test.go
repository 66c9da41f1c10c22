package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()
	repo, err := NewSessionRepository(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	return repo.(*SessionRepository)
}

func TestSessionRepository_SaveLoadRoundtrip(t *testing.T) {
	// Arrange
	repo := newTestRepository(t)
	ctx := context.Background()
	session := domain.NewSession("690123456", time.Now().Truncate(time.Second))
	session.Pending = &domain.PendingIntent{
		Intent:    domain.IntentTransfer,
		Collected: map[string]string{"amount": "5000"},
		Missing:   []string{"senderPhone", "recipientPhone"},
	}
	session.AppendTurn(session.CreatedAt, domain.TurnData{
		TurnID: "turn-1",
		Intent: domain.IntentTransfer,
		Text:   "je veux envoyer 5000",
	})

	// Act
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := repo.Load(ctx, "690123456")

	// Assert
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.UserID != session.UserID {
		t.Errorf("expected user %q, got %q", session.UserID, loaded.UserID)
	}
	if loaded.Pending == nil || loaded.Pending.Collected["amount"] != "5000" {
		t.Errorf("pending intent did not survive the roundtrip: %+v", loaded.Pending)
	}
	if len(loaded.History) != 1 || loaded.History[0].Turn.TurnID != "turn-1" {
		t.Errorf("history did not survive the roundtrip: %+v", loaded.History)
	}
}

func TestSessionRepository_LoadMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Load(context.Background(), "690000000")

	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepository_LoadCorruptRecord(t *testing.T) {
	// Arrange: a record an operator mangled by hand.
	repo := newTestRepository(t)
	path := repo.path("690123456")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to plant corrupt record: %v", err)
	}

	// Act
	_, err := repo.Load(context.Background(), "690123456")

	// Assert
	if !errors.Is(err, domain.ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestSessionRepository_DeleteIsIdempotent(t *testing.T) {
	// Arrange
	repo := newTestRepository(t)
	ctx := context.Background()
	session := domain.NewSession("690123456", time.Now())
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Act + Assert
	if err := repo.Delete(ctx, "690123456"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "690123456"); err != nil {
		t.Errorf("deleting an absent record must not fail, got %v", err)
	}
	if _, err := repo.Load(ctx, "690123456"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSessionRepository_PathSanitizesSeparators(t *testing.T) {
	// Arrange
	repo := newTestRepository(t)

	// Act
	path := repo.path("../../etc/passwd")

	// Assert
	if filepath.Dir(path) != repo.dir {
		t.Errorf("expected record confined to the session dir, got %q", path)
	}
}

func TestSessionRepository_CancelledContext(t *testing.T) {
	// Arrange
	repo := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act + Assert
	if _, err := repo.Load(ctx, "690123456"); err == nil {
		t.Error("expected load to honour the cancelled context")
	}
	if err := repo.Save(ctx, domain.NewSession("690123456", time.Now())); err == nil {
		t.Error("expected save to honour the cancelled context")
	}
}

func TestSessionRepository_Ping(t *testing.T) {
	repo := newTestRepository(t)

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}
