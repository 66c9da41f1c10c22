package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/adapter/queue"
	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/mocks"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

func newTestService(repo *mocks.MockSessionRepository, mq *mocks.MockMessageQueue, archive *mocks.MockTurnArchive) *Service {
	store := NewStore(repo, 30*time.Minute, time.Second, zap.NewNop())
	var q queue.MessageQueue
	if mq != nil {
		q = mq
	}
	var ta ports.TurnArchive
	if archive != nil {
		ta = archive
	}
	return NewService(store, q, ta, zap.NewNop())
}

func TestRecordTurn_CreatesSessionOnFirstTurn(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	turn := &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
		Text:       "je veux envoyer 5000",
	}

	// Act
	result, err := service.RecordTurn(context.Background(), "690123456", turn)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Created {
		t.Error("expected Created for a brand-new session")
	}
	if result.IsComplete {
		t.Error("transfer with only an amount must not be complete")
	}
	if result.Session.Pending == nil {
		t.Fatal("expected the pending intent persisted on the session")
	}
	if len(result.Session.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(result.Session.History))
	}
	if result.Session.History[0].Turn.TurnID == "" {
		t.Error("expected a turn ID assigned")
	}
}

func TestRecordTurn_MultiTurnCompletionClearsPending(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()
	userID := "690123456"

	// Act: fill the transfer slots across three turns.
	_, err := service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	})
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	_, err = service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"senderPhone": "690111111"},
	})
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	result, err := service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"recipientPhone": "690222222"},
	})
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}

	// Assert
	if !result.IsComplete || !result.ExecutionReady {
		t.Errorf("expected completion after the last slot, got complete=%v ready=%v", result.IsComplete, result.ExecutionReady)
	}
	if result.Session.Pending != nil {
		t.Error("a completed intent must not persist as pending")
	}
	if result.Pending == nil {
		t.Fatal("expected the merged pending intent in the result")
	}
	if result.Pending.Collected["amount"] != "5000" {
		t.Errorf("expected slots accumulated across turns, got %v", result.Pending.Collected)
	}
	if result.Created {
		t.Error("the third turn must not report a created session")
	}
}

func TestRecordTurn_UnknownPreservesPending(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()
	userID := "690123456"
	service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	})

	// Act: an off-topic utterance mid-form.
	result, err := service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent: domain.IntentUnknown,
		Text:   "quel temps fait-il",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Session.Pending == nil {
		t.Fatal("unknown turn must not clear the pending intent")
	}
	if result.Session.Pending.Collected["amount"] != "5000" {
		t.Errorf("expected in-flight slots preserved, got %v", result.Session.Pending.Collected)
	}
	if len(result.Session.History) != 2 {
		t.Errorf("unknown turn still belongs in history, got %d entries", len(result.Session.History))
	}
}

func TestRecordTurn_TopicSwitchReplacesPending(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()
	userID := "690123456"
	service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	})

	// Act
	result, err := service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent: domain.IntentCreateAccount,
		Parameters: map[string]string{
			"name": "Amina",
		},
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Session.Pending.Intent != domain.IntentCreateAccount {
		t.Errorf("expected pending switched to %q, got %q", domain.IntentCreateAccount, result.Session.Pending.Intent)
	}
	if _, carried := result.Session.Pending.Collected["amount"]; carried {
		t.Error("topic switch must discard the previous intent's slots")
	}
}

func TestRecordTurn_PublishesEventAndArchives(t *testing.T) {
	// Arrange
	mq := &mocks.MockMessageQueue{}
	archive := &mocks.MockTurnArchive{}
	service := newTestService(mocks.NewMockSessionRepository(), mq, archive)

	// Act
	_, err := service.RecordTurn(context.Background(), "690123456", &domain.NLUResult{
		Intent:     domain.IntentBalance,
		Parameters: map[string]string{"phoneNumber": "690123456"},
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	published := mq.GetPublishedMessages()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	if published[0].Subject != "session.turn.recorded" {
		t.Errorf("expected subject session.turn.recorded, got %q", published[0].Subject)
	}
	var event struct {
		UserID     string `json:"user_id"`
		Intent     string `json:"intent"`
		IsComplete bool   `json:"is_complete"`
	}
	if err := json.Unmarshal(published[0].Data, &event); err != nil {
		t.Fatalf("event payload is not JSON: %v", err)
	}
	if event.UserID != "690123456" || event.Intent != domain.IntentBalance || !event.IsComplete {
		t.Errorf("unexpected event payload: %+v", event)
	}
	if len(archive.Archived) != 1 {
		t.Errorf("expected 1 archived turn, got %d", len(archive.Archived))
	}
}

func TestRecordTurn_ConcurrentTurnsForOneUser(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()
	userID := "690123456"
	var wg sync.WaitGroup

	// Act: two slots arrive concurrently for the same user.
	wg.Add(2)
	go func() {
		defer wg.Done()
		service.RecordTurn(ctx, userID, &domain.NLUResult{
			Intent:     domain.IntentTransfer,
			Parameters: map[string]string{"senderPhone": "690111111"},
		})
	}()
	go func() {
		defer wg.Done()
		service.RecordTurn(ctx, userID, &domain.NLUResult{
			Intent:     domain.IntentTransfer,
			Parameters: map[string]string{"recipientPhone": "690222222"},
		})
	}()
	wg.Wait()

	// Assert: neither update was lost.
	pending, err := service.FetchPending(ctx, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pending == nil {
		t.Fatal("expected a pending intent")
	}
	if pending.Collected["senderPhone"] != "690111111" || pending.Collected["recipientPhone"] != "690222222" {
		t.Errorf("expected both concurrent slots merged, got %v", pending.Collected)
	}

	session, err := service.GetSession(ctx, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(session.History) != 2 {
		t.Errorf("expected both turns in history, got %d", len(session.History))
	}
}

func TestFetchPending_NilCases(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()

	// Act + Assert: absent session is not an error.
	pending, err := service.FetchPending(ctx, "690000000")
	if err != nil {
		t.Fatalf("expected no error for absent session, got %v", err)
	}
	if pending != nil {
		t.Errorf("expected nil pending for absent session, got %+v", pending)
	}

	// A clean session (completed intent) also yields nil.
	service.RecordTurn(ctx, "690123456", &domain.NLUResult{
		Intent:     domain.IntentBalance,
		Parameters: map[string]string{"phoneNumber": "690123456"},
	})
	pending, err = service.FetchPending(ctx, "690123456")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pending != nil {
		t.Errorf("expected nil pending after completion, got %+v", pending)
	}
}

func TestFetchPending_ReturnsIsolatedClone(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()
	userID := "690123456"
	service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	})

	// Act
	pending, _ := service.FetchPending(ctx, userID)
	pending.Collected["amount"] = "tampered"

	// Assert
	fresh, _ := service.FetchPending(ctx, userID)
	if fresh.Collected["amount"] != "5000" {
		t.Error("mutating the fetched clone must not touch the session")
	}
}

func TestGetSession_SnapshotIsolation(t *testing.T) {
	// Arrange
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)
	ctx := context.Background()
	userID := "690123456"
	service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	})

	// Act
	snapshot, err := service.GetSession(ctx, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	snapshot.History = append(snapshot.History, domain.HistoryEntry{})
	snapshot.Pending.Collected["amount"] = "tampered"

	// Assert
	fresh, _ := service.GetSession(ctx, userID)
	if len(fresh.History) != 1 {
		t.Errorf("expected snapshot history isolated, got %d entries", len(fresh.History))
	}
	if fresh.Pending.Collected["amount"] != "5000" {
		t.Error("expected snapshot pending isolated from the session")
	}
}

func TestGetSession_Missing(t *testing.T) {
	service := newTestService(mocks.NewMockSessionRepository(), nil, nil)

	_, err := service.GetSession(context.Background(), "690000000")

	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestClear_RemovesSession(t *testing.T) {
	// Arrange
	repo := mocks.NewMockSessionRepository()
	service := newTestService(repo, nil, nil)
	ctx := context.Background()
	userID := "690123456"
	service.RecordTurn(ctx, userID, &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	})

	// Act
	if err := service.Clear(ctx, userID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if _, err := service.GetSession(ctx, userID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after clear, got %v", err)
	}
	if repo.DeleteCount == 0 {
		t.Error("expected the durable copy deleted")
	}
}
