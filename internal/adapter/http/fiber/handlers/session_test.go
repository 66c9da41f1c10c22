package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/mocks"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

func newSessionApp(conv *mocks.MockConversationService, archive *mocks.MockTurnArchive) *fiber.App {
	var audit ports.TurnAuditLog
	if archive != nil {
		audit = archive
	}
	handler := NewSessionHandler(conv, audit, zap.NewNop())

	app := fiber.New()
	app.Get("/sessions/:user_id", handler.Get)
	app.Get("/sessions/:user_id/pending", handler.GetPending)
	app.Get("/sessions/:user_id/history", handler.History)
	app.Delete("/sessions/:user_id", handler.Delete)
	return app
}

func TestSessionHandler_Get_NormalizesUserID(t *testing.T) {
	// Arrange
	var requested string
	conv := &mocks.MockConversationService{
		GetSessionFunc: func(ctx context.Context, userID string) (*domain.Session, error) {
			requested = userID
			return domain.NewSession(userID, time.Now()), nil
		},
	}
	app := newSessionApp(conv, nil)

	// Act
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/sessions/+237690123456", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if requested != "690123456" {
		t.Errorf("expected normalized user ID '690123456', got '%s'", requested)
	}
}

func TestSessionHandler_GetPending_NormalizesUserID(t *testing.T) {
	// Arrange
	var requested string
	conv := &mocks.MockConversationService{
		FetchPendingFunc: func(ctx context.Context, userID string) (*domain.PendingIntent, error) {
			requested = userID
			return nil, nil
		},
	}
	app := newSessionApp(conv, nil)

	// Act
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/sessions/+237690123456/pending", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if requested != "690123456" {
		t.Errorf("expected normalized user ID '690123456', got '%s'", requested)
	}
}

func TestSessionHandler_Delete_NormalizesUserID(t *testing.T) {
	// Arrange
	conv := &mocks.MockConversationService{}
	app := newSessionApp(conv, nil)

	// Act
	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/sessions/+237690123456", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if len(conv.ClearedUsers) != 1 || conv.ClearedUsers[0] != "690123456" {
		t.Errorf("expected clear of '690123456', got %v", conv.ClearedUsers)
	}
}

func TestSessionHandler_History_ReturnsArchivedTurns(t *testing.T) {
	// Arrange
	var requested string
	var requestedLimit int
	archive := &mocks.MockTurnArchive{
		FindByUserFunc: func(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
			requested = userID
			requestedLimit = limit
			return []domain.HistoryEntry{
				{Timestamp: time.Now(), Turn: domain.TurnData{TurnID: "turn-1", Intent: domain.IntentTransfer}},
			}, nil
		},
	}
	app := newSessionApp(&mocks.MockConversationService{}, archive)

	// Act
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/sessions/+237690123456/history", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if requested != "690123456" {
		t.Errorf("expected normalized user ID '690123456', got '%s'", requested)
	}
	if requestedLimit != 50 {
		t.Errorf("expected default limit 50, got %d", requestedLimit)
	}

	var body struct {
		UserID string                `json:"user_id"`
		Turns  []domain.HistoryEntry `json:"turns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.UserID != "690123456" {
		t.Errorf("expected response user_id '690123456', got '%s'", body.UserID)
	}
	if len(body.Turns) != 1 || body.Turns[0].Turn.TurnID != "turn-1" {
		t.Errorf("expected one archived turn 'turn-1', got %+v", body.Turns)
	}
}

func TestSessionHandler_History_HonorsLimitQuery(t *testing.T) {
	// Arrange
	var requestedLimit int
	archive := &mocks.MockTurnArchive{
		FindByUserFunc: func(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
			requestedLimit = limit
			return nil, nil
		},
	}
	app := newSessionApp(&mocks.MockConversationService{}, archive)

	// Act
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/sessions/690123456/history?limit=5", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if requestedLimit != 5 {
		t.Errorf("expected limit 5, got %d", requestedLimit)
	}
}

func TestSessionHandler_History_UnavailableWithoutArchive(t *testing.T) {
	// Arrange
	app := newSessionApp(&mocks.MockConversationService{}, nil)

	// Act
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/sessions/690123456/history", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.StatusCode)
	}
}
