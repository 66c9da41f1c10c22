package mocks

import (
	"context"
	"time"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

// MockSpeechService is a mock implementation of the SpeechService interface
type MockSpeechService struct {
	TranscribeFunc func(ctx context.Context, audio []byte, filename string, language string) (*domain.Transcription, error)
}

func (m *MockSpeechService) Transcribe(ctx context.Context, audio []byte, filename string, language string) (*domain.Transcription, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, filename, language)
	}
	return &domain.Transcription{}, nil
}

// MockNLUService is a mock implementation of the NLUService interface
type MockNLUService struct {
	AnalyzeFunc func(ctx context.Context, text string, pending *domain.PendingIntent) (*domain.NLUResult, error)

	// AnalyzeCalls records the pending snapshot handed to each call.
	AnalyzeCalls []*domain.PendingIntent
}

func (m *MockNLUService) Analyze(ctx context.Context, text string, pending *domain.PendingIntent) (*domain.NLUResult, error) {
	m.AnalyzeCalls = append(m.AnalyzeCalls, pending)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, text, pending)
	}
	return &domain.NLUResult{Intent: domain.IntentUnknown, Text: text}, nil
}

// MockBankingService is a mock implementation of the BankingService interface
type MockBankingService struct {
	ExecuteFunc func(ctx context.Context, action domain.BankingAction) (*domain.ExecutionResult, error)

	ExecutedActions []domain.BankingAction
}

func (m *MockBankingService) Execute(ctx context.Context, action domain.BankingAction) (*domain.ExecutionResult, error) {
	m.ExecutedActions = append(m.ExecutedActions, action)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, action)
	}
	return &domain.ExecutionResult{Success: true, StatusCode: 200}, nil
}

// MockConversationService is a mock implementation of the ConversationService interface
type MockConversationService struct {
	RecordTurnFunc   func(ctx context.Context, userID string, turn *domain.NLUResult) (*domain.TurnResult, error)
	FetchPendingFunc func(ctx context.Context, userID string) (*domain.PendingIntent, error)
	GetSessionFunc   func(ctx context.Context, userID string) (*domain.Session, error)
	ClearFunc        func(ctx context.Context, userID string) error

	ClearedUsers []string
}

func (m *MockConversationService) RecordTurn(ctx context.Context, userID string, turn *domain.NLUResult) (*domain.TurnResult, error) {
	if m.RecordTurnFunc != nil {
		return m.RecordTurnFunc(ctx, userID, turn)
	}
	return &domain.TurnResult{Session: domain.NewSession(userID, time.Now())}, nil
}

func (m *MockConversationService) FetchPending(ctx context.Context, userID string) (*domain.PendingIntent, error) {
	if m.FetchPendingFunc != nil {
		return m.FetchPendingFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConversationService) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, userID)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockConversationService) Clear(ctx context.Context, userID string) error {
	m.ClearedUsers = append(m.ClearedUsers, userID)
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, userID)
	}
	return nil
}

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	IssueTokenFunc    func(ctx context.Context, clientID, clientSecret string) (string, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.APIClient, error)
}

func (m *MockAuthService) IssueToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	if m.IssueTokenFunc != nil {
		return m.IssueTokenFunc(ctx, clientID, clientSecret)
	}
	return "mock-token", nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*domain.APIClient, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return &domain.APIClient{ID: "mock-client"}, nil
}

// MockReplySender is a mock implementation of the ReplySender interface
type MockReplySender struct {
	SendReplyFunc func(ctx context.Context, to, body string) error

	SentReplies []string
}

func (m *MockReplySender) SendReply(ctx context.Context, to, body string) error {
	m.SentReplies = append(m.SentReplies, body)
	if m.SendReplyFunc != nil {
		return m.SendReplyFunc(ctx, to, body)
	}
	return nil
}

// MockAlertNotifier is a mock implementation of the AlertNotifier interface
type MockAlertNotifier struct {
	NotifySecurityAlertFunc func(ctx context.Context, userID, intent, details string) error

	Alerts []string
}

func (m *MockAlertNotifier) NotifySecurityAlert(ctx context.Context, userID, intent, details string) error {
	m.Alerts = append(m.Alerts, userID)
	if m.NotifySecurityAlertFunc != nil {
		return m.NotifySecurityAlertFunc(ctx, userID, intent, details)
	}
	return nil
}
