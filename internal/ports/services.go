package ports

import (
	"context"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

// SpeechService transcribes an audio payload to text. Language is a hint
// ("fr", "en" or "auto").
type SpeechService interface {
	Transcribe(ctx context.Context, audio []byte, filename string, language string) (*domain.Transcription, error)
}

// NLUService maps an utterance (plus the pending-intent snapshot, when a
// multi-turn form is in flight) to a structured analysis.
type NLUService interface {
	Analyze(ctx context.Context, text string, pending *domain.PendingIntent) (*domain.NLUResult, error)
}

// BankingService executes a resolved action against the Bafoka backend.
// It performs a single attempt; retry policy belongs to the caller.
type BankingService interface {
	Execute(ctx context.Context, action domain.BankingAction) (*domain.ExecutionResult, error)
}

// ConversationService is the session lifecycle controller: it owns all
// mutations of persisted sessions.
type ConversationService interface {
	// RecordTurn merges one analyzed turn into the user's session, creating
	// the session on first contact. Concurrent turns for one user serialize.
	RecordTurn(ctx context.Context, userID string, turn *domain.NLUResult) (*domain.TurnResult, error)

	// FetchPending returns the in-flight pending intent, or nil when the
	// session is clean, absent or expired. Expired sessions are deleted as a
	// side effect.
	FetchPending(ctx context.Context, userID string) (*domain.PendingIntent, error)

	// GetSession returns a snapshot of the session.
	// Returns domain.ErrSessionNotFound for absent or expired sessions.
	GetSession(ctx context.Context, userID string) (*domain.Session, error)

	// Clear deletes the session outright. Idempotent.
	Clear(ctx context.Context, userID string) error
}

// AuthService authenticates API clients of this service.
type AuthService interface {
	IssueToken(ctx context.Context, clientID, clientSecret string) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.APIClient, error)
}

// ReplySender pushes the assistant's textual reply back to the user's
// messaging channel (WhatsApp in production).
type ReplySender interface {
	SendReply(ctx context.Context, to, body string) error
}

// AlertNotifier tells operations about a security-flagged turn.
type AlertNotifier interface {
	NotifySecurityAlert(ctx context.Context, userID, intent, details string) error
}
