package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/adapter/queue"
	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

// Service orchestrates one voice turn end to end: transcription, analysis,
// session recording and, when the collected form is complete, execution
// against the banking backend. Collaborator failures are wrapped with the
// collaborator's name; session state stays untouched when a collaborator
// fails before RecordTurn.
type Service struct {
	stt     ports.SpeechService
	nlu     ports.NLUService
	bank    ports.BankingService
	conv    ports.ConversationService
	replies ports.ReplySender
	alerts  ports.AlertNotifier
	queue   queue.MessageQueue
	log     *zap.Logger
}

// NewService wires the pipeline. replies, alerts and queue may be nil when
// the corresponding channel is disabled.
func NewService(
	stt ports.SpeechService,
	nlu ports.NLUService,
	bank ports.BankingService,
	conv ports.ConversationService,
	replies ports.ReplySender,
	alerts ports.AlertNotifier,
	mq queue.MessageQueue,
	log *zap.Logger,
) *Service {
	return &Service{
		stt:     stt,
		nlu:     nlu,
		bank:    bank,
		conv:    conv,
		replies: replies,
		alerts:  alerts,
		queue:   mq,
		log:     log,
	}
}

type bankingExecutedEvent struct {
	UserID    string    `json:"user_id"`
	Intent    string    `json:"intent"`
	Endpoint  string    `json:"endpoint"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

type securityAlertEvent struct {
	UserID    string    `json:"user_id"`
	Intent    string    `json:"intent"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcribe converts one audio payload to text without touching any session.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename, language string) (*domain.Transcription, error) {
	tr, err := s.stt.Transcribe(ctx, audio, filename, language)
	if err != nil {
		return nil, domain.NewCollaboratorError("stt", err)
	}
	return tr, nil
}

// Analyze runs one textual turn through the NLU and records it against the
// user's session. It never executes banking actions; callers that want
// automatic execution use Process.
func (s *Service) Analyze(ctx context.Context, userID, text string) (*domain.AssistantReply, error) {
	reply, _, err := s.analyzeTurn(ctx, userID, text)
	return reply, err
}

// Process runs one textual turn through the full pipeline: analyze, record,
// and execute the banking action when the form is complete and unflagged.
func (s *Service) Process(ctx context.Context, userID, text string) (*domain.AssistantReply, error) {
	reply, result, err := s.analyzeTurn(ctx, userID, text)
	if err != nil {
		return nil, err
	}

	if result.ExecutionReady {
		exec, err := s.execute(ctx, userID, reply.Intent, domain.BankingAction{
			Endpoint:   reply.APIEndpoint,
			Method:     reply.APIMethod,
			Parameters: reply.Parameters,
		})
		if err != nil {
			return nil, err
		}
		reply.Execution = exec
		reply.Success = exec.Success
	}

	s.sendReply(ctx, userID, reply.ResponseText)
	return reply, nil
}

// ProcessVoice is Process with a transcription step in front.
func (s *Service) ProcessVoice(ctx context.Context, userID string, audio []byte, filename, language string) (*domain.AssistantReply, error) {
	tr, err := s.Transcribe(ctx, audio, filename, language)
	if err != nil {
		return nil, err
	}

	reply, err := s.Process(ctx, userID, tr.Text)
	if err != nil {
		return nil, err
	}
	reply.Transcription = tr.Text
	return reply, nil
}

// ExecutePending executes the user's pending intent directly, outside the
// conversational flow. The form must be complete.
func (s *Service) ExecutePending(ctx context.Context, userID string) (*domain.ExecutionResult, error) {
	pending, err := s.conv.FetchPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, fmt.Errorf("no pending intent for user %s", userID)
	}
	if len(pending.Missing) > 0 {
		return nil, fmt.Errorf("pending intent %s is incomplete, missing %v", pending.Intent, pending.Missing)
	}

	route, ok := domain.RouteFor(pending.Intent)
	if !ok {
		return nil, fmt.Errorf("no banking route for intent %s", pending.Intent)
	}

	return s.execute(ctx, userID, pending.Intent, domain.BankingAction{
		Endpoint:   route.Endpoint,
		Method:     route.Method,
		Parameters: pending.Collected,
	})
}

func (s *Service) analyzeTurn(ctx context.Context, userID, text string) (*domain.AssistantReply, *domain.TurnResult, error) {
	pending, err := s.conv.FetchPending(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := s.nlu.Analyze(ctx, text, pending)
	if err != nil {
		return nil, nil, domain.NewCollaboratorError("nlu", err)
	}

	result, err := s.conv.RecordTurn(ctx, userID, analysis)
	if err != nil {
		return nil, nil, err
	}

	if analysis.SecurityAlert {
		s.raiseAlert(ctx, userID, analysis)
	}

	reply := buildReply(userID, analysis, result)
	return reply, result, nil
}

func (s *Service) execute(ctx context.Context, userID, intent string, action domain.BankingAction) (*domain.ExecutionResult, error) {
	exec, err := s.bank.Execute(ctx, action)
	if err != nil {
		return nil, domain.NewCollaboratorError("banking", err)
	}

	if exec.Success {
		if err := s.conv.Clear(ctx, userID); err != nil {
			s.log.Warn("Session clear after execution failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.publish("banking.executed", bankingExecutedEvent{
		UserID:    userID,
		Intent:    intent,
		Endpoint:  action.Endpoint,
		Success:   exec.Success,
		Timestamp: time.Now(),
	})

	s.log.Info("Banking action executed",
		zap.String("user_id", userID),
		zap.String("intent", intent),
		zap.String("endpoint", action.Endpoint),
		zap.Bool("success", exec.Success),
	)

	return exec, nil
}

// raiseAlert fans a security-flagged turn out to operations. Best-effort:
// the turn itself is already recorded, only execution is blocked.
func (s *Service) raiseAlert(ctx context.Context, userID string, analysis *domain.NLUResult) {
	telemetry.SecurityAlerts.Inc()
	s.log.Warn("Security alert raised",
		zap.String("user_id", userID),
		zap.String("intent", analysis.Intent),
	)

	if s.alerts != nil {
		if err := s.alerts.NotifySecurityAlert(ctx, userID, analysis.Intent, analysis.Text); err != nil {
			s.log.Error("Security alert notification failed", zap.Error(err))
		}
	}

	s.publish("security.alert", securityAlertEvent{
		UserID:    userID,
		Intent:    analysis.Intent,
		Text:      analysis.Text,
		Timestamp: time.Now(),
	})
}

func (s *Service) sendReply(ctx context.Context, userID, text string) {
	if s.replies == nil || text == "" {
		return
	}
	if err := s.replies.SendReply(ctx, userID, text); err != nil {
		s.log.Warn("Reply delivery failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *Service) publish(subject string, event any) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.queue.Publish(subject, payload); err != nil {
		s.log.Warn("Event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func buildReply(userID string, analysis *domain.NLUResult, result *domain.TurnResult) *domain.AssistantReply {
	reply := &domain.AssistantReply{
		Success:          true,
		Intent:           analysis.Intent,
		Parameters:       analysis.Parameters,
		MissingParams:    analysis.MissingParams,
		ValidationErrors: analysis.ValidationErrors,
		APIEndpoint:      analysis.APIEndpoint,
		APIMethod:        analysis.APIMethod,
		ResponseText:     analysis.Response,
		Suggestions:      analysis.Suggestions,
		Confidence:       analysis.Confidence,
		SecurityAlert:    analysis.SecurityAlert,
		SecurityLevel:    "normal",
		IsComplete:       result.IsComplete,
		ExecutionReady:   result.ExecutionReady,
		Language:         analysis.Language,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	if analysis.SecurityAlert {
		reply.SecurityLevel = "elevated"
	}

	// The merged pending state is authoritative over the single-turn view.
	if result.Pending != nil {
		reply.Intent = result.Pending.Intent
		reply.Parameters = result.Pending.Collected
		reply.MissingParams = result.Pending.Missing
		if route, ok := domain.RouteFor(result.Pending.Intent); ok {
			reply.APIEndpoint = route.Endpoint
			reply.APIMethod = route.Method
		}
	}

	if n := len(result.Session.History); n > 0 {
		reply.TurnID = result.Session.History[n-1].Turn.TurnID
	}

	return reply
}
