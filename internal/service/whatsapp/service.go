package whatsapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/service/validation"
)

// Service delivers assistant replies to users over WhatsApp. It implements
// ports.ReplySender.
type Service struct {
	provider Provider
	log      *zap.Logger
}

// Provider defines the WhatsApp provider interface
type Provider interface {
	SendMessage(ctx context.Context, to, body string) error
}

// Config holds WhatsApp service configuration
type Config struct {
	Provider   string // twilio, none
	AccountSID string // Twilio Account SID
	AuthToken  string // Twilio Auth Token
	FromPhone  string // WhatsApp sender number (with country code, e.g. +237690000000)
}

// NewService creates a new WhatsApp service
func NewService(cfg Config, log *zap.Logger) (*Service, error) {
	var provider Provider
	var err error

	switch cfg.Provider {
	case "twilio":
		provider, err = NewTwilioProvider(cfg.AccountSID, cfg.AuthToken, cfg.FromPhone)
	case "none", "":
		provider = &logProvider{log: log}
	default:
		return nil, fmt.Errorf("unknown WhatsApp provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create WhatsApp provider: %w", err)
	}

	return &Service{
		provider: provider,
		log:      log,
	}, nil
}

// SendReply pushes one assistant reply to the user. The recipient is the
// user's phone number; bare Cameroonian numbers get the country code added.
func (s *Service) SendReply(ctx context.Context, to, body string) error {
	to = normalizeRecipient(to)

	if err := s.provider.SendMessage(ctx, to, body); err != nil {
		s.log.Error("Failed to send WhatsApp reply",
			zap.String("to", to),
			zap.Error(err),
		)
		return err
	}

	s.log.Info("WhatsApp reply sent",
		zap.String("to", to),
	)

	return nil
}

func normalizeRecipient(to string) string {
	if validation.ValidPhone(to) {
		return "+237" + validation.NormalizePhone(to)
	}
	return to
}

// logProvider stands in when no messaging provider is configured; replies
// still go to the caller over HTTP, this just records the outbound text.
type logProvider struct {
	log *zap.Logger
}

func (p *logProvider) SendMessage(_ context.Context, to, body string) error {
	p.log.Info("WhatsApp delivery disabled, dropping message",
		zap.String("to", to),
		zap.Int("chars", len(body)),
	)
	return nil
}
