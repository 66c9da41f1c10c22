package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/ports"
	"github.com/bafoka-labs/voicebank/internal/service/validation"
)

// SessionHandler serves the session inspection API. User IDs arrive as phone
// numbers in whatever shape the gateway sends them; every handler normalizes
// before touching the session layer so keys always match the recorded turns.
type SessionHandler struct {
	conversation ports.ConversationService
	archive      ports.TurnAuditLog
	log          *zap.Logger
}

// NewSessionHandler wires the handler. archive may be nil when no turn
// archive is configured; the history endpoint then reports unavailable.
func NewSessionHandler(conversation ports.ConversationService, archive ports.TurnAuditLog, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		conversation: conversation,
		archive:      archive,
		log:          log,
	}
}

// Get returns the session snapshot for a user. 404 when absent or expired.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	userID := validation.NormalizePhone(c.Params("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	session, err := h.conversation.GetSession(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// GetPending returns just the in-flight pending intent, or pending:null for a
// clean, absent or expired session.
func (h *SessionHandler) GetPending(c *fiber.Ctx) error {
	userID := validation.NormalizePhone(c.Params("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	pending, err := h.conversation.FetchPending(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"pending": pending,
	})
}

// History returns the long-term audit trail of recorded turns, newest first.
// Unlike Get it survives session expiry, since it reads the turn archive.
func (h *SessionHandler) History(c *fiber.Ctx) error {
	if h.archive == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "turn archive is not configured"})
	}

	userID := validation.NormalizePhone(c.Params("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	turns, err := h.archive.FindByUser(c.Context(), userID, c.QueryInt("limit", 50))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"turns":   turns,
	})
}

// Delete clears the session outright. Idempotent.
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	userID := validation.NormalizePhone(c.Params("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	if err := h.conversation.Clear(c.Context(), userID); err != nil {
		return err
	}

	h.log.Info("Session deleted via API", zap.String("user_id", userID))
	return c.JSON(fiber.Map{"success": true})
}
