package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/service/assistant"
	"github.com/bafoka-labs/voicebank/internal/service/validation"
)

type VoiceHandler struct {
	assistant *assistant.Service
	log       *zap.Logger
}

func NewVoiceHandler(svc *assistant.Service, log *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		assistant: svc,
		log:       log,
	}
}

type TextTurnRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Transcribe converts a multipart audio upload to text. No session involved.
func (h *VoiceHandler) Transcribe(c *fiber.Ctx) error {
	audio, filename, err := audioFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	language := c.FormValue("language", "auto")

	tr, err := h.assistant.Transcribe(c.Context(), audio, filename, language)
	if err != nil {
		return err
	}

	return c.JSON(tr)
}

// Analyze runs one text turn through NLU and the session, without executing.
func (h *VoiceHandler) Analyze(c *fiber.Ctx) error {
	req, err := textTurn(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reply, err := h.assistant.Analyze(c.Context(), req.UserID, req.Text)
	if err != nil {
		return err
	}

	return c.JSON(reply)
}

// ProcessText runs the full pipeline for a text turn, executing the banking
// action when the form is complete.
func (h *VoiceHandler) ProcessText(c *fiber.Ctx) error {
	req, err := textTurn(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reply, err := h.assistant.Process(c.Context(), req.UserID, req.Text)
	if err != nil {
		return err
	}

	return c.JSON(reply)
}

// ProcessVoice runs the full pipeline for a multipart audio upload.
func (h *VoiceHandler) ProcessVoice(c *fiber.Ctx) error {
	userID := validation.NormalizePhone(c.FormValue("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	audio, filename, err := audioFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	language := c.FormValue("language", "auto")

	reply, err := h.assistant.ProcessVoice(c.Context(), userID, audio, filename, language)
	if err != nil {
		return err
	}

	return c.JSON(reply)
}

// Execute runs the user's pending intent against the banking backend without
// another conversational turn. The form must already be complete.
func (h *VoiceHandler) Execute(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.UserID = validation.NormalizePhone(req.UserID)
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	result, err := h.assistant.ExecutePending(c.Context(), req.UserID)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func textTurn(c *fiber.Ctx) (*TextTurnRequest, error) {
	var req TextTurnRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.UserID == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}
	if req.Text == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "text is required")
	}
	req.UserID = validation.NormalizePhone(req.UserID)
	return &req, nil
}

func audioFromForm(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "audio file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "could not open audio file")
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "could not read audio file")
	}
	if len(audio) == 0 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "audio file is empty")
	}

	return audio, fileHeader.Filename, nil
}
