package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		// A failed collaborator is the upstream's fault, not ours.
		var collab *domain.CollaboratorError
		if errors.As(err, &collab) {
			code = fiber.StatusBadGateway
			log.Error("Collaborator failure",
				zap.String("collaborator", collab.Collaborator),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(code).JSON(fiber.Map{
				"error":        "upstream service failed",
				"collaborator": collab.Collaborator,
			})
		}

		if errors.Is(err, domain.ErrSessionNotFound) {
			code = fiber.StatusNotFound
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
