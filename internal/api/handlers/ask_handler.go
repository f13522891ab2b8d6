package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/router"
	"github.com/math-agent/backend/pkg/logger"
)

// Router answers one question through the tier pipeline.
type Router interface {
	Route(ctx context.Context, question string, trace router.TraceFunc) (router.Answer, error)
}

type AskHandler struct {
	router Router
}

func NewAskHandler(r Router) *AskHandler {
	return &AskHandler{router: r}
}

func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	var req struct {
		Question string `json:"question"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	answer, err := h.router.Route(c.Context(), req.Question, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Error("Failed to answer question", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to answer question",
		})
	}

	return c.JSON(fiber.Map{
		"question": req.Question,
		"answer":   answer.Text,
		"source":   answer.Source,
	})
}
