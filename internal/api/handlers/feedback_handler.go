package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/storage/models"
	"github.com/math-agent/backend/pkg/logger"
)

// Trainer records ratings and applies corrections to the knowledge base.
type Trainer interface {
	RecordRating(question, answer string, helpful bool, comment string) (int64, error)
	Train(ctx context.Context, question, correctedAnswer, comment string) (int64, error)
	History() ([]models.Feedback, error)
}

type FeedbackHandler struct {
	trainer Trainer
}

func NewFeedbackHandler(t Trainer) *FeedbackHandler {
	return &FeedbackHandler{trainer: t}
}

// HandleFeedback records a helpful / not-helpful verdict on a served answer.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Helpful  *bool  `json:"helpful"`
		Comment  string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Question == "" || req.Helpful == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "question and helpful are required",
		})
	}

	id, err := h.trainer.RecordRating(req.Question, req.Answer, *req.Helpful, req.Comment)
	if err != nil {
		logger.Error("Failed to record feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record feedback",
		})
	}

	return c.JSON(fiber.Map{
		"status":      "recorded",
		"feedback_id": id,
	})
}

// HandleListFeedback returns the full audit log, newest first.
func (h *FeedbackHandler) HandleListFeedback(c *fiber.Ctx) error {
	records, err := h.trainer.History()
	if err != nil {
		logger.Error("Failed to list feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list feedback",
		})
	}

	if records == nil {
		records = []models.Feedback{}
	}

	return c.JSON(fiber.Map{
		"feedback": records,
		"count":    len(records),
	})
}

// HandleTrain applies a user correction: audit row, knowledge base upsert,
// then the neighbor deprecation sweep.
func (h *FeedbackHandler) HandleTrain(c *fiber.Ctx) error {
	var req struct {
		Question        string `json:"question"`
		CorrectedAnswer string `json:"corrected_answer"`
		Comment         string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Question == "" || req.CorrectedAnswer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "question and corrected_answer are required",
		})
	}

	id, err := h.trainer.Train(c.Context(), req.Question, req.CorrectedAnswer, req.Comment)
	if err != nil {
		logger.Error("Failed to train on correction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to apply correction",
		})
	}

	return c.JSON(fiber.Map{
		"status":      "trained",
		"feedback_id": id,
	})
}
