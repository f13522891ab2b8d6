package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/math-agent/backend/pkg/logger"
)

// Collections is the admin view of the vector store.
type Collections interface {
	Collections(ctx context.Context) ([]string, error)
	EnsureCollection(ctx context.Context) error
}

// Seeder loads the sample question set.
type Seeder interface {
	Run(ctx context.Context) (int, error)
}

type AdminHandler struct {
	store  Collections
	seeder Seeder
}

func NewAdminHandler(store Collections, seeder Seeder) *AdminHandler {
	return &AdminHandler{store: store, seeder: seeder}
}

func (h *AdminHandler) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "math-agent",
		"status":  "ok",
	})
}

// HandleDebug reports vector store connectivity and visible collections.
func (h *AdminHandler) HandleDebug(c *fiber.Ctx) error {
	collections, err := h.store.Collections(c.Context())
	if err != nil {
		logger.Error("Failed to list collections", zap.Error(err))
		return c.JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}

	if collections == nil {
		collections = []string{}
	}

	return c.JSON(fiber.Map{
		"ok":          true,
		"collections": collections,
	})
}

func (h *AdminHandler) HandleSetupCollection(c *fiber.Ctx) error {
	if err := h.store.EnsureCollection(c.Context()); err != nil {
		logger.Error("Failed to set up collection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to set up collection",
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

func (h *AdminHandler) HandleIngest(c *fiber.Ctx) error {
	count, err := h.seeder.Run(c.Context())
	if err != nil {
		logger.Error("Failed to ingest seed entries", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest seed entries",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"ingested": count,
	})
}
