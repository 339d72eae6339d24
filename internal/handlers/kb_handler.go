package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/astralisone/voice-agent-be/internal/core/kb"
	"github.com/astralisone/voice-agent-be/internal/repositories"
)

type KBHandler struct {
	store  repositories.ProfileStore
	loader *kb.Loader
}

func NewKBHandler(store repositories.ProfileStore, loader *kb.Loader) *KBHandler {
	return &KBHandler{store: store, loader: loader}
}

// POST /clients/:id/validate-kb
func (h *KBHandler) ValidateKnowledgeBase(c *fiber.Ctx) error {
	id := c.Params("id")
	profile, ok := h.store.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "client not found",
		})
	}

	if err := h.loader.ValidateSource(profile.KnowledgeBase); err != nil {
		return c.JSON(fiber.Map{
			"valid":  false,
			"reason": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"valid": true})
}

// POST /cache/clear
func (h *KBHandler) ClearCache(c *fiber.Ctx) error {
	h.loader.ClearCache()
	return c.JSON(fiber.Map{"status": "ok"})
}

// GET /cache/keys
func (h *KBHandler) CacheKeys(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"keys": h.loader.CachedKeys(),
	})
}
