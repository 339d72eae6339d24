package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/astralisone/voice-agent-be/internal/core/agent"
	"github.com/astralisone/voice-agent-be/internal/core/tenant"
	"github.com/astralisone/voice-agent-be/internal/models"
)

type InteractionHandler struct {
	engine *agent.Engine
}

func NewInteractionHandler(engine *agent.Engine) *InteractionHandler {
	return &InteractionHandler{engine: engine}
}

// POST /interact
// The client is resolved from the X-Client-ID header or, failing that,
// the Host subdomain. An optional capability name invokes that
// capability directly instead of the conversational path.
func (h *InteractionHandler) Interact(c *fiber.Ctx) error {
	var req struct {
		Utterance  string `json:"utterance"`
		Capability string `json:"capability,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	metadata := map[string]string{
		tenant.ClientIDKey: c.Get(tenant.ClientIDKey),
		tenant.HostKey:     c.Hostname(),
	}

	reply, err := h.engine.HandleInteraction(c.Context(), metadata, req.Capability, req.Utterance)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to handle interaction",
			})
		}
	}

	return c.JSON(reply)
}
