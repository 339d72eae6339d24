package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/astralisone/voice-agent-be/internal/repositories"
)

type ClientHandler struct {
	store repositories.ProfileStore
}

func NewClientHandler(store repositories.ProfileStore) *ClientHandler {
	return &ClientHandler{store: store}
}

// POST /clients
func (h *ClientHandler) CreateClient(c *fiber.Ctx) error {
	var profile models.ClientProfile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.store.Create(profile); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create client",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":    "ok",
		"client_id": profile.ClientID,
	})
}

// GET /clients
func (h *ClientHandler) ListClients(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"clients": h.store.ListIDs(),
	})
}

// GET /clients/:id
func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	id := c.Params("id")
	profile, ok := h.store.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "client not found",
		})
	}
	return c.JSON(profile)
}

// PATCH /clients/:id
func (h *ClientHandler) UpdateClient(c *fiber.Ctx) error {
	id := c.Params("id")

	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.store.Update(id, updates); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "client not found",
			})
		case errors.Is(err, models.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update client",
			})
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
