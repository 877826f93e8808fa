package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type sessionApplicationService interface {
	Connect(ctx context.Context, userID int64, provider string) (*models.Session, error)
	GetQR(ctx context.Context, userID int64, provider string) (string, error)
	CheckConnection(ctx context.Context, userID int64, provider string) (bool, error)
	Disconnect(ctx context.Context, userID int64, provider string) error
	LinkTwilioNumbers(ctx context.Context, userID int64) ([]models.TwilioNumber, error)
}

type SessionHandler struct {
	service sessionApplicationService
}

func NewSessionHandler(service sessionApplicationService) *SessionHandler {
	return &SessionHandler{service: service}
}

type sessionRequest struct {
	Provider string `json:"provider"`
}

func sessionProvider(c *fiber.Ctx) string {
	provider := c.Query("provider")
	if provider == "" {
		provider = models.ProviderEvolution
	}
	return provider
}

func (h *SessionHandler) Connect(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Provider == "" {
		req.Provider = models.ProviderEvolution
	}

	session, err := h.service.Connect(c.Context(), userID, req.Provider)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) GetQR(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	qr, err := h.service.GetQR(c.Context(), userID, sessionProvider(c))
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"qr_code": qr})
}

func (h *SessionHandler) CheckConnection(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	connected, err := h.service.CheckConnection(c.Context(), userID, sessionProvider(c))
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"connected": connected})
}

func (h *SessionHandler) Disconnect(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Provider == "" {
		req.Provider = models.ProviderEvolution
	}

	if err := h.service.Disconnect(c.Context(), userID, req.Provider); err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"connected": false})
}

func (h *SessionHandler) LinkTwilioNumbers(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	numbers, err := h.service.LinkTwilioNumbers(c.Context(), userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"numbers": numbers})
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid provider"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Provider request failed"})
	}
}
