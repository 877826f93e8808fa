package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type tagStore interface {
	Create(ctx context.Context, tag *models.ObjetivoTag) error
	ListByUser(ctx context.Context, userID int64) ([]models.ObjetivoTag, error)
	Delete(ctx context.Context, userID, tagID int64) (bool, error)
}

type TagHandler struct {
	tags tagStore
}

func NewTagHandler(tags tagStore) *TagHandler {
	return &TagHandler{tags: tags}
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tags, err := h.tags.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list tags"})
	}

	return c.JSON(fiber.Map{"tags": tags})
}

func (h *TagHandler) Create(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req tagRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}
	if req.Color == "" {
		req.Color = "#22c55e"
	}

	tag := &models.ObjetivoTag{
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	}
	if err := h.tags.Create(c.Context(), tag); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create tag"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"tag": tag})
}

func (h *TagHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tagID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tag id"})
	}

	deleted, err := h.tags.Delete(c.Context(), userID, tagID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete tag"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tag not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
