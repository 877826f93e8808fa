package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type leadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, userID, leadID int64) (*models.Lead, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	Move(ctx context.Context, userID, leadID int64, status string, position int) error
	Delete(ctx context.Context, userID, leadID int64) (bool, error)
	SetTags(ctx context.Context, userID, leadID int64, tagIDs []int64) error
	ListTags(ctx context.Context, leadID int64) ([]models.ObjetivoTag, error)
}

type LeadHandler struct {
	leads leadStore
}

func NewLeadHandler(leads leadStore) *LeadHandler {
	return &LeadHandler{leads: leads}
}

type leadRequest struct {
	Name      string  `json:"name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Objective *string `json:"objective"`
	Notes     *string `json:"notes"`
}

type moveLeadRequest struct {
	Status   string `json:"status"`
	Position int    `json:"position"`
}

type leadTagsRequest struct {
	TagIDs []int64 `json:"tag_ids"`
}

func validLeadStatus(status string) bool {
	for _, s := range models.LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (h *LeadHandler) List(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	leads, err := h.leads.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list leads"})
	}

	result := make([]models.LeadWithTags, 0, len(leads))
	for _, lead := range leads {
		tags, err := h.leads.ListTags(c.Context(), lead.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to load lead tags"})
		}
		result = append(result, models.LeadWithTags{Lead: lead, Tags: tags})
	}

	return c.JSON(fiber.Map{"leads": result})
}

func (h *LeadHandler) Create(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	lead := &models.Lead{
		UserID:    userID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Status:    models.LeadStatusNew,
		Objective: req.Objective,
		Notes:     req.Notes,
	}
	if err := h.leads.Create(c.Context(), lead); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create lead"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lead": lead})
}

func (h *LeadHandler) Update(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	leadID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	lead, err := h.leads.GetByID(c.Context(), userID, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch lead"})
	}

	lead.Name = req.Name
	lead.Phone = req.Phone
	lead.Email = req.Email
	lead.Objective = req.Objective
	lead.Notes = req.Notes
	if err := h.leads.Update(c.Context(), lead); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update lead"})
	}

	return c.JSON(fiber.Map{"lead": lead})
}

// Move handles Kanban drag-and-drop: status column plus position within it.
func (h *LeadHandler) Move(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	leadID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	var req moveLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !validLeadStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}
	if req.Position < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid position"})
	}

	if err := h.leads.Move(c.Context(), userID, leadID, req.Status, req.Position); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to move lead"})
	}

	return c.JSON(fiber.Map{"status": req.Status, "position": req.Position})
}

func (h *LeadHandler) SetTags(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	leadID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	var req leadTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.leads.SetTags(c.Context(), userID, leadID, req.TagIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to set lead tags"})
	}

	tags, err := h.leads.ListTags(c.Context(), leadID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load lead tags"})
	}

	return c.JSON(fiber.Map{"tags": tags})
}

func (h *LeadHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	leadID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	deleted, err := h.leads.Delete(c.Context(), userID, leadID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete lead"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
