package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type patientStore interface {
	Create(ctx context.Context, p *models.Patient) error
	GetByID(ctx context.Context, userID, patientID int64) (*models.Patient, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Patient, error)
	Update(ctx context.Context, p *models.Patient) error
	Delete(ctx context.Context, userID, patientID int64) (bool, error)
}

type convertLeadStore interface {
	GetByID(ctx context.Context, userID, leadID int64) (*models.Lead, error)
	Move(ctx context.Context, userID, leadID int64, status string, position int) error
}

type PatientHandler struct {
	patients patientStore
	leads    convertLeadStore
}

func NewPatientHandler(patients patientStore, leads convertLeadStore) *PatientHandler {
	return &PatientHandler{patients: patients, leads: leads}
}

type patientRequest struct {
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     *string    `json:"email"`
	BirthDate *time.Time `json:"birth_date"`
	Objective *string    `json:"objective"`
	Notes     *string    `json:"notes"`
}

func (h *PatientHandler) List(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	patients, err := h.patients.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list patients"})
	}

	return c.JSON(fiber.Map{"patients": patients})
}

func (h *PatientHandler) Create(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req patientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and phone are required"})
	}

	patient := &models.Patient{
		UserID:    userID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		BirthDate: req.BirthDate,
		Objective: req.Objective,
		Notes:     req.Notes,
	}
	if err := h.patients.Create(c.Context(), patient); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create patient"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"patient": patient})
}

// ConvertLead creates a patient from an existing lead and moves the lead to
// the converted column. The two writes are not transactional; a failed move
// leaves a patient with a lead still in its old column.
func (h *PatientHandler) ConvertLead(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	leadID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	lead, err := h.leads.GetByID(c.Context(), userID, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch lead"})
	}
	if lead.Phone == nil || strings.TrimSpace(*lead.Phone) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Lead has no phone number"})
	}

	patient := &models.Patient{
		UserID:    userID,
		LeadID:    &lead.ID,
		Name:      lead.Name,
		Phone:     *lead.Phone,
		Email:     lead.Email,
		Objective: lead.Objective,
		Notes:     lead.Notes,
	}
	if err := h.patients.Create(c.Context(), patient); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create patient"})
	}

	if err := h.leads.Move(c.Context(), userID, leadID, models.LeadStatusConverted, lead.Position); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Patient created but lead status not updated"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"patient": patient})
}

func (h *PatientHandler) Update(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}

	var req patientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and phone are required"})
	}

	patient, err := h.patients.GetByID(c.Context(), userID, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Patient not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch patient"})
	}

	patient.Name = req.Name
	patient.Phone = req.Phone
	patient.Email = req.Email
	patient.BirthDate = req.BirthDate
	patient.Objective = req.Objective
	patient.Notes = req.Notes
	if err := h.patients.Update(c.Context(), patient); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update patient"})
	}

	return c.JSON(fiber.Map{"patient": patient})
}

func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}

	deleted, err := h.patients.Delete(c.Context(), userID, patientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete patient"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Patient not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
