package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type consultationStore interface {
	Create(ctx context.Context, consultation *models.Consultation) error
	GetByID(ctx context.Context, userID, consultationID int64) (*models.Consultation, error)
	ListByUser(ctx context.Context, userID int64, from, to *time.Time) ([]models.Consultation, error)
	UpdateStatus(ctx context.Context, userID, consultationID int64, status string) (bool, error)
	CreatePerformed(ctx context.Context, p *models.PerformedConsultation) error
	ListPerformedByPatient(ctx context.Context, userID, patientID int64) ([]models.PerformedConsultation, error)
	AddFile(ctx context.Context, f *models.ConsultationFile) error
	ListFiles(ctx context.Context, userID, performedID int64) ([]models.ConsultationFile, error)
}

type ConsultationHandler struct {
	consultations consultationStore
	storage       services.StorageService
}

func NewConsultationHandler(consultations consultationStore, storage services.StorageService) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations, storage: storage}
}

type consultationRequest struct {
	PatientID       int64     `json:"patient_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           *string   `json:"notes"`
}

type consultationStatusRequest struct {
	Status string `json:"status"`
}

type performedRequest struct {
	PatientID      int64      `json:"patient_id"`
	ConsultationID *int64     `json:"consultation_id"`
	PerformedAt    *time.Time `json:"performed_at"`
	Summary        *string    `json:"summary"`
}

var consultationStatuses = map[string]bool{
	models.ConsultationStatusScheduled: true,
	models.ConsultationStatusConfirmed: true,
	models.ConsultationStatusDone:      true,
	models.ConsultationStatusCanceled:  true,
}

func (h *ConsultationHandler) List(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date"})
		}
		from = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date"})
		}
		to = &parsed
	}

	consultations, err := h.consultations.ListByUser(c.Context(), userID, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list consultations"})
	}

	return c.JSON(fiber.Map{"consultations": consultations})
}

func (h *ConsultationHandler) Create(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req consultationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PatientID <= 0 || req.ScheduledAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Patient and scheduled time are required"})
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}

	consultation := &models.Consultation{
		UserID:          userID,
		PatientID:       req.PatientID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          models.ConsultationStatusScheduled,
		Notes:           req.Notes,
	}
	if err := h.consultations.Create(c.Context(), consultation); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to create consultation"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"consultation": consultation})
}

func (h *ConsultationHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	consultationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid consultation id"})
	}

	var req consultationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !consultationStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}

	updated, err := h.consultations.UpdateStatus(c.Context(), userID, consultationID, req.Status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to update consultation"})
	}
	if !updated {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Consultation not found"})
	}

	return c.JSON(fiber.Map{"status": req.Status})
}

func (h *ConsultationHandler) RecordPerformed(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req performedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PatientID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Patient is required"})
	}

	performedAt := time.Now()
	if req.PerformedAt != nil {
		performedAt = *req.PerformedAt
	}

	performed := &models.PerformedConsultation{
		UserID:         userID,
		PatientID:      req.PatientID,
		ConsultationID: req.ConsultationID,
		PerformedAt:    performedAt,
		Summary:        req.Summary,
	}
	if err := h.consultations.CreatePerformed(c.Context(), performed); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to record consultation"})
	}

	if req.ConsultationID != nil {
		if _, err := h.consultations.UpdateStatus(c.Context(), userID, *req.ConsultationID, models.ConsultationStatusDone); err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Consultation recorded but schedule not updated"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"consultation": performed})
}

func (h *ConsultationHandler) ListPerformed(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	patientID, err := parseIDParam(c, "patientId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}

	performed, err := h.consultations.ListPerformedByPatient(c.Context(), userID, patientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list consultations"})
	}

	return c.JSON(fiber.Map{"consultations": performed})
}

// UploadFile stores the attachment in object storage and records its
// metadata against the performed consultation.
func (h *ConsultationHandler) UploadFile(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	performedID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid consultation id"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read file"})
	}
	defer file.Close()

	fileURL, err := h.storage.UploadFile(c.Context(), file, fileHeader.Filename, "consultations")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store file"})
	}

	record := &models.ConsultationFile{
		UserID:      userID,
		PerformedID: performedID,
		FileName:    fileHeader.Filename,
		FileURL:     fileURL,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}
	if err := h.consultations.AddFile(c.Context(), record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Consultation not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "File stored but metadata not recorded"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"file": record})
}

func (h *ConsultationHandler) ListFiles(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	performedID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid consultation id"})
	}

	files, err := h.consultations.ListFiles(c.Context(), userID, performedID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list files"})
	}

	return c.JSON(fiber.Map{"files": files})
}
