package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type settingsStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
}

type scheduleStore interface {
	Upsert(ctx context.Context, s *models.ScheduledSending) error
	GetByPatient(ctx context.Context, userID, patientID int64) (*models.ScheduledSending, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]models.ScheduledSending, error)
}

type SettingsHandler struct {
	settings  settingsStore
	schedules scheduleStore
}

func NewSettingsHandler(settings settingsStore, schedules scheduleStore) *SettingsHandler {
	return &SettingsHandler{settings: settings, schedules: schedules}
}

type settingsRequest struct {
	DisplayName     *string `json:"display_name"`
	ClinicName      *string `json:"clinic_name"`
	DefaultProvider string  `json:"default_provider"`
	NotifyByEmail   bool    `json:"notify_by_email"`
}

type scheduleRequest struct {
	PatientID     int64 `json:"patient_id"`
	DailyEnabled  bool  `json:"daily_enabled"`
	WeeklyEnabled bool  `json:"weekly_enabled"`
	Active        bool  `json:"active"`
}

var knownProviders = map[string]bool{
	models.ProviderEvolution: true,
	models.ProviderMaytapi:   true,
	models.ProviderTwilio:    true,
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	settings, err := h.settings.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Settings not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch settings"})
	}

	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !knownProviders[req.DefaultProvider] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid provider"})
	}

	settings := &models.UserSettings{
		UserID:          userID,
		DisplayName:     req.DisplayName,
		ClinicName:      req.ClinicName,
		DefaultProvider: req.DefaultProvider,
		NotifyByEmail:   req.NotifyByEmail,
	}
	if err := h.settings.Upsert(c.Context(), settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}

	return c.JSON(fiber.Map{"settings": settings})
}

// UpsertSchedule creates or replaces the single envios_programados row for a
// patient. It 404s when the patient does not belong to the caller.
func (h *SettingsHandler) UpsertSchedule(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PatientID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Patient is required"})
	}

	schedule := &models.ScheduledSending{
		UserID:        userID,
		PatientID:     req.PatientID,
		DailyEnabled:  req.DailyEnabled,
		WeeklyEnabled: req.WeeklyEnabled,
		Active:        req.Active,
	}
	if err := h.schedules.Upsert(c.Context(), schedule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Patient not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save schedule"})
	}

	return c.JSON(fiber.Map{"schedule": schedule})
}

func (h *SettingsHandler) GetSchedule(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	patientID, err := parseIDParam(c, "patientId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}

	schedule, err := h.schedules.GetByPatient(c.Context(), userID, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch schedule"})
	}

	return c.JSON(fiber.Map{"schedule": schedule})
}

func (h *SettingsHandler) ListActiveSchedules(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	schedules, err := h.schedules.ListActiveByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list schedules"})
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}
