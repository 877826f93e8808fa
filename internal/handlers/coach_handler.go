package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type coachGenerator interface {
	Generate(ctx context.Context, userID int64, req services.GenerateRequest) (*models.CoachInteraction, error)
	ProcessResponses(ctx context.Context, userID int64, phone, name string, batch []services.ResponseInput) (*models.CoachInteraction, error)
}

type questionnaireApplication interface {
	SendDaily(ctx context.Context, userID int64, patientPhone, patientName string) (*models.CoachInteraction, error)
	CreateCustom(ctx context.Context, userID int64, q *models.Questionnaire) error
	PatientInsights(ctx context.Context, userID int64, patientPhone string) (*models.PatientInsights, error)
}

type questionnaireAdmin interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Questionnaire, error)
	Retire(ctx context.Context, userID, questionnaireID int64) (bool, error)
}

// CoachHandler exposes the AI coach actions. The two action endpoints take a
// JSON body with an action discriminator, mirroring how the frontend invokes
// them.
type CoachHandler struct {
	coach          coachGenerator
	questionnaires questionnaireApplication
	definitions    questionnaireAdmin
}

func NewCoachHandler(coach coachGenerator, questionnaires questionnaireApplication, definitions questionnaireAdmin) *CoachHandler {
	return &CoachHandler{coach: coach, questionnaires: questionnaires, definitions: definitions}
}

type coachActionRequest struct {
	Action       string              `json:"action"`
	PatientPhone string              `json:"patient_phone"`
	PatientName  string              `json:"patient_name"`
	Responses    []responsePayload   `json:"responses"`
	Question     questionnaireCreate `json:"questionnaire"`
}

type responsePayload struct {
	QuestionnaireID *int64 `json:"questionnaire_id"`
	Category        string `json:"category"`
	QuestionText    string `json:"question_text"`
	Answer          string `json:"answer"`
	Score           int    `json:"score"`
}

type questionnaireCreate struct {
	Title     string   `json:"title"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Frequency string   `json:"frequency"`
	SendTime  *string  `json:"send_time"`
}

// Generate handles the generate_* actions and analyze_responses.
func (h *CoachHandler) Generate(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req coachActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch strings.TrimSpace(req.Action) {
	case models.ActionGenerateQuestionnaire, models.ActionGenerateMotivational, models.ActionGenerateReminder:
		interaction, err := h.coach.Generate(c.Context(), userID, services.GenerateRequest{
			Action: req.Action,
			Phone:  req.PatientPhone,
			Name:   req.PatientName,
		})
		if err != nil {
			return mapCoachError(c, err)
		}
		return c.JSON(fiber.Map{"interaction": interaction})
	case models.ActionAnalyzeResponses:
		if len(req.Responses) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Responses are required"})
		}
		batch := make([]services.ResponseInput, 0, len(req.Responses))
		for _, r := range req.Responses {
			batch = append(batch, services.ResponseInput{
				QuestionnaireID: r.QuestionnaireID,
				Category:        r.Category,
				QuestionText:    r.QuestionText,
				Answer:          r.Answer,
				Score:           r.Score,
			})
		}
		interaction, err := h.coach.ProcessResponses(c.Context(), userID, req.PatientPhone, req.PatientName, batch)
		if err != nil {
			return mapCoachError(c, err)
		}
		return c.JSON(fiber.Map{"interaction": interaction})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown action"})
	}
}

// Questionnaire handles the dispatch/insights actions.
func (h *CoachHandler) Questionnaire(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req coachActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch strings.TrimSpace(req.Action) {
	case "send_daily_questionnaire":
		interaction, err := h.questionnaires.SendDaily(c.Context(), userID, req.PatientPhone, req.PatientName)
		if err != nil {
			return mapCoachError(c, err)
		}
		return c.JSON(fiber.Map{"interaction": interaction})
	case "process_responses":
		if len(req.Responses) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Responses are required"})
		}
		batch := make([]services.ResponseInput, 0, len(req.Responses))
		for _, r := range req.Responses {
			batch = append(batch, services.ResponseInput{
				QuestionnaireID: r.QuestionnaireID,
				Category:        r.Category,
				QuestionText:    r.QuestionText,
				Answer:          r.Answer,
				Score:           r.Score,
			})
		}
		interaction, err := h.coach.ProcessResponses(c.Context(), userID, req.PatientPhone, req.PatientName, batch)
		if err != nil {
			return mapCoachError(c, err)
		}
		return c.JSON(fiber.Map{"interaction": interaction})
	case "create_custom_questionnaire":
		var patientPhone *string
		if phone := strings.TrimSpace(req.PatientPhone); phone != "" {
			patientPhone = &phone
		}
		questionnaire := &models.Questionnaire{
			UserID:       userID,
			Title:        strings.TrimSpace(req.Question.Title),
			Question:     strings.TrimSpace(req.Question.Question),
			Options:      req.Question.Options,
			Frequency:    req.Question.Frequency,
			SendTime:     req.Question.SendTime,
			PatientPhone: patientPhone,
		}
		if err := h.questionnaires.CreateCustom(c.Context(), userID, questionnaire); err != nil {
			return mapCoachError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"questionnaire": questionnaire})
	case "get_patient_insights":
		insights, err := h.questionnaires.PatientInsights(c.Context(), userID, req.PatientPhone)
		if err != nil {
			return mapCoachError(c, err)
		}
		return c.JSON(fiber.Map{"insights": insights})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown action"})
	}
}

func (h *CoachHandler) ListQuestionnaires(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	questionnaires, err := h.definitions.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list questionnaires"})
	}

	return c.JSON(fiber.Map{"questionnaires": questionnaires})
}

// RetireQuestionnaire soft-deletes a definition so past responses keep their
// reference.
func (h *CoachHandler) RetireQuestionnaire(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	questionnaireID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid questionnaire id"})
	}

	retired, err := h.definitions.Retire(c.Context(), userID, questionnaireID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to retire questionnaire"})
	}
	if !retired {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Questionnaire not found"})
	}

	return c.JSON(fiber.Map{"status": models.QuestionnaireRetired})
}

func mapCoachError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrNoQuestionnaires):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No questionnaires match today"})
	case errors.Is(err, services.ErrGenerationFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Content generation failed"})
	case errors.Is(err, services.ErrDeliveryFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Message delivery failed"})
	case errors.Is(err, services.ErrNoActiveSession):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No connected WhatsApp session"})
	case errors.Is(err, services.ErrSendingDisabled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Scheduled sending disabled for patient"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process coach request"})
	}
}
