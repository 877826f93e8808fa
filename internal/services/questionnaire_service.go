package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

const maxQuestionnairesPerSend = 5

// Weekly well-being sub-questions go out only on this weekday.
const weeklyDispatchDay = time.Monday

type questionnaireStore interface {
	Create(ctx context.Context, q *models.Questionnaire) error
	ListActive(ctx context.Context, userID int64, category, frequency, patientPhone string, limit int) ([]models.Questionnaire, error)
}

type insightsReader interface {
	Insights(ctx context.Context, userID int64, patientPhone string) (*models.PatientInsights, error)
}

type scheduleReader interface {
	GetByPatientPhone(ctx context.Context, userID int64, phone string) (*models.ScheduledSending, error)
}

// QuestionnaireService picks the day's applicable questionnaire set for a
// patient and sends it as one combined message.
type QuestionnaireService struct {
	questionnaires questionnaireStore
	interactions   interactionStore
	responses      insightsReader
	schedules      scheduleReader
	delivery       contactDeliverer
	now            func() time.Time
}

func NewQuestionnaireService(
	questionnaires questionnaireStore,
	interactions interactionStore,
	responses insightsReader,
	schedules scheduleReader,
	delivery contactDeliverer,
) *QuestionnaireService {
	return &QuestionnaireService{
		questionnaires: questionnaires,
		interactions:   interactions,
		responses:      responses,
		schedules:      schedules,
		delivery:       delivery,
		now:            time.Now,
	}
}

// categoryForDay alternates by day-of-year parity: even days are behavioral,
// odd days are well-being.
func categoryForDay(day time.Time) string {
	if day.YearDay()%2 == 0 {
		return models.CategoryBehavioral
	}
	return models.CategoryWellBeing
}

// SendDaily composes and delivers the day's questionnaire set. When no
// active definitions match the computed category and frequency it reports
// ErrNoQuestionnaires and writes nothing. Patients whose envios_programados
// row has daily sending switched off are skipped with ErrSendingDisabled.
func (s *QuestionnaireService) SendDaily(
	ctx context.Context,
	userID int64,
	patientPhone string,
	patientName string,
) (*models.CoachInteraction, error) {
	patientPhone = strings.TrimSpace(patientPhone)
	if patientPhone == "" {
		return nil, ErrInvalidInput
	}
	patientName = strings.TrimSpace(patientName)
	if patientName == "" {
		patientName = "paciente"
	}

	// Absence of a schedule row means no opt-out was recorded; the caller
	// decides who to dispatch to.
	schedule, err := s.schedules.GetByPatientPhone(ctx, userID, patientPhone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if schedule != nil && (!schedule.Active || !schedule.DailyEnabled) {
		return nil, ErrSendingDisabled
	}

	today := s.now()
	category := categoryForDay(today)

	questionnaires, err := s.questionnaires.ListActive(
		ctx, userID, category, models.FrequencyDaily, patientPhone, maxQuestionnairesPerSend,
	)
	if err != nil {
		return nil, err
	}

	frequency := models.FrequencyDaily
	if category == models.CategoryWellBeing && today.Weekday() == weeklyDispatchDay {
		remaining := maxQuestionnairesPerSend - len(questionnaires)
		if remaining > 0 {
			weekly, err := s.questionnaires.ListActive(
				ctx, userID, category, models.FrequencyWeekly, patientPhone, remaining,
			)
			if err != nil {
				return nil, err
			}
			if len(weekly) > 0 {
				questionnaires = append(questionnaires, weekly...)
				frequency = models.FrequencyWeekly
			}
		}
	}

	if len(questionnaires) == 0 {
		return nil, ErrNoQuestionnaires
	}

	message := composeQuestionnaireMessage(patientName, questionnaires)
	interaction := &models.CoachInteraction{
		UserID:       userID,
		PatientPhone: patientPhone,
		PatientName:  patientName,
		ActionType:   models.ActionSendQuestionnaire,
		Content:      message,
		Context: map[string]any{
			"category":       category,
			"frequency":      frequency,
			"question_count": len(questionnaires),
		},
		DeliveryStatus: models.DeliveryPending,
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		return nil, err
	}

	s.attemptDelivery(ctx, userID, interaction)
	return interaction, nil
}

// attemptDelivery mirrors the coach flow: the interaction row records what
// was composed, the delivery status records what the patient received.
func (s *QuestionnaireService) attemptDelivery(ctx context.Context, userID int64, interaction *models.CoachInteraction) {
	status := models.DeliveryDelivered
	if _, err := s.delivery.SendToContact(ctx, userID, interaction.PatientPhone, interaction.PatientName, interaction.Content); err != nil {
		log.Printf("questionnaire: deliver interaction %d to %s: %v", interaction.ID, interaction.PatientPhone, err)
		status = models.DeliveryFailed
	}
	if err := s.interactions.SetDeliveryStatus(ctx, interaction.ID, status); err != nil {
		log.Printf("questionnaire: record delivery status for interaction %d: %v", interaction.ID, err)
		return
	}
	interaction.DeliveryStatus = status
}

func composeQuestionnaireMessage(name string, questionnaires []models.Questionnaire) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá, %s! 🌱 Aqui estão as perguntas de hoje:\n", name)
	for i, q := range questionnaires {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, q.Question)
		for j, option := range q.Options {
			fmt.Fprintf(&b, "   %c) %s\n", 'a'+j, option)
		}
	}
	b.WriteString("\nResponda com o número da pergunta e a letra da sua escolha. 💬")
	return b.String()
}

// CreateCustom registers a custom-category definition, optionally bound to a
// single patient.
func (s *QuestionnaireService) CreateCustom(
	ctx context.Context,
	userID int64,
	q *models.Questionnaire,
) error {
	if strings.TrimSpace(q.Title) == "" || strings.TrimSpace(q.Question) == "" || len(q.Options) == 0 {
		return ErrInvalidInput
	}
	switch q.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
	default:
		return ErrInvalidInput
	}
	q.UserID = userID
	q.Category = models.CategoryCustom
	q.Status = models.QuestionnaireActive
	return s.questionnaires.Create(ctx, q)
}

// PatientInsights aggregates the patient's stored responses; no LLM call.
func (s *QuestionnaireService) PatientInsights(
	ctx context.Context,
	userID int64,
	patientPhone string,
) (*models.PatientInsights, error) {
	patientPhone = strings.TrimSpace(patientPhone)
	if patientPhone == "" {
		return nil, ErrInvalidInput
	}
	return s.responses.Insights(ctx, userID, patientPhone)
}
