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

const coachSystemPrompt = "Você é a NutriBox Coach, uma nutricionista virtual empática e motivadora. " +
	"Responda sempre em português do Brasil, em tom acolhedor, com uso moderado de emojis. " +
	"Seja breve, prática e personalizada para o paciente."

const (
	tagEngaged        = "paciente engajado com questionários"
	tagActiveWeek     = "ativo na última semana"
	tagInactiveRecent = "inativo recentemente"
)

type leadReader interface {
	GetByPhone(ctx context.Context, userID int64, phone string) (*models.Lead, error)
}

type interactionStore interface {
	Create(ctx context.Context, interaction *models.CoachInteraction) error
	ListRecentByPhone(ctx context.Context, userID int64, patientPhone string, limit int) ([]models.CoachInteraction, error)
	SetDeliveryStatus(ctx context.Context, interactionID int64, status string) error
}

type responseWriter interface {
	Create(ctx context.Context, response *models.QuestionnaireResponse) error
}

type definitionReader interface {
	GetByID(ctx context.Context, userID, questionnaireID int64) (*models.Questionnaire, error)
}

type completionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type contactDeliverer interface {
	SendToContact(ctx context.Context, userID int64, phone, name, text string) (*models.Message, error)
}

type GenerateRequest struct {
	Action string
	Phone  string
	Name   string
}

type ResponseInput struct {
	QuestionnaireID *int64
	Category        string
	QuestionText    string
	Answer          string
	Score           int
}

// CoachService produces personalized coaching messages: it builds a context
// from the patient profile and recent interaction history, calls the LLM,
// persists the interaction and then attempts delivery.
type CoachService struct {
	leads        leadReader
	interactions interactionStore
	responses    responseWriter
	definitions  definitionReader
	llm          completionClient
	delivery     contactDeliverer
	now          func() time.Time
}

func NewCoachService(
	leads leadReader,
	interactions interactionStore,
	responses responseWriter,
	definitions definitionReader,
	llm completionClient,
	delivery contactDeliverer,
) *CoachService {
	return &CoachService{
		leads:        leads,
		interactions: interactions,
		responses:    responses,
		definitions:  definitions,
		llm:          llm,
		delivery:     delivery,
		now:          time.Now,
	}
}

// Generate runs the full flow for one patient and action type. The
// interaction row is authoritative for "what was generated", not "what was
// delivered": delivery failure is recorded on the row, never propagated.
func (s *CoachService) Generate(ctx context.Context, userID int64, req GenerateRequest) (*models.CoachInteraction, error) {
	action := strings.TrimSpace(req.Action)
	switch action {
	case models.ActionGenerateQuestionnaire, models.ActionGenerateMotivational, models.ActionGenerateReminder:
	default:
		return nil, ErrInvalidInput
	}

	phone := strings.TrimSpace(req.Phone)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "paciente"
	}

	profile := s.loadProfile(ctx, userID, phone)
	history := s.loadHistory(ctx, userID, phone)
	tags := behavioralTags(history, s.now())
	contextLine := historyContext(history, tags)

	prompt := buildPrompt(action, name, profile, contextLine)
	text, err := s.llm.Complete(ctx, coachSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	interaction := &models.CoachInteraction{
		UserID:       userID,
		PatientPhone: phone,
		PatientName:  name,
		ActionType:   action,
		Content:      text,
		Context: map[string]any{
			"profile":         profile,
			"history_count":   len(history),
			"history_context": contextLine,
			"behavioral_tags": tags,
		},
		DeliveryStatus: models.DeliveryPending,
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		return nil, err
	}

	if phone != "" {
		s.attemptDelivery(ctx, userID, interaction)
	}
	return interaction, nil
}

// ProcessResponses persists a batch of raw answers, then generates and
// delivers one aggregate analysis message. Responses are inserted
// independently; a failure mid-batch leaves earlier rows in place.
func (s *CoachService) ProcessResponses(
	ctx context.Context,
	userID int64,
	phone string,
	name string,
	batch []ResponseInput,
) (*models.CoachInteraction, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || len(batch) == 0 {
		return nil, ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "paciente"
	}

	var scoreSum int
	var lines []string
	definitions := make(map[int64]*models.Questionnaire)
	for i, in := range batch {
		if strings.TrimSpace(in.QuestionText) == "" {
			return nil, ErrInvalidInput
		}
		if err := s.validateScore(ctx, userID, in, definitions); err != nil {
			return nil, err
		}
		response := &models.QuestionnaireResponse{
			UserID:          userID,
			QuestionnaireID: in.QuestionnaireID,
			PatientPhone:    phone,
			PatientName:     name,
			Category:        in.Category,
			QuestionText:    in.QuestionText,
			Answer:          in.Answer,
			Score:           in.Score,
		}
		if err := s.responses.Create(ctx, response); err != nil {
			return nil, fmt.Errorf("record response %d: %w", i+1, err)
		}
		scoreSum += in.Score
		lines = append(lines, fmt.Sprintf("%d. %s\n   Resposta: %s (pontuação %d)", i+1, in.QuestionText, in.Answer, in.Score))
	}
	avgScore := float64(scoreSum) / float64(len(batch))

	prompt := fmt.Sprintf(
		"Analise as respostas do questionário de %s e escreva uma única mensagem curta de retorno, "+
			"reconhecendo o progresso e sugerindo um próximo passo concreto.\n\nRespostas:\n%s",
		name, strings.Join(lines, "\n"),
	)
	text, err := s.llm.Complete(ctx, coachSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	interaction := &models.CoachInteraction{
		UserID:       userID,
		PatientPhone: phone,
		PatientName:  name,
		ActionType:   models.ActionAnalyzeResponses,
		Content:      text,
		Context: map[string]any{
			"avg_score":      avgScore,
			"response_count": len(batch),
		},
		DeliveryStatus: models.DeliveryPending,
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		return nil, err
	}

	s.attemptDelivery(ctx, userID, interaction)
	return interaction, nil
}

// validateScore checks an answer's score against its questionnaire
// definition: valid scores are 1..len(options). Unreferenced responses carry
// free-form scores and are accepted as-is.
func (s *CoachService) validateScore(
	ctx context.Context,
	userID int64,
	in ResponseInput,
	definitions map[int64]*models.Questionnaire,
) error {
	if in.QuestionnaireID == nil {
		return nil
	}
	definition, ok := definitions[*in.QuestionnaireID]
	if !ok {
		var err error
		definition, err = s.definitions.GetByID(ctx, userID, *in.QuestionnaireID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidInput
			}
			return err
		}
		definitions[*in.QuestionnaireID] = definition
	}
	if in.Score < 1 || in.Score > len(definition.Options) {
		return fmt.Errorf("%w: score %d outside option range 1..%d", ErrInvalidInput, in.Score, len(definition.Options))
	}
	return nil
}

func (s *CoachService) attemptDelivery(ctx context.Context, userID int64, interaction *models.CoachInteraction) {
	status := models.DeliveryDelivered
	if _, err := s.delivery.SendToContact(ctx, userID, interaction.PatientPhone, interaction.PatientName, interaction.Content); err != nil {
		log.Printf("coach: deliver interaction %d to %s: %v", interaction.ID, interaction.PatientPhone, err)
		status = models.DeliveryFailed
	}
	if err := s.interactions.SetDeliveryStatus(ctx, interaction.ID, status); err != nil {
		log.Printf("coach: record delivery status for interaction %d: %v", interaction.ID, err)
		return
	}
	interaction.DeliveryStatus = status
}

func (s *CoachService) loadProfile(ctx context.Context, userID int64, phone string) string {
	if phone == "" {
		return ""
	}
	lead, err := s.leads.GetByPhone(ctx, userID, phone)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("coach: load profile for %s: %v", phone, err)
		}
		return ""
	}
	parts := []string{"Nome: " + lead.Name}
	if lead.Objective != nil && *lead.Objective != "" {
		parts = append(parts, "Objetivo: "+*lead.Objective)
	}
	if lead.Notes != nil && *lead.Notes != "" {
		parts = append(parts, "Observações: "+*lead.Notes)
	}
	return strings.Join(parts, ". ")
}

func (s *CoachService) loadHistory(ctx context.Context, userID int64, phone string) []models.CoachInteraction {
	if phone == "" {
		return nil
	}
	history, err := s.interactions.ListRecentByPhone(ctx, userID, phone, 10)
	if err != nil {
		log.Printf("coach: load history for %s: %v", phone, err)
		return nil
	}
	return history
}

// behavioralTags derives textual hints for the prompt from the most recent
// interactions (newest first). They are appended to the prompt, not stored.
func behavioralTags(history []models.CoachInteraction, now time.Time) []string {
	var tags []string

	analyzed := 0
	for i, interaction := range history {
		if i >= 3 {
			break
		}
		if interaction.ActionType == models.ActionAnalyzeResponses {
			analyzed++
		}
	}
	if analyzed >= 2 {
		tags = append(tags, tagEngaged)
	}

	weekAgo := now.AddDate(0, 0, -7)
	activeThisWeek := false
	for _, interaction := range history {
		if interaction.CreatedAt.After(weekAgo) {
			activeThisWeek = true
			break
		}
	}
	if activeThisWeek {
		tags = append(tags, tagActiveWeek)
	} else {
		tags = append(tags, tagInactiveRecent)
	}
	return tags
}

func historyContext(history []models.CoachInteraction, tags []string) string {
	if len(history) == 0 {
		return ""
	}
	var recent []string
	for i, interaction := range history {
		if i >= 3 {
			break
		}
		recent = append(recent, interaction.ActionType)
	}
	return fmt.Sprintf(
		"Contexto do paciente: %s. Interações recentes: %s.",
		strings.Join(tags, "; "),
		strings.Join(recent, ", "),
	)
}

func buildPrompt(action, name, profile, contextLine string) string {
	var b strings.Builder
	switch action {
	case models.ActionGenerateQuestionnaire:
		fmt.Fprintf(&b, "Crie um questionário curto de acompanhamento nutricional para %s, "+
			"com 3 perguntas de múltipla escolha sobre hábitos alimentares e bem-estar.", name)
	case models.ActionGenerateMotivational:
		fmt.Fprintf(&b, "Escreva uma mensagem motivacional curta para %s continuar firme no plano alimentar.", name)
	case models.ActionGenerateReminder:
		fmt.Fprintf(&b, "Escreva um lembrete gentil para %s sobre os compromissos do plano nutricional de hoje.", name)
	}
	if profile != "" {
		b.WriteString("\n\nPerfil: ")
		b.WriteString(profile)
	}
	if contextLine != "" {
		b.WriteString("\n\n")
		b.WriteString(contextLine)
	} else {
		b.WriteString("\n\nSem histórico de interações anteriores.")
	}
	return b.String()
}
