package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type stubLeadReader struct {
	lead *models.Lead
	err  error
}

func (s *stubLeadReader) GetByPhone(_ context.Context, _ int64, _ string) (*models.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.lead == nil {
		return nil, pgx.ErrNoRows
	}
	return s.lead, nil
}

type stubInteractionStore struct {
	history    []models.CoachInteraction
	historyErr error
	createErr  error
	created    []*models.CoachInteraction
	statuses   map[int64]string
	nextID     int64
}

func (s *stubInteractionStore) Create(_ context.Context, interaction *models.CoachInteraction) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	interaction.ID = s.nextID
	s.created = append(s.created, interaction)
	return nil
}

func (s *stubInteractionStore) ListRecentByPhone(_ context.Context, _ int64, _ string, limit int) ([]models.CoachInteraction, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	if len(s.history) > limit {
		return s.history[:limit], nil
	}
	return s.history, nil
}

func (s *stubInteractionStore) SetDeliveryStatus(_ context.Context, interactionID int64, status string) error {
	if s.statuses == nil {
		s.statuses = make(map[int64]string)
	}
	s.statuses[interactionID] = status
	return nil
}

type stubResponseWriter struct {
	created   []*models.QuestionnaireResponse
	failAfter int
}

func (s *stubResponseWriter) Create(_ context.Context, response *models.QuestionnaireResponse) error {
	if s.failAfter > 0 && len(s.created) >= s.failAfter {
		return errors.New("insert failed")
	}
	s.created = append(s.created, response)
	return nil
}

type stubDefinitionReader struct {
	definitions map[int64]*models.Questionnaire
	calls       int
}

func (s *stubDefinitionReader) GetByID(_ context.Context, _ int64, questionnaireID int64) (*models.Questionnaire, error) {
	s.calls++
	definition, ok := s.definitions[questionnaireID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return definition, nil
}

type stubCompletionClient struct {
	text       string
	err        error
	lastPrompt string
}

func (s *stubCompletionClient) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	s.lastPrompt = userPrompt
	return s.text, s.err
}

type stubContactDeliverer struct {
	err   error
	sends []string
}

func (s *stubContactDeliverer) SendToContact(_ context.Context, _ int64, phone, _ string, _ string) (*models.Message, error) {
	s.sends = append(s.sends, phone)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{ID: 1}, nil
}

func newTestCoachService(
	leads *stubLeadReader,
	interactions *stubInteractionStore,
	responses *stubResponseWriter,
	llm *stubCompletionClient,
	delivery *stubContactDeliverer,
	now time.Time,
) *CoachService {
	service := NewCoachService(leads, interactions, responses, &stubDefinitionReader{}, llm, delivery)
	service.now = func() time.Time { return now }
	return service
}

func TestGenerateTagsEngagedPatient(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	interactions := &stubInteractionStore{
		history: []models.CoachInteraction{
			{ActionType: models.ActionAnalyzeResponses, CreatedAt: now.AddDate(0, 0, -1)},
			{ActionType: models.ActionAnalyzeResponses, CreatedAt: now.AddDate(0, 0, -3)},
			{ActionType: models.ActionAnalyzeResponses, CreatedAt: now.AddDate(0, 0, -5)},
		},
		nextID: 100,
	}
	llm := &stubCompletionClient{text: "Continue assim, Maria! 💪"}
	delivery := &stubContactDeliverer{}
	service := newTestCoachService(&stubLeadReader{}, interactions, &stubResponseWriter{}, llm, delivery, now)

	interaction, err := service.Generate(context.Background(), 7, GenerateRequest{
		Action: models.ActionGenerateMotivational,
		Phone:  "5511999999999",
		Name:   "Maria Silva",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tags, ok := interaction.Context["behavioral_tags"].([]string)
	if !ok {
		t.Fatalf("expected behavioral_tags in context, got %v", interaction.Context["behavioral_tags"])
	}
	wantTags := map[string]bool{}
	for _, tag := range tags {
		wantTags[tag] = true
	}
	if !wantTags["paciente engajado com questionários"] {
		t.Errorf("expected engaged tag, got %v", tags)
	}
	if !wantTags["ativo na última semana"] {
		t.Errorf("expected active-week tag, got %v", tags)
	}
	if wantTags["inativo recentemente"] {
		t.Errorf("did not expect inactive tag, got %v", tags)
	}
}

func TestGenerateMotivationalWithZeroHistory(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	interactions := &stubInteractionStore{}
	llm := &stubCompletionClient{text: "Você consegue! 🌱"}
	delivery := &stubContactDeliverer{}
	service := newTestCoachService(&stubLeadReader{}, interactions, &stubResponseWriter{}, llm, delivery, now)

	interaction, err := service.Generate(context.Background(), 7, GenerateRequest{
		Action: models.ActionGenerateMotivational,
		Phone:  "5511888887777",
		Name:   "João",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(interactions.created) != 1 {
		t.Fatalf("expected exactly one interaction, got %d", len(interactions.created))
	}
	if interaction.ActionType != models.ActionGenerateMotivational {
		t.Errorf("expected action %q, got %q", models.ActionGenerateMotivational, interaction.ActionType)
	}
	if got := interaction.Context["history_context"]; got != "" {
		t.Errorf("expected empty history context, got %v", got)
	}
	if !strings.Contains(llm.lastPrompt, "Sem histórico de interações anteriores.") {
		t.Errorf("expected empty-history marker in prompt, got %q", llm.lastPrompt)
	}
}

func TestGenerateLLMFailureWritesNothing(t *testing.T) {
	interactions := &stubInteractionStore{}
	llm := &stubCompletionClient{err: errors.New("upstream 500")}
	delivery := &stubContactDeliverer{}
	service := newTestCoachService(&stubLeadReader{}, interactions, &stubResponseWriter{}, llm, delivery, time.Now())

	_, err := service.Generate(context.Background(), 7, GenerateRequest{
		Action: models.ActionGenerateReminder,
		Phone:  "5511999999999",
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if len(interactions.created) != 0 {
		t.Errorf("expected no interaction rows, got %d", len(interactions.created))
	}
	if len(delivery.sends) != 0 {
		t.Errorf("expected no delivery attempts, got %d", len(delivery.sends))
	}
}

func TestGenerateRejectsUnknownAction(t *testing.T) {
	service := newTestCoachService(&stubLeadReader{}, &stubInteractionStore{}, &stubResponseWriter{}, &stubCompletionClient{}, &stubContactDeliverer{}, time.Now())

	_, err := service.Generate(context.Background(), 7, GenerateRequest{Action: "send_questionnaire"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateDeliveryFailureRecordedOnRow(t *testing.T) {
	interactions := &stubInteractionStore{}
	llm := &stubCompletionClient{text: "Lembrete do dia 🍎"}
	delivery := &stubContactDeliverer{err: errors.New("provider down")}
	service := newTestCoachService(&stubLeadReader{}, interactions, &stubResponseWriter{}, llm, delivery, time.Now())

	interaction, err := service.Generate(context.Background(), 7, GenerateRequest{
		Action: models.ActionGenerateReminder,
		Phone:  "5511999999999",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if interaction.DeliveryStatus != models.DeliveryFailed {
		t.Errorf("expected delivery status %q, got %q", models.DeliveryFailed, interaction.DeliveryStatus)
	}
	if interactions.statuses[interaction.ID] != models.DeliveryFailed {
		t.Errorf("expected stored status failed, got %q", interactions.statuses[interaction.ID])
	}
}

func TestProcessResponsesAverageScore(t *testing.T) {
	interactions := &stubInteractionStore{}
	responses := &stubResponseWriter{}
	llm := &stubCompletionClient{text: "Ótimo progresso! ✨"}
	delivery := &stubContactDeliverer{}
	service := newTestCoachService(&stubLeadReader{}, interactions, responses, llm, delivery, time.Now())

	interaction, err := service.ProcessResponses(context.Background(), 7, "5511999999999", "Maria", []ResponseInput{
		{Category: "behavioral", QuestionText: "Como foi sua alimentação hoje?", Answer: "Regular", Score: 1},
		{Category: "behavioral", QuestionText: "Bebeu água suficiente?", Answer: "Sim", Score: 3},
	})
	if err != nil {
		t.Fatalf("ProcessResponses: %v", err)
	}

	if len(responses.created) != 2 {
		t.Fatalf("expected 2 response rows, got %d", len(responses.created))
	}
	if responses.created[0].Score != 1 || responses.created[1].Score != 3 {
		t.Errorf("scores not preserved: %d, %d", responses.created[0].Score, responses.created[1].Score)
	}
	if responses.created[0].QuestionText != "Como foi sua alimentação hoje?" {
		t.Errorf("question text not preserved: %q", responses.created[0].QuestionText)
	}
	if interaction.ActionType != models.ActionAnalyzeResponses {
		t.Errorf("expected analyze_responses, got %q", interaction.ActionType)
	}
	if avg, _ := interaction.Context["avg_score"].(float64); avg != 2 {
		t.Errorf("expected avg_score 2, got %v", interaction.Context["avg_score"])
	}
}

func TestProcessResponsesRejectsScoreOutsideOptionRange(t *testing.T) {
	questionnaireID := int64(12)
	definitions := &stubDefinitionReader{
		definitions: map[int64]*models.Questionnaire{
			questionnaireID: {ID: questionnaireID, Options: []string{"Ótima", "Regular", "Ruim"}},
		},
	}
	interactions := &stubInteractionStore{}
	responses := &stubResponseWriter{}
	service := NewCoachService(&stubLeadReader{}, interactions, responses, definitions, &stubCompletionClient{text: "ok"}, &stubContactDeliverer{})

	_, err := service.ProcessResponses(context.Background(), 7, "5511999999999", "Maria", []ResponseInput{
		{QuestionnaireID: &questionnaireID, QuestionText: "Como foi sua alimentação hoje?", Answer: "Ótima", Score: 9999},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for score above option count, got %v", err)
	}
	if len(responses.created) != 0 {
		t.Errorf("expected no response rows, got %d", len(responses.created))
	}
	if len(interactions.created) != 0 {
		t.Errorf("expected no interaction rows, got %d", len(interactions.created))
	}

	_, err = service.ProcessResponses(context.Background(), 7, "5511999999999", "Maria", []ResponseInput{
		{QuestionnaireID: &questionnaireID, QuestionText: "Como foi sua alimentação hoje?", Answer: "Ruim", Score: 0},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero score, got %v", err)
	}
}

func TestProcessResponsesAcceptsScoreWithinOptionRange(t *testing.T) {
	questionnaireID := int64(12)
	definitions := &stubDefinitionReader{
		definitions: map[int64]*models.Questionnaire{
			questionnaireID: {ID: questionnaireID, Options: []string{"Ótima", "Regular", "Ruim"}},
		},
	}
	responses := &stubResponseWriter{}
	service := NewCoachService(&stubLeadReader{}, &stubInteractionStore{}, responses, definitions, &stubCompletionClient{text: "ok"}, &stubContactDeliverer{})

	_, err := service.ProcessResponses(context.Background(), 7, "5511999999999", "Maria", []ResponseInput{
		{QuestionnaireID: &questionnaireID, QuestionText: "Pergunta 1", Answer: "Ótima", Score: 1},
		{QuestionnaireID: &questionnaireID, QuestionText: "Pergunta 2", Answer: "Ruim", Score: 3},
	})
	if err != nil {
		t.Fatalf("ProcessResponses: %v", err)
	}
	if len(responses.created) != 2 {
		t.Fatalf("expected 2 response rows, got %d", len(responses.created))
	}
	if definitions.calls != 1 {
		t.Errorf("expected one definition lookup for the batch, got %d", definitions.calls)
	}
}

func TestProcessResponsesRejectsUnknownQuestionnaire(t *testing.T) {
	questionnaireID := int64(99)
	responses := &stubResponseWriter{}
	service := NewCoachService(&stubLeadReader{}, &stubInteractionStore{}, responses, &stubDefinitionReader{}, &stubCompletionClient{text: "ok"}, &stubContactDeliverer{})

	_, err := service.ProcessResponses(context.Background(), 7, "5511999999999", "Maria", []ResponseInput{
		{QuestionnaireID: &questionnaireID, QuestionText: "Pergunta", Answer: "a", Score: 1},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing definition, got %v", err)
	}
	if len(responses.created) != 0 {
		t.Errorf("expected no response rows, got %d", len(responses.created))
	}
}

func TestProcessResponsesPartialBatchKeepsEarlierRows(t *testing.T) {
	interactions := &stubInteractionStore{}
	responses := &stubResponseWriter{failAfter: 1}
	llm := &stubCompletionClient{text: "ok"}
	service := newTestCoachService(&stubLeadReader{}, interactions, responses, llm, &stubContactDeliverer{}, time.Now())

	_, err := service.ProcessResponses(context.Background(), 7, "5511999999999", "Maria", []ResponseInput{
		{QuestionText: "Pergunta 1", Answer: "a", Score: 1},
		{QuestionText: "Pergunta 2", Answer: "b", Score: 2},
	})
	if err == nil {
		t.Fatal("expected error from failed insert")
	}
	if len(responses.created) != 1 {
		t.Errorf("expected first row to remain recorded, got %d rows", len(responses.created))
	}
	if len(interactions.created) != 0 {
		t.Errorf("expected no analysis interaction, got %d", len(interactions.created))
	}
}

func TestBehavioralTagsInactivePatient(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	history := []models.CoachInteraction{
		{ActionType: models.ActionGenerateMotivational, CreatedAt: now.AddDate(0, 0, -20)},
	}

	tags := behavioralTags(history, now)
	if len(tags) != 1 || tags[0] != tagInactiveRecent {
		t.Errorf("expected only inactive tag, got %v", tags)
	}
}
