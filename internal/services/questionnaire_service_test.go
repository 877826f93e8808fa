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

type stubQuestionnaireStore struct {
	byFrequency map[string][]models.Questionnaire
	listErr     error
	created     []*models.Questionnaire
	calls       []string
}

func (s *stubQuestionnaireStore) Create(_ context.Context, q *models.Questionnaire) error {
	s.created = append(s.created, q)
	return nil
}

func (s *stubQuestionnaireStore) ListActive(_ context.Context, _ int64, category, frequency, _ string, limit int) ([]models.Questionnaire, error) {
	s.calls = append(s.calls, category+"/"+frequency)
	if s.listErr != nil {
		return nil, s.listErr
	}
	matches := s.byFrequency[frequency]
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type stubScheduleReader struct {
	schedule *models.ScheduledSending
	err      error
}

func (s *stubScheduleReader) GetByPatientPhone(_ context.Context, _ int64, _ string) (*models.ScheduledSending, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.schedule == nil {
		return nil, pgx.ErrNoRows
	}
	return s.schedule, nil
}

type stubInsightsReader struct {
	insights *models.PatientInsights
	err      error
}

func (s *stubInsightsReader) Insights(_ context.Context, _ int64, phone string) (*models.PatientInsights, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.insights, nil
}

func newTestQuestionnaireService(
	store *stubQuestionnaireStore,
	interactions *stubInteractionStore,
	delivery *stubContactDeliverer,
	now time.Time,
) *QuestionnaireService {
	service := NewQuestionnaireService(store, interactions, &stubInsightsReader{}, &stubScheduleReader{}, delivery)
	service.now = func() time.Time { return now }
	return service
}

func TestCategoryForDayParity(t *testing.T) {
	// Day 34 of 2026 (even) and day 35 (odd).
	evenDay := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	oddDay := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)

	if evenDay.YearDay()%2 != 0 {
		t.Fatalf("test setup: expected even year day, got %d", evenDay.YearDay())
	}
	if got := categoryForDay(evenDay); got != models.CategoryBehavioral {
		t.Errorf("even day: expected behavioral, got %q", got)
	}
	if got := categoryForDay(oddDay); got != models.CategoryWellBeing {
		t.Errorf("odd day: expected well_being, got %q", got)
	}
}

func TestSendDailyComposesNumberedMessage(t *testing.T) {
	// An even year day, so the behavioral set is selected.
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	store := &stubQuestionnaireStore{
		byFrequency: map[string][]models.Questionnaire{
			models.FrequencyDaily: {
				{ID: 1, Question: "Como foi sua alimentação hoje?", Options: []string{"Ótima", "Regular", "Ruim"}},
				{ID: 2, Question: "Quantos copos de água você bebeu?", Options: []string{"Menos de 4", "4 a 8", "Mais de 8"}},
			},
		},
	}
	interactions := &stubInteractionStore{}
	delivery := &stubContactDeliverer{}
	service := newTestQuestionnaireService(store, interactions, delivery, day)

	interaction, err := service.SendDaily(context.Background(), 7, "5511999999999", "Maria")
	if err != nil {
		t.Fatalf("SendDaily: %v", err)
	}

	if len(delivery.sends) != 1 {
		t.Fatalf("expected one delivery, got %d", len(delivery.sends))
	}
	content := interaction.Content
	if !strings.Contains(content, "1. Como foi sua alimentação hoje?") {
		t.Errorf("expected numbered first question, got %q", content)
	}
	if !strings.Contains(content, "a) Ótima") || !strings.Contains(content, "b) Regular") {
		t.Errorf("expected lettered options, got %q", content)
	}
	if interaction.Context["category"] != models.CategoryBehavioral {
		t.Errorf("expected behavioral category, got %v", interaction.Context["category"])
	}
	if interaction.Context["question_count"] != 2 {
		t.Errorf("expected question_count 2, got %v", interaction.Context["question_count"])
	}
	if interaction.DeliveryStatus != models.DeliveryDelivered {
		t.Errorf("expected delivered status, got %q", interaction.DeliveryStatus)
	}
}

func TestSendDailyIncludesWeeklyOnMonday(t *testing.T) {
	// 2026-02-02 is a Monday with an odd year day (33), so well_being weekly
	// definitions join the daily set.
	monday := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	if monday.Weekday() != time.Monday || monday.YearDay()%2 == 0 {
		t.Fatalf("test setup: expected odd-day Monday, got %v day %d", monday.Weekday(), monday.YearDay())
	}

	store := &stubQuestionnaireStore{
		byFrequency: map[string][]models.Questionnaire{
			models.FrequencyDaily: {
				{ID: 1, Question: "Como está seu sono?", Options: []string{"Bom", "Ruim"}},
			},
			models.FrequencyWeekly: {
				{ID: 2, Question: "Como foi sua semana?", Options: []string{"Ótima", "Difícil"}},
			},
		},
	}
	interactions := &stubInteractionStore{}
	delivery := &stubContactDeliverer{}
	service := newTestQuestionnaireService(store, interactions, delivery, monday)

	interaction, err := service.SendDaily(context.Background(), 7, "5511999999999", "Maria")
	if err != nil {
		t.Fatalf("SendDaily: %v", err)
	}

	if interaction.Context["question_count"] != 2 {
		t.Errorf("expected daily plus weekly questions, got %v", interaction.Context["question_count"])
	}
	if interaction.Context["frequency"] != models.FrequencyWeekly {
		t.Errorf("expected weekly frequency marker, got %v", interaction.Context["frequency"])
	}
	if len(store.calls) != 2 {
		t.Errorf("expected daily and weekly lookups, got %v", store.calls)
	}
}

func TestSendDailyNoMatchesWritesNothing(t *testing.T) {
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	store := &stubQuestionnaireStore{byFrequency: map[string][]models.Questionnaire{}}
	interactions := &stubInteractionStore{}
	delivery := &stubContactDeliverer{}
	service := newTestQuestionnaireService(store, interactions, delivery, day)

	_, err := service.SendDaily(context.Background(), 7, "5511999999999", "Maria")
	if !errors.Is(err, ErrNoQuestionnaires) {
		t.Fatalf("expected ErrNoQuestionnaires, got %v", err)
	}
	if len(interactions.created) != 0 {
		t.Errorf("expected zero interaction rows, got %d", len(interactions.created))
	}
	if len(delivery.sends) != 0 {
		t.Errorf("expected no delivery, got %d", len(delivery.sends))
	}
}

func TestSendDailyDeliveryFailureRecordedOnRow(t *testing.T) {
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	store := &stubQuestionnaireStore{
		byFrequency: map[string][]models.Questionnaire{
			models.FrequencyDaily: {{ID: 1, Question: "Pergunta", Options: []string{"a"}}},
		},
	}
	interactions := &stubInteractionStore{}
	delivery := &stubContactDeliverer{err: errors.New("provider down")}
	service := newTestQuestionnaireService(store, interactions, delivery, day)

	interaction, err := service.SendDaily(context.Background(), 7, "5511999999999", "Maria")
	if err != nil {
		t.Fatalf("SendDaily: %v", err)
	}
	if len(interactions.created) != 1 {
		t.Fatalf("expected one interaction row, got %d", len(interactions.created))
	}
	if interaction.DeliveryStatus != models.DeliveryFailed {
		t.Errorf("expected failed status, got %q", interaction.DeliveryStatus)
	}
	if interactions.statuses[interaction.ID] != models.DeliveryFailed {
		t.Errorf("expected stored status failed, got %q", interactions.statuses[interaction.ID])
	}
}

func TestSendDailySkipsOptedOutPatient(t *testing.T) {
	day := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	store := &stubQuestionnaireStore{
		byFrequency: map[string][]models.Questionnaire{
			models.FrequencyDaily: {{ID: 1, Question: "Pergunta", Options: []string{"a"}}},
		},
	}
	interactions := &stubInteractionStore{}
	delivery := &stubContactDeliverer{}
	schedules := &stubScheduleReader{
		schedule: &models.ScheduledSending{PatientID: 3, DailyEnabled: false, Active: true},
	}
	service := NewQuestionnaireService(store, interactions, &stubInsightsReader{}, schedules, delivery)
	service.now = func() time.Time { return day }

	_, err := service.SendDaily(context.Background(), 7, "5511999999999", "Maria")
	if !errors.Is(err, ErrSendingDisabled) {
		t.Fatalf("expected ErrSendingDisabled, got %v", err)
	}
	if len(interactions.created) != 0 {
		t.Errorf("expected zero interaction rows, got %d", len(interactions.created))
	}
	if len(delivery.sends) != 0 {
		t.Errorf("expected no delivery, got %d", len(delivery.sends))
	}
}

func TestCreateCustomForcesCategoryAndStatus(t *testing.T) {
	store := &stubQuestionnaireStore{}
	service := NewQuestionnaireService(store, &stubInteractionStore{}, &stubInsightsReader{}, &stubScheduleReader{}, &stubContactDeliverer{})

	q := &models.Questionnaire{
		Title:     "Hidratação",
		Question:  "Quantos copos de água hoje?",
		Options:   []string{"1-3", "4-6", "7+"},
		Frequency: models.FrequencyDaily,
		Category:  models.CategoryBehavioral,
		Status:    models.QuestionnaireRetired,
	}
	if err := service.CreateCustom(context.Background(), 7, q); err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}

	if q.Category != models.CategoryCustom {
		t.Errorf("expected custom category, got %q", q.Category)
	}
	if q.Status != models.QuestionnaireActive {
		t.Errorf("expected active status, got %q", q.Status)
	}
	if q.UserID != 7 {
		t.Errorf("expected owner 7, got %d", q.UserID)
	}
}

func TestCreateCustomRejectsMissingFields(t *testing.T) {
	service := NewQuestionnaireService(&stubQuestionnaireStore{}, &stubInteractionStore{}, &stubInsightsReader{}, &stubScheduleReader{}, &stubContactDeliverer{})

	err := service.CreateCustom(context.Background(), 7, &models.Questionnaire{
		Title:     "Sem pergunta",
		Frequency: models.FrequencyDaily,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
