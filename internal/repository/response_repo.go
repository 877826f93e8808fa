package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type ResponseRepository struct {
	db DBTX
}

func NewResponseRepository(db DBTX) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) Create(ctx context.Context, resp *models.QuestionnaireResponse) error {
	query := `
		INSERT INTO coach_responses
			(user_id, questionnaire_id, patient_phone, patient_name, category, question_text, answer, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		resp.UserID, resp.QuestionnaireID, resp.PatientPhone, resp.PatientName,
		resp.Category, resp.QuestionText, resp.Answer, resp.Score,
	).Scan(&resp.ID, &resp.CreatedAt)
}

func (r *ResponseRepository) ListByPatient(ctx context.Context, userID int64, patientPhone string, limit int) ([]models.QuestionnaireResponse, error) {
	query := `
		SELECT id, user_id, questionnaire_id, patient_phone, patient_name, category,
			question_text, answer, score, created_at
		FROM coach_responses
		WHERE user_id = $1 AND patient_phone = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, userID, patientPhone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]models.QuestionnaireResponse, 0)
	for rows.Next() {
		var resp models.QuestionnaireResponse
		if err := rows.Scan(
			&resp.ID, &resp.UserID, &resp.QuestionnaireID, &resp.PatientPhone,
			&resp.PatientName, &resp.Category, &resp.QuestionText,
			&resp.Answer, &resp.Score, &resp.CreatedAt,
		); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// Insights aggregates a patient's responses in SQL; no LLM involved.
func (r *ResponseRepository) Insights(ctx context.Context, userID int64, patientPhone string) (*models.PatientInsights, error) {
	insights := &models.PatientInsights{
		PatientPhone:     patientPhone,
		CategoryAverages: make(map[string]float64),
	}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0), MAX(created_at)
		FROM coach_responses
		WHERE user_id = $1 AND patient_phone = $2
	`, userID, patientPhone).Scan(&insights.ResponseCount, &insights.AverageScore, &insights.LastResponseAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT category, AVG(score)
		FROM coach_responses
		WHERE user_id = $1 AND patient_phone = $2
		GROUP BY category
	`, userID, patientPhone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var avg float64
		if err := rows.Scan(&category, &avg); err != nil {
			return nil, err
		}
		insights.CategoryAverages[category] = avg
	}
	return insights, rows.Err()
}
