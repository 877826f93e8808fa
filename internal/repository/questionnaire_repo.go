package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type QuestionnaireRepository struct {
	db DBTX
}

func NewQuestionnaireRepository(db DBTX) *QuestionnaireRepository {
	return &QuestionnaireRepository{db: db}
}

func (r *QuestionnaireRepository) Create(ctx context.Context, q *models.Questionnaire) error {
	query := `
		INSERT INTO coach_questionnaires
			(user_id, title, category, question, options, frequency, send_time, day_of_week, day_of_month, status, patient_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		q.UserID, q.Title, q.Category, q.Question, q.Options, q.Frequency,
		q.SendTime, q.DayOfWeek, q.DayOfMonth, q.Status, q.PatientPhone,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

func (r *QuestionnaireRepository) GetByID(ctx context.Context, userID, questionnaireID int64) (*models.Questionnaire, error) {
	query := `
		SELECT id, user_id, title, category, question, options, frequency, send_time,
			day_of_week, day_of_month, status, patient_phone, created_at, updated_at
		FROM coach_questionnaires
		WHERE id = $1 AND user_id = $2
	`
	var q models.Questionnaire
	err := r.db.QueryRow(ctx, query, questionnaireID, userID).Scan(
		&q.ID, &q.UserID, &q.Title, &q.Category, &q.Question, &q.Options,
		&q.Frequency, &q.SendTime, &q.DayOfWeek, &q.DayOfMonth,
		&q.Status, &q.PatientPhone, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListActive returns up to limit active definitions for a category and
// frequency. Definitions bound to a single patient only match that patient.
func (r *QuestionnaireRepository) ListActive(
	ctx context.Context,
	userID int64,
	category string,
	frequency string,
	patientPhone string,
	limit int,
) ([]models.Questionnaire, error) {
	query := `
		SELECT id, user_id, title, category, question, options, frequency, send_time,
			day_of_week, day_of_month, status, patient_phone, created_at, updated_at
		FROM coach_questionnaires
		WHERE user_id = $1
		  AND category = $2
		  AND frequency = $3
		  AND status = 'active'
		  AND (patient_phone IS NULL OR patient_phone = $4)
		ORDER BY id
		LIMIT $5
	`
	rows, err := r.db.Query(ctx, query, userID, category, frequency, patientPhone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questionnaires := make([]models.Questionnaire, 0)
	for rows.Next() {
		var q models.Questionnaire
		if err := rows.Scan(
			&q.ID, &q.UserID, &q.Title, &q.Category, &q.Question, &q.Options,
			&q.Frequency, &q.SendTime, &q.DayOfWeek, &q.DayOfMonth,
			&q.Status, &q.PatientPhone, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, err
		}
		questionnaires = append(questionnaires, q)
	}
	return questionnaires, rows.Err()
}

func (r *QuestionnaireRepository) ListByUser(ctx context.Context, userID int64) ([]models.Questionnaire, error) {
	query := `
		SELECT id, user_id, title, category, question, options, frequency, send_time,
			day_of_week, day_of_month, status, patient_phone, created_at, updated_at
		FROM coach_questionnaires
		WHERE user_id = $1
		ORDER BY status, category, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questionnaires := make([]models.Questionnaire, 0)
	for rows.Next() {
		var q models.Questionnaire
		if err := rows.Scan(
			&q.ID, &q.UserID, &q.Title, &q.Category, &q.Question, &q.Options,
			&q.Frequency, &q.SendTime, &q.DayOfWeek, &q.DayOfMonth,
			&q.Status, &q.PatientPhone, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, err
		}
		questionnaires = append(questionnaires, q)
	}
	return questionnaires, rows.Err()
}

// Retire soft-deletes a definition so historical responses stay attributable.
func (r *QuestionnaireRepository) Retire(ctx context.Context, userID, questionnaireID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE coach_questionnaires
		SET status = 'retired', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'active'
	`, questionnaireID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
