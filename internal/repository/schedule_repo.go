package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type ScheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Upsert keeps at most one envios_programados row per patient.
func (r *ScheduleRepository) Upsert(ctx context.Context, s *models.ScheduledSending) error {
	query := `
		INSERT INTO envios_programados (user_id, patient_id, daily_enabled, weekly_enabled, active)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM pacientes WHERE id = $2 AND user_id = $1)
		ON CONFLICT (patient_id) DO UPDATE SET
			daily_enabled = EXCLUDED.daily_enabled,
			weekly_enabled = EXCLUDED.weekly_enabled,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		s.UserID, s.PatientID, s.DailyEnabled, s.WeeklyEnabled, s.Active,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *ScheduleRepository) GetByPatient(ctx context.Context, userID, patientID int64) (*models.ScheduledSending, error) {
	query := `
		SELECT id, user_id, patient_id, daily_enabled, weekly_enabled, active, created_at, updated_at
		FROM envios_programados
		WHERE user_id = $1 AND patient_id = $2
	`
	var s models.ScheduledSending
	err := r.db.QueryRow(ctx, query, userID, patientID).Scan(
		&s.ID, &s.UserID, &s.PatientID, &s.DailyEnabled, &s.WeeklyEnabled,
		&s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByPatientPhone resolves the opt-in row through the patient's phone,
// the key dispatch flows address patients by.
func (r *ScheduleRepository) GetByPatientPhone(ctx context.Context, userID int64, phone string) (*models.ScheduledSending, error) {
	query := `
		SELECT ep.id, ep.user_id, ep.patient_id, ep.daily_enabled, ep.weekly_enabled, ep.active, ep.created_at, ep.updated_at
		FROM envios_programados ep
		JOIN pacientes p ON p.id = ep.patient_id
		WHERE ep.user_id = $1 AND p.phone = $2
	`
	var s models.ScheduledSending
	err := r.db.QueryRow(ctx, query, userID, phone).Scan(
		&s.ID, &s.UserID, &s.PatientID, &s.DailyEnabled, &s.WeeklyEnabled,
		&s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) ListActiveByUser(ctx context.Context, userID int64) ([]models.ScheduledSending, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, patient_id, daily_enabled, weekly_enabled, active, created_at, updated_at
		FROM envios_programados
		WHERE user_id = $1 AND active = TRUE
		ORDER BY patient_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]models.ScheduledSending, 0)
	for rows.Next() {
		var s models.ScheduledSending
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.PatientID, &s.DailyEnabled, &s.WeeklyEnabled,
			&s.Active, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
