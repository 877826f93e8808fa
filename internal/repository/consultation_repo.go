package repository

import (
	"context"
	"time"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type ConsultationRepository struct {
	db DBTX
}

func NewConsultationRepository(db DBTX) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

func (r *ConsultationRepository) Create(ctx context.Context, c *models.Consultation) error {
	query := `
		INSERT INTO consultations (user_id, patient_id, scheduled_at, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		c.UserID, c.PatientID, c.ScheduledAt, c.DurationMinutes, c.Status, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ConsultationRepository) GetByID(ctx context.Context, userID, consultationID int64) (*models.Consultation, error) {
	query := `
		SELECT id, user_id, patient_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at
		FROM consultations
		WHERE id = $1 AND user_id = $2
	`
	var c models.Consultation
	err := r.db.QueryRow(ctx, query, consultationID, userID).Scan(
		&c.ID, &c.UserID, &c.PatientID, &c.ScheduledAt, &c.DurationMinutes,
		&c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConsultationRepository) ListByUser(ctx context.Context, userID int64, from, to *time.Time) ([]models.Consultation, error) {
	query := `
		SELECT id, user_id, patient_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at
		FROM consultations
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR scheduled_at >= $2)
		  AND ($3::timestamptz IS NULL OR scheduled_at < $3)
		ORDER BY scheduled_at
	`
	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	consultations := make([]models.Consultation, 0)
	for rows.Next() {
		var c models.Consultation
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.PatientID, &c.ScheduledAt, &c.DurationMinutes,
			&c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		consultations = append(consultations, c)
	}
	return consultations, rows.Err()
}

func (r *ConsultationRepository) UpdateStatus(ctx context.Context, userID, consultationID int64, status string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE consultations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, consultationID, userID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ConsultationRepository) CreatePerformed(ctx context.Context, p *models.PerformedConsultation) error {
	query := `
		INSERT INTO consultas_realizadas (user_id, patient_id, consultation_id, performed_at, summary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		p.UserID, p.PatientID, p.ConsultationID, p.PerformedAt, p.Summary,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *ConsultationRepository) ListPerformedByPatient(ctx context.Context, userID, patientID int64) ([]models.PerformedConsultation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, patient_id, consultation_id, performed_at, summary, created_at
		FROM consultas_realizadas
		WHERE user_id = $1 AND patient_id = $2
		ORDER BY performed_at DESC
	`, userID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	performed := make([]models.PerformedConsultation, 0)
	for rows.Next() {
		var p models.PerformedConsultation
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.PatientID, &p.ConsultationID,
			&p.PerformedAt, &p.Summary, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		performed = append(performed, p)
	}
	return performed, rows.Err()
}

func (r *ConsultationRepository) AddFile(ctx context.Context, f *models.ConsultationFile) error {
	query := `
		INSERT INTO consulta_arquivos (user_id, consulta_realizada_id, file_name, file_url, content_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		f.UserID, f.PerformedID, f.FileName, f.FileURL, f.ContentType,
	).Scan(&f.ID, &f.CreatedAt)
}

func (r *ConsultationRepository) ListFiles(ctx context.Context, userID, performedID int64) ([]models.ConsultationFile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, consulta_realizada_id, file_name, file_url, content_type, created_at
		FROM consulta_arquivos
		WHERE user_id = $1 AND consulta_realizada_id = $2
		ORDER BY created_at
	`, userID, performedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]models.ConsultationFile, 0)
	for rows.Next() {
		var f models.ConsultationFile
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.PerformedID, &f.FileName, &f.FileURL, &f.ContentType, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
