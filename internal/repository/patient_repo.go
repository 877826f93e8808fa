package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type PatientRepository struct {
	db DBTX
}

func NewPatientRepository(db DBTX) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *models.Patient) error {
	query := `
		INSERT INTO pacientes (user_id, lead_id, name, phone, email, birth_date, objective, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		p.UserID, p.LeadID, p.Name, p.Phone, p.Email, p.BirthDate, p.Objective, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PatientRepository) GetByID(ctx context.Context, userID, patientID int64) (*models.Patient, error) {
	query := `
		SELECT id, user_id, lead_id, name, phone, email, birth_date, objective, notes, created_at, updated_at
		FROM pacientes
		WHERE id = $1 AND user_id = $2
	`
	var p models.Patient
	err := r.db.QueryRow(ctx, query, patientID, userID).Scan(
		&p.ID, &p.UserID, &p.LeadID, &p.Name, &p.Phone, &p.Email,
		&p.BirthDate, &p.Objective, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) GetByPhone(ctx context.Context, userID int64, phone string) (*models.Patient, error) {
	query := `
		SELECT id, user_id, lead_id, name, phone, email, birth_date, objective, notes, created_at, updated_at
		FROM pacientes
		WHERE user_id = $1 AND phone = $2
	`
	var p models.Patient
	err := r.db.QueryRow(ctx, query, userID, phone).Scan(
		&p.ID, &p.UserID, &p.LeadID, &p.Name, &p.Phone, &p.Email,
		&p.BirthDate, &p.Objective, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) ListByUser(ctx context.Context, userID int64) ([]models.Patient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, lead_id, name, phone, email, birth_date, objective, notes, created_at, updated_at
		FROM pacientes
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]models.Patient, 0)
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.LeadID, &p.Name, &p.Phone, &p.Email,
			&p.BirthDate, &p.Objective, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *PatientRepository) Update(ctx context.Context, p *models.Patient) error {
	query := `
		UPDATE pacientes
		SET name = $3, phone = $4, email = $5, birth_date = $6, objective = $7, notes = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query,
		p.ID, p.UserID, p.Name, p.Phone, p.Email, p.BirthDate, p.Objective, p.Notes,
	).Scan(&p.UpdatedAt)
}

func (r *PatientRepository) Delete(ctx context.Context, userID, patientID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM pacientes WHERE id = $1 AND user_id = $2`, patientID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
