package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type LeadRepository struct {
	db DBTX
}

func NewLeadRepository(db DBTX) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (user_id, name, phone, email, status, position, objective, notes)
		VALUES ($1, $2, $3, $4, $5,
			COALESCE((SELECT MAX(position) + 1 FROM leads WHERE user_id = $1 AND status = $5), 0),
			$6, $7)
		RETURNING id, position, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		lead.UserID, lead.Name, lead.Phone, lead.Email, lead.Status, lead.Objective, lead.Notes,
	).Scan(&lead.ID, &lead.Position, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *LeadRepository) GetByID(ctx context.Context, userID, leadID int64) (*models.Lead, error) {
	query := `
		SELECT id, user_id, name, phone, email, status, position, objective, notes, created_at, updated_at
		FROM leads
		WHERE id = $1 AND user_id = $2
	`
	var lead models.Lead
	err := r.db.QueryRow(ctx, query, leadID, userID).Scan(
		&lead.ID, &lead.UserID, &lead.Name, &lead.Phone, &lead.Email,
		&lead.Status, &lead.Position, &lead.Objective, &lead.Notes,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByPhone is used by the coaching flow to load a patient profile; absence
// is tolerated by the caller.
func (r *LeadRepository) GetByPhone(ctx context.Context, userID int64, phone string) (*models.Lead, error) {
	query := `
		SELECT id, user_id, name, phone, email, status, position, objective, notes, created_at, updated_at
		FROM leads
		WHERE user_id = $1 AND phone = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var lead models.Lead
	err := r.db.QueryRow(ctx, query, userID, phone).Scan(
		&lead.ID, &lead.UserID, &lead.Name, &lead.Phone, &lead.Email,
		&lead.Status, &lead.Position, &lead.Objective, &lead.Notes,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) ListByUser(ctx context.Context, userID int64) ([]models.Lead, error) {
	query := `
		SELECT id, user_id, name, phone, email, status, position, objective, notes, created_at, updated_at
		FROM leads
		WHERE user_id = $1
		ORDER BY status, position, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		var lead models.Lead
		if err := rows.Scan(
			&lead.ID, &lead.UserID, &lead.Name, &lead.Phone, &lead.Email,
			&lead.Status, &lead.Position, &lead.Objective, &lead.Notes,
			&lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads
		SET name = $3, phone = $4, email = $5, objective = $6, notes = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query,
		lead.ID, lead.UserID, lead.Name, lead.Phone, lead.Email, lead.Objective, lead.Notes,
	).Scan(&lead.UpdatedAt)
}

// Move updates Kanban status and position in one statement.
func (r *LeadRepository) Move(ctx context.Context, userID, leadID int64, status string, position int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE leads
		SET status = $3, position = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, leadID, userID, status, position)
	return err
}

func (r *LeadRepository) Delete(ctx context.Context, userID, leadID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND user_id = $2`, leadID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LeadRepository) SetTags(ctx context.Context, userID, leadID int64, tagIDs []int64) error {
	if _, err := r.db.Exec(ctx, `
		DELETE FROM lead_tags
		WHERE lead_id = $1
		  AND lead_id IN (SELECT id FROM leads WHERE user_id = $2)
	`, leadID, userID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO lead_tags (lead_id, tag_id)
			SELECT $1, $2
			WHERE EXISTS (SELECT 1 FROM objetivo_tags WHERE id = $2 AND user_id = $3)
			ON CONFLICT DO NOTHING
		`, leadID, tagID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *LeadRepository) ListTags(ctx context.Context, leadID int64) ([]models.ObjetivoTag, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.color, t.created_at
		FROM objetivo_tags t
		JOIN lead_tags lt ON lt.tag_id = t.id
		WHERE lt.lead_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]models.ObjetivoTag, 0)
	for rows.Next() {
		var tag models.ObjetivoTag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
