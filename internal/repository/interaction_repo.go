package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type InteractionRepository struct {
	db DBTX
}

func NewInteractionRepository(db DBTX) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Create(ctx context.Context, i *models.CoachInteraction) error {
	query := `
		INSERT INTO whatsapp_coach_interactions
			(user_id, patient_phone, patient_name, action_type, content, context, delivery_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		i.UserID, i.PatientPhone, i.PatientName, i.ActionType, i.Content, i.Context, i.DeliveryStatus,
	).Scan(&i.ID, &i.CreatedAt)
}

// ListRecentByPhone returns the newest interactions first, used as the
// personalization corpus.
func (r *InteractionRepository) ListRecentByPhone(
	ctx context.Context,
	userID int64,
	patientPhone string,
	limit int,
) ([]models.CoachInteraction, error) {
	query := `
		SELECT id, user_id, patient_phone, patient_name, action_type, content, context,
			delivery_status, created_at
		FROM whatsapp_coach_interactions
		WHERE user_id = $1 AND patient_phone = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, userID, patientPhone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interactions := make([]models.CoachInteraction, 0)
	for rows.Next() {
		var i models.CoachInteraction
		if err := rows.Scan(
			&i.ID, &i.UserID, &i.PatientPhone, &i.PatientName, &i.ActionType,
			&i.Content, &i.Context, &i.DeliveryStatus, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		interactions = append(interactions, i)
	}
	return interactions, rows.Err()
}

// SetDeliveryStatus records the outcome of the delivery attempt that follows
// a persisted generation.
func (r *InteractionRepository) SetDeliveryStatus(ctx context.Context, interactionID int64, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_coach_interactions
		SET delivery_status = $2
		WHERE id = $1
	`, interactionID, status)
	return err
}
