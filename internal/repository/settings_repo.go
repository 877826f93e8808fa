package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type SettingsRepository struct {
	db DBTX
}

func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) CreateDefault(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_settings (user_id, default_provider)
		VALUES ($1, 'evolution')
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *SettingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserSettings, error) {
	query := `
		SELECT id, user_id, display_name, clinic_name, default_provider, notify_by_email, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`
	var s models.UserSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.DisplayName,
		&s.ClinicName,
		&s.DefaultProvider,
		&s.NotifyByEmail,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, display_name, clinic_name, default_provider, notify_by_email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			clinic_name = EXCLUDED.clinic_name,
			default_provider = EXCLUDED.default_provider,
			notify_by_email = EXCLUDED.notify_by_email,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		s.UserID,
		s.DisplayName,
		s.ClinicName,
		s.DefaultProvider,
		s.NotifyByEmail,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}
