package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert keeps at most one session per user and provider.
func (r *SessionRepository) Upsert(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO whatsapp_sessions (user_id, provider, instance_name, phone, is_connected, qr_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			instance_name = EXCLUDED.instance_name,
			phone = EXCLUDED.phone,
			is_connected = EXCLUDED.is_connected,
			qr_code = EXCLUDED.qr_code,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		s.UserID, s.Provider, s.InstanceName, s.Phone, s.IsConnected, s.QRCode,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SessionRepository) GetByUser(ctx context.Context, userID int64, provider string) (*models.Session, error) {
	query := `
		SELECT id, user_id, provider, instance_name, phone, is_connected, qr_code, created_at, updated_at
		FROM whatsapp_sessions
		WHERE user_id = $1 AND provider = $2
	`
	var s models.Session
	err := r.db.QueryRow(ctx, query, userID, provider).Scan(
		&s.ID, &s.UserID, &s.Provider, &s.InstanceName, &s.Phone,
		&s.IsConnected, &s.QRCode, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetConnectedByUser returns the user's connected session regardless of
// provider, preferring the most recently updated one.
func (r *SessionRepository) GetConnectedByUser(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		SELECT id, user_id, provider, instance_name, phone, is_connected, qr_code, created_at, updated_at
		FROM whatsapp_sessions
		WHERE user_id = $1 AND is_connected = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var s models.Session
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Provider, &s.InstanceName, &s.Phone,
		&s.IsConnected, &s.QRCode, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByInstance resolves the owning user for an inbound webhook.
func (r *SessionRepository) GetByInstance(ctx context.Context, provider, instanceName string) (*models.Session, error) {
	query := `
		SELECT id, user_id, provider, instance_name, phone, is_connected, qr_code, created_at, updated_at
		FROM whatsapp_sessions
		WHERE provider = $1 AND instance_name = $2
	`
	var s models.Session
	err := r.db.QueryRow(ctx, query, provider, instanceName).Scan(
		&s.ID, &s.UserID, &s.Provider, &s.InstanceName, &s.Phone,
		&s.IsConnected, &s.QRCode, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) SetConnection(ctx context.Context, userID int64, provider string, connected bool, qrCode *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_sessions
		SET is_connected = $3, qr_code = $4, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`, userID, provider, connected, qrCode)
	return err
}

type TwilioNumberRepository struct {
	db DBTX
}

func NewTwilioNumberRepository(db DBTX) *TwilioNumberRepository {
	return &TwilioNumberRepository{db: db}
}

func (r *TwilioNumberRepository) Create(ctx context.Context, n *models.TwilioNumber) error {
	query := `
		INSERT INTO user_twilio_numbers (user_id, phone_number, sid)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO UPDATE SET user_id = EXCLUDED.user_id, sid = EXCLUDED.sid
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, n.UserID, n.PhoneNumber, n.SID).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *TwilioNumberRepository) GetByPhone(ctx context.Context, phoneNumber string) (*models.TwilioNumber, error) {
	query := `
		SELECT id, user_id, phone_number, sid, created_at
		FROM user_twilio_numbers
		WHERE phone_number = $1
	`
	var n models.TwilioNumber
	err := r.db.QueryRow(ctx, query, phoneNumber).
		Scan(&n.ID, &n.UserID, &n.PhoneNumber, &n.SID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *TwilioNumberRepository) ListByUser(ctx context.Context, userID int64) ([]models.TwilioNumber, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, phone_number, sid, created_at
		FROM user_twilio_numbers
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	numbers := make([]models.TwilioNumber, 0)
	for rows.Next() {
		var n models.TwilioNumber
		if err := rows.Scan(&n.ID, &n.UserID, &n.PhoneNumber, &n.SID, &n.CreatedAt); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
