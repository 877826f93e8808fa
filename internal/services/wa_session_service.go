package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type sessionStore interface {
	Upsert(ctx context.Context, s *models.Session) error
	GetByUser(ctx context.Context, userID int64, provider string) (*models.Session, error)
	SetConnection(ctx context.Context, userID int64, provider string, connected bool, qrCode *string) error
}

type twilioNumberStore interface {
	Create(ctx context.Context, n *models.TwilioNumber) error
	ListByUser(ctx context.Context, userID int64) ([]models.TwilioNumber, error)
}

type evolutionAPI interface {
	FetchQR(ctx context.Context, instance string) (string, error)
	CheckConnection(ctx context.Context, instance string) (bool, error)
}

type maytapiAPI interface {
	Status(ctx context.Context, phoneID string) (bool, string, error)
}

type twilioAPI interface {
	ListOwnedNumbers(ctx context.Context) ([]string, error)
}

// WASessionService manages per-user provider sessions: pairing, connection
// checks and Twilio number linking.
type WASessionService struct {
	sessions      sessionStore
	twilioNumbers twilioNumberStore
	evolution     evolutionAPI
	maytapi       maytapiAPI
	twilio        twilioAPI
}

func NewWASessionService(
	sessions sessionStore,
	twilioNumbers twilioNumberStore,
	evolution evolutionAPI,
	maytapi maytapiAPI,
	twilio twilioAPI,
) *WASessionService {
	return &WASessionService{
		sessions:      sessions,
		twilioNumbers: twilioNumbers,
		evolution:     evolution,
		maytapi:       maytapi,
		twilio:        twilio,
	}
}

// Connect provisions (or refreshes) the user's session for a provider and
// fetches the pairing QR code where the provider has one.
func (s *WASessionService) Connect(ctx context.Context, userID int64, provider string) (*models.Session, error) {
	switch provider {
	case models.ProviderEvolution, models.ProviderMaytapi:
	default:
		return nil, ErrInvalidInput
	}

	session := &models.Session{
		UserID:       userID,
		Provider:     provider,
		InstanceName: fmt.Sprintf("nutribox_%d", userID),
	}

	if provider == models.ProviderEvolution && s.evolution != nil {
		qr, err := s.evolution.FetchQR(ctx, session.InstanceName)
		if err != nil {
			return nil, err
		}
		if qr != "" {
			session.QRCode = &qr
		}
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetQR re-fetches the pairing QR for an existing session. Calling it twice
// without a state change yields the same pairing state.
func (s *WASessionService) GetQR(ctx context.Context, userID int64, provider string) (string, error) {
	session, err := s.sessions.GetByUser(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if session.IsConnected {
		return "", nil
	}
	if provider != models.ProviderEvolution || s.evolution == nil {
		if session.QRCode != nil {
			return *session.QRCode, nil
		}
		return "", nil
	}

	qr, err := s.evolution.FetchQR(ctx, session.InstanceName)
	if err != nil {
		return "", err
	}
	if qr != "" {
		if err := s.sessions.SetConnection(ctx, userID, provider, false, &qr); err != nil {
			return "", err
		}
	}
	return qr, nil
}

// CheckConnection asks the provider for the session's state and mirrors it
// into the stored row. Pure read against the provider; idempotent.
func (s *WASessionService) CheckConnection(ctx context.Context, userID int64, provider string) (bool, error) {
	session, err := s.sessions.GetByUser(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}

	var connected bool
	switch provider {
	case models.ProviderEvolution:
		if s.evolution == nil {
			return session.IsConnected, nil
		}
		connected, err = s.evolution.CheckConnection(ctx, session.InstanceName)
	case models.ProviderMaytapi:
		if s.maytapi == nil {
			return session.IsConnected, nil
		}
		connected, _, err = s.maytapi.Status(ctx, session.InstanceName)
	default:
		return false, ErrInvalidInput
	}
	if err != nil {
		return false, err
	}

	if connected != session.IsConnected {
		var qr *string
		if !connected {
			qr = session.QRCode
		}
		if err := s.sessions.SetConnection(ctx, userID, provider, connected, qr); err != nil {
			return connected, err
		}
	}
	return connected, nil
}

func (s *WASessionService) Disconnect(ctx context.Context, userID int64, provider string) error {
	if _, err := s.sessions.GetByUser(ctx, userID, provider); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.sessions.SetConnection(ctx, userID, provider, false, nil)
}

// LinkTwilioNumbers imports the account's purchased numbers so inbound
// Twilio webhooks can resolve their owner.
func (s *WASessionService) LinkTwilioNumbers(ctx context.Context, userID int64) ([]models.TwilioNumber, error) {
	if s.twilio == nil {
		return nil, ErrInvalidInput
	}
	owned, err := s.twilio.ListOwnedNumbers(ctx)
	if err != nil {
		return nil, err
	}
	for _, phone := range owned {
		number := &models.TwilioNumber{UserID: userID, PhoneNumber: phone, SID: ""}
		if err := s.twilioNumbers.Create(ctx, number); err != nil {
			return nil, err
		}
	}
	return s.twilioNumbers.ListByUser(ctx, userID)
}
