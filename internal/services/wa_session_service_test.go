package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type connectionWrite struct {
	connected bool
	qr        *string
}

type stubSessionStore struct {
	sessions map[string]*models.Session
	upserts  []*models.Session
	writes   []connectionWrite
}

func (s *stubSessionStore) Upsert(_ context.Context, session *models.Session) error {
	s.upserts = append(s.upserts, session)
	return nil
}

func (s *stubSessionStore) GetByUser(_ context.Context, userID int64, provider string) (*models.Session, error) {
	session, ok := s.sessions[provider]
	if !ok || session.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return session, nil
}

func (s *stubSessionStore) SetConnection(_ context.Context, _ int64, _ string, connected bool, qr *string) error {
	s.writes = append(s.writes, connectionWrite{connected: connected, qr: qr})
	return nil
}

type stubTwilioNumbers struct {
	created []*models.TwilioNumber
}

func (s *stubTwilioNumbers) Create(_ context.Context, n *models.TwilioNumber) error {
	s.created = append(s.created, n)
	return nil
}

func (s *stubTwilioNumbers) ListByUser(_ context.Context, userID int64) ([]models.TwilioNumber, error) {
	out := make([]models.TwilioNumber, 0, len(s.created))
	for _, n := range s.created {
		out = append(out, *n)
	}
	return out, nil
}

type stubEvolutionAPI struct {
	qr        string
	connected bool
	err       error
}

func (s *stubEvolutionAPI) FetchQR(_ context.Context, _ string) (string, error) {
	return s.qr, s.err
}

func (s *stubEvolutionAPI) CheckConnection(_ context.Context, _ string) (bool, error) {
	return s.connected, s.err
}

type stubMaytapiAPI struct {
	connected bool
	screen    string
	err       error
}

func (s *stubMaytapiAPI) Status(_ context.Context, _ string) (bool, string, error) {
	return s.connected, s.screen, s.err
}

type stubTwilioAPI struct {
	numbers []string
	err     error
}

func (s *stubTwilioAPI) ListOwnedNumbers(_ context.Context) ([]string, error) {
	return s.numbers, s.err
}

func TestConnectEvolutionStoresQR(t *testing.T) {
	sessions := &stubSessionStore{sessions: map[string]*models.Session{}}
	service := NewWASessionService(sessions, &stubTwilioNumbers{}, &stubEvolutionAPI{qr: "QR-DATA"}, &stubMaytapiAPI{}, &stubTwilioAPI{})

	session, err := service.Connect(context.Background(), 7, models.ProviderEvolution)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if session.InstanceName != "nutribox_7" {
		t.Errorf("expected instance nutribox_7, got %q", session.InstanceName)
	}
	if session.QRCode == nil || *session.QRCode != "QR-DATA" {
		t.Errorf("expected QR code stored on session, got %v", session.QRCode)
	}
	if len(sessions.upserts) != 1 {
		t.Fatalf("expected one session upsert, got %d", len(sessions.upserts))
	}
}

func TestConnectRejectsTwilioProvider(t *testing.T) {
	service := NewWASessionService(&stubSessionStore{}, &stubTwilioNumbers{}, &stubEvolutionAPI{}, &stubMaytapiAPI{}, &stubTwilioAPI{})

	if _, err := service.Connect(context.Background(), 7, models.ProviderTwilio); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetQRConnectedSessionReturnsEmpty(t *testing.T) {
	sessions := &stubSessionStore{sessions: map[string]*models.Session{
		models.ProviderEvolution: {UserID: 7, Provider: models.ProviderEvolution, InstanceName: "nutribox_7", IsConnected: true},
	}}
	evolution := &stubEvolutionAPI{qr: "QR-DATA"}
	service := NewWASessionService(sessions, &stubTwilioNumbers{}, evolution, &stubMaytapiAPI{}, &stubTwilioAPI{})

	qr, err := service.GetQR(context.Background(), 7, models.ProviderEvolution)
	if err != nil {
		t.Fatalf("GetQR: %v", err)
	}
	if qr != "" {
		t.Errorf("expected empty QR for connected session, got %q", qr)
	}
	if len(sessions.writes) != 0 {
		t.Errorf("expected no connection writes, got %d", len(sessions.writes))
	}
}

func TestCheckConnectionWritesOnlyOnStateChange(t *testing.T) {
	session := &models.Session{UserID: 7, Provider: models.ProviderEvolution, InstanceName: "nutribox_7", IsConnected: false}
	sessions := &stubSessionStore{sessions: map[string]*models.Session{models.ProviderEvolution: session}}
	service := NewWASessionService(sessions, &stubTwilioNumbers{}, &stubEvolutionAPI{connected: true}, &stubMaytapiAPI{}, &stubTwilioAPI{})

	connected, err := service.CheckConnection(context.Background(), 7, models.ProviderEvolution)
	if err != nil {
		t.Fatalf("CheckConnection: %v", err)
	}
	if !connected {
		t.Fatal("expected connected=true")
	}
	if len(sessions.writes) != 1 || !sessions.writes[0].connected {
		t.Fatalf("expected one connected write, got %v", sessions.writes)
	}

	// Provider still reports connected and the row now mirrors it; a second
	// check must not write again.
	session.IsConnected = true
	if _, err := service.CheckConnection(context.Background(), 7, models.ProviderEvolution); err != nil {
		t.Fatalf("second CheckConnection: %v", err)
	}
	if len(sessions.writes) != 1 {
		t.Errorf("expected no extra write on unchanged state, got %d", len(sessions.writes))
	}
}

func TestCheckConnectionMissingSession(t *testing.T) {
	service := NewWASessionService(&stubSessionStore{}, &stubTwilioNumbers{}, &stubEvolutionAPI{}, &stubMaytapiAPI{}, &stubTwilioAPI{})

	if _, err := service.CheckConnection(context.Background(), 7, models.ProviderEvolution); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDisconnectClearsConnection(t *testing.T) {
	sessions := &stubSessionStore{sessions: map[string]*models.Session{
		models.ProviderMaytapi: {UserID: 7, Provider: models.ProviderMaytapi, InstanceName: "nutribox_7", IsConnected: true},
	}}
	service := NewWASessionService(sessions, &stubTwilioNumbers{}, &stubEvolutionAPI{}, &stubMaytapiAPI{}, &stubTwilioAPI{})

	if err := service.Disconnect(context.Background(), 7, models.ProviderMaytapi); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if len(sessions.writes) != 1 || sessions.writes[0].connected || sessions.writes[0].qr != nil {
		t.Fatalf("expected one disconnect write with nil qr, got %v", sessions.writes)
	}

	if err := service.Disconnect(context.Background(), 7, models.ProviderEvolution); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}
}

func TestLinkTwilioNumbersImportsOwned(t *testing.T) {
	numbers := &stubTwilioNumbers{}
	service := NewWASessionService(&stubSessionStore{}, numbers, &stubEvolutionAPI{}, &stubMaytapiAPI{}, &stubTwilioAPI{numbers: []string{"+5511999990001", "+5511999990002"}})

	linked, err := service.LinkTwilioNumbers(context.Background(), 7)
	if err != nil {
		t.Fatalf("LinkTwilioNumbers: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("expected 2 linked numbers, got %d", len(linked))
	}
	if linked[0].PhoneNumber != "+5511999990001" || linked[0].UserID != 7 {
		t.Errorf("unexpected first number: %+v", linked[0])
	}
}
