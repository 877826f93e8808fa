package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type stubInboundIngester struct {
	conversation *models.Conversation
	err          error
	events       []services.InboundEvent
}

func (s *stubInboundIngester) Ingest(_ context.Context, event services.InboundEvent) (*models.Conversation, error) {
	s.events = append(s.events, event)
	if s.err != nil {
		return nil, s.err
	}
	return s.conversation, nil
}

func newWebhookTestApp(ingester *stubInboundIngester) *fiber.App {
	handler := NewWebhookHandler(ingester)

	app := fiber.New()
	app.Post("/api/webhooks/evolution", handler.Evolution)
	app.Post("/api/webhooks/maytapi", handler.Maytapi)
	app.Post("/api/webhooks/twilio", handler.Twilio)
	app.Post("/api/webhooks/whatsapp", handler.Generic)
	return app
}

const evolutionUpsertBody = `{
	"event": "messages.upsert",
	"instance": "nutribox_7",
	"data": {
		"key": {"remoteJid": "5511999990001@s.whatsapp.net", "fromMe": false, "id": "EVO-1"},
		"pushName": "Maria",
		"message": {"conversation": "Bom dia!"},
		"messageTimestamp": 1770000000
	}
}`

func TestEvolutionWebhookNormalizesEvent(t *testing.T) {
	ingester := &stubInboundIngester{conversation: &models.Conversation{ID: 40}}
	app := newWebhookTestApp(ingester)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/evolution", strings.NewReader(evolutionUpsertBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(ingester.events) != 1 {
		t.Fatalf("expected one ingested event, got %d", len(ingester.events))
	}

	event := ingester.events[0]
	if event.Provider != models.ProviderEvolution || event.Instance != "nutribox_7" {
		t.Errorf("unexpected routing fields: %q %q", event.Provider, event.Instance)
	}
	if event.FromPhone != "5511999990001" {
		t.Errorf("expected bare phone, got %q", event.FromPhone)
	}
	if event.FromName != "Maria" || event.Body != "Bom dia!" || event.ProviderMessageID != "EVO-1" {
		t.Errorf("unexpected event content: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp converted from epoch seconds")
	}

	var body struct {
		Status         string `json:"status"`
		ConversationID int64  `json:"conversation_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Status != "ok" || body.ConversationID != 40 {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestEvolutionWebhookSkipsOwnMessages(t *testing.T) {
	ingester := &stubInboundIngester{}
	app := newWebhookTestApp(ingester)

	payload := `{
		"event": "messages.upsert",
		"instance": "nutribox_7",
		"data": {"key": {"remoteJid": "5511999990001@s.whatsapp.net", "fromMe": true, "id": "EVO-2"}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/evolution", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(ingester.events) != 0 {
		t.Fatalf("expected no ingestion for fromMe message, got %d", len(ingester.events))
	}
}

func TestEvolutionWebhookDropsUnresolvedOwnerWith200(t *testing.T) {
	ingester := &stubInboundIngester{err: services.ErrOwnerNotResolved}
	app := newWebhookTestApp(ingester)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/evolution", strings.NewReader(evolutionUpsertBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 so the provider does not retry, got %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Status != "dropped" {
		t.Fatalf("expected status dropped, got %q", body.Status)
	}
}

func TestMaytapiWebhookFallsBackToPhoneID(t *testing.T) {
	ingester := &stubInboundIngester{conversation: &models.Conversation{ID: 41}}
	app := newWebhookTestApp(ingester)

	payload := `{
		"type": "message",
		"phone_id": 90125,
		"receiver": "5511888880000",
		"message": {"id": "MAY-1", "type": "ptt", "text": "", "fromMe": false},
		"user": {"name": "João", "phone": "5511999990002"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/maytapi", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(ingester.events) != 1 {
		t.Fatalf("expected one ingested event, got %d", len(ingester.events))
	}

	event := ingester.events[0]
	if event.Provider != models.ProviderMaytapi || event.Instance != "90125" {
		t.Errorf("expected phone_id used as instance, got %q/%q", event.Provider, event.Instance)
	}
	if event.ContentType != models.ContentTypeAudio {
		t.Errorf("expected ptt mapped to audio, got %q", event.ContentType)
	}
	if event.ReceivingNumber != "5511888880000" {
		t.Errorf("unexpected receiving number %q", event.ReceivingNumber)
	}
}

func TestTwilioWebhookStripsWhatsAppPrefix(t *testing.T) {
	ingester := &stubInboundIngester{conversation: &models.Conversation{ID: 42}}
	app := newWebhookTestApp(ingester)

	form := url.Values{}
	form.Set("From", "whatsapp:+5511999990003")
	form.Set("To", "whatsapp:+5511888880000")
	form.Set("Body", "Oi")
	form.Set("MessageSid", "SM123")
	form.Set("ProfileName", "Ana")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(ingester.events) != 1 {
		t.Fatalf("expected one ingested event, got %d", len(ingester.events))
	}

	event := ingester.events[0]
	if event.Provider != models.ProviderTwilio {
		t.Errorf("unexpected provider %q", event.Provider)
	}
	if event.FromPhone != "+5511999990003" || event.ReceivingNumber != "+5511888880000" {
		t.Errorf("expected whatsapp: prefixes stripped, got %q / %q", event.FromPhone, event.ReceivingNumber)
	}
	if event.ProviderMessageID != "SM123" || event.FromName != "Ana" {
		t.Errorf("unexpected event content: %+v", event)
	}
}
