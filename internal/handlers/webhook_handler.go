package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type inboundIngester interface {
	Ingest(ctx context.Context, event services.InboundEvent) (*models.Conversation, error)
}

// WebhookHandler translates provider callback payloads into normalized
// inbound events. Webhook routes are unauthenticated; events that cannot be
// mapped to an owning user are logged and dropped with a 200 so providers do
// not retry.
type WebhookHandler struct {
	inbound inboundIngester
}

func NewWebhookHandler(inbound inboundIngester) *WebhookHandler {
	return &WebhookHandler{inbound: inbound}
}

type evolutionWebhookPayload struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     struct {
		Key struct {
			RemoteJID string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
		MessageTimestamp int64 `json:"messageTimestamp"`
	} `json:"data"`
}

func (h *WebhookHandler) Evolution(c *fiber.Ctx) error {
	var payload evolutionWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	if payload.Event != "messages.upsert" || payload.Data.Key.FromMe {
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	body := payload.Data.Message.Conversation
	if body == "" {
		body = payload.Data.Message.ExtendedTextMessage.Text
	}

	var timestamp time.Time
	if payload.Data.MessageTimestamp > 0 {
		timestamp = time.Unix(payload.Data.MessageTimestamp, 0).UTC()
	}

	event := services.InboundEvent{
		Provider:          models.ProviderEvolution,
		Instance:          payload.Instance,
		FromPhone:         stripJID(payload.Data.Key.RemoteJID),
		FromName:          payload.Data.PushName,
		ProviderMessageID: payload.Data.Key.ID,
		Body:              body,
		ContentType:       models.ContentTypeText,
		Timestamp:         timestamp,
	}
	return h.ingest(c, event)
}

type maytapiWebhookPayload struct {
	Type     string `json:"type"`
	PhoneID  int64  `json:"phone_id"`
	Receiver string `json:"receiver"`
	Message  struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Text   string `json:"text"`
		FromMe bool   `json:"fromMe"`
	} `json:"message"`
	User struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"user"`
}

func (h *WebhookHandler) Maytapi(c *fiber.Ctx) error {
	var payload maytapiWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	if payload.Type != "message" || payload.Message.FromMe {
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	event := services.InboundEvent{
		Provider:          models.ProviderMaytapi,
		Instance:          c.Query("instance"),
		ReceivingNumber:   payload.Receiver,
		FromPhone:         payload.User.Phone,
		FromName:          payload.User.Name,
		ProviderMessageID: payload.Message.ID,
		Body:              payload.Message.Text,
		ContentType:       maytapiContentType(payload.Message.Type),
	}
	if event.Instance == "" {
		// Maytapi identifies the session by phone_id, which doubles as the
		// stored instance name.
		event.Instance = maytapiInstance(payload.PhoneID)
	}
	return h.ingest(c, event)
}

// Twilio posts form-encoded bodies, not JSON.
func (h *WebhookHandler) Twilio(c *fiber.Ctx) error {
	from := c.FormValue("From")
	to := c.FormValue("To")
	body := c.FormValue("Body")
	messageSID := c.FormValue("MessageSid")
	profileName := c.FormValue("ProfileName")

	event := services.InboundEvent{
		Provider:          models.ProviderTwilio,
		ReceivingNumber:   stripWhatsAppPrefix(to),
		FromPhone:         stripWhatsAppPrefix(from),
		FromName:          profileName,
		ProviderMessageID: messageSID,
		Body:              body,
		ContentType:       models.ContentTypeText,
	}
	return h.ingest(c, event)
}

type genericWebhookPayload struct {
	Instance  string `json:"instance"`
	From      string `json:"from"`
	Name      string `json:"name"`
	MessageID string `json:"message_id"`
	Body      string `json:"body"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Generic accepts the provider-neutral payload used by self-hosted gateways.
func (h *WebhookHandler) Generic(c *fiber.Ctx) error {
	var payload genericWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	var timestamp time.Time
	if payload.Timestamp > 0 {
		timestamp = time.Unix(payload.Timestamp, 0).UTC()
	}

	contentType := payload.Type
	if contentType == "" {
		contentType = models.ContentTypeText
	}

	event := services.InboundEvent{
		Provider:          models.ProviderEvolution,
		Instance:          payload.Instance,
		FromPhone:         stripJID(payload.From),
		FromName:          payload.Name,
		ProviderMessageID: payload.MessageID,
		Body:              payload.Body,
		ContentType:       contentType,
		Timestamp:         timestamp,
	}
	return h.ingest(c, event)
}

func (h *WebhookHandler) ingest(c *fiber.Ctx, event services.InboundEvent) error {
	conversation, err := h.inbound.Ingest(c.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOwnerNotResolved):
			log.Printf("webhook: no owner for %s event from %s, dropping", event.Provider, event.FromPhone)
			return c.JSON(fiber.Map{"status": "dropped"})
		case errors.Is(err, services.ErrInvalidInput):
			return c.JSON(fiber.Map{"status": "ignored"})
		default:
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to record message"})
		}
	}

	return c.JSON(fiber.Map{"status": "ok", "conversation_id": conversation.ID})
}

// stripJID reduces "5511999999999@s.whatsapp.net" to the bare phone number.
func stripJID(jid string) string {
	if at := strings.IndexByte(jid, '@'); at >= 0 {
		jid = jid[:at]
	}
	return strings.TrimSpace(jid)
}

func stripWhatsAppPrefix(addr string) string {
	addr = strings.TrimPrefix(addr, "whatsapp:")
	return strings.TrimSpace(addr)
}

func maytapiContentType(messageType string) string {
	switch messageType {
	case "image":
		return models.ContentTypeImage
	case "audio", "ptt":
		return models.ContentTypeAudio
	case "video":
		return models.ContentTypeVideo
	case "document":
		return models.ContentTypeDocument
	default:
		return models.ContentTypeText
	}
}

func maytapiInstance(phoneID int64) string {
	if phoneID == 0 {
		return ""
	}
	return strconv.FormatInt(phoneID, 10)
}
