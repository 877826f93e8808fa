package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/providers"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrNoActiveSession  = errors.New("no connected whatsapp session")
	ErrNoQuestionnaires = errors.New("no matching questionnaires")
	ErrSendingDisabled  = errors.New("scheduled sending disabled for patient")
	ErrGenerationFailed = errors.New("generation failed")
	ErrOwnerNotResolved = errors.New("owning user not resolved")
)

// ConversationEvent is pushed to the owner's sockets after a message lands,
// so clients can patch their caches instead of re-fetching everything.
type ConversationEvent struct {
	UserID          int64           `json:"-"`
	ConversationID  int64           `json:"conversation_id"`
	ContactPhone    string          `json:"contact_phone"`
	LastMessage     string          `json:"last_message"`
	LastMessageTime time.Time       `json:"last_message_time"`
	UnreadCount     int             `json:"unread_count"`
	Message         *models.Message `json:"message,omitempty"`
}

type Notifier interface {
	ConversationChanged(event ConversationEvent)
}

type sessionReader interface {
	GetConnectedByUser(ctx context.Context, userID int64) (*models.Session, error)
}

type conversationStore interface {
	CreateOrGet(ctx context.Context, userID int64, contactPhone string, contactName *string) (*models.Conversation, error)
	GetByIDForUser(ctx context.Context, conversationID, userID int64) (*models.Conversation, error)
	RecordOutbound(ctx context.Context, conversationID int64, message *models.Message) error
}

type messageWriter interface {
	Create(ctx context.Context, message *models.Message) error
}

// ProviderRegistry maps a session's provider name to its delivery client.
type ProviderRegistry map[string]providers.DeliveryProvider

// DeliveryService performs the actual outbound send: provider call first,
// then exactly one persisted Message per accepted send.
type DeliveryService struct {
	registry      ProviderRegistry
	sessionRepo   sessionReader
	conversations conversationStore
	messages      messageWriter
	notifier      Notifier
	now           func() time.Time
}

func NewDeliveryService(
	registry ProviderRegistry,
	sessionRepo sessionReader,
	conversations conversationStore,
	messages messageWriter,
	notifier Notifier,
) *DeliveryService {
	return &DeliveryService{
		registry:      registry,
		sessionRepo:   sessionRepo,
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		now:           time.Now,
	}
}

// SendToConversation delivers text to an existing conversation's contact.
func (s *DeliveryService) SendToConversation(
	ctx context.Context,
	userID int64,
	conversationID int64,
	text string,
) (*models.Message, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}
	conversation, err := s.conversations.GetByIDForUser(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.deliver(ctx, userID, conversation, text)
}

// SendToContact finds or creates the conversation for the phone and delivers.
// Used by the coaching flows, where no conversation may exist yet.
func (s *DeliveryService) SendToContact(
	ctx context.Context,
	userID int64,
	phone string,
	name string,
	text string,
) (*models.Message, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrInvalidInput
	}
	var namePtr *string
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		namePtr = &trimmed
	}
	conversation, err := s.conversations.CreateOrGet(ctx, userID, phone, namePtr)
	if err != nil {
		return nil, err
	}
	return s.deliver(ctx, userID, conversation, text)
}

func (s *DeliveryService) deliver(
	ctx context.Context,
	userID int64,
	conversation *models.Conversation,
	text string,
) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetConnectedByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}

	provider, ok := s.registry[session.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q not configured", ErrNoActiveSession, session.Provider)
	}

	from := ""
	if session.Phone != nil {
		from = *session.Phone
	}
	result, err := provider.SendText(ctx, providers.OutboundText{
		Instance: session.InstanceName,
		From:     from,
		To:       conversation.ContactPhone,
		Body:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	message := &models.Message{
		ConversationID:    conversation.ID,
		ProviderMessageID: &result.MessageID,
		Sender:            models.SenderUser,
		Content:           text,
		ContentType:       models.ContentTypeText,
		IsRead:            true,
		Timestamp:         s.now().UTC(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		// The provider already accepted the send; surface the divergence
		// instead of pretending the message does not exist.
		return nil, fmt.Errorf("message sent but not recorded: %w", err)
	}

	// Denormalized fields are best-effort: the message row is authoritative.
	if err := s.conversations.RecordOutbound(ctx, conversation.ID, message); err != nil {
		log.Printf("delivery: update conversation %d: %v", conversation.ID, err)
	}

	if s.notifier != nil {
		s.notifier.ConversationChanged(ConversationEvent{
			UserID:          userID,
			ConversationID:  conversation.ID,
			ContactPhone:    conversation.ContactPhone,
			LastMessage:     message.Content,
			LastMessageTime: message.Timestamp,
			UnreadCount:     conversation.UnreadCount,
			Message:         message,
		})
	}

	return message, nil
}
