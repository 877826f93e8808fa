package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

// InboundEvent is the normalized form of a provider webhook payload.
type InboundEvent struct {
	Provider          string
	Instance          string
	ReceivingNumber   string
	FromPhone         string
	FromName          string
	ProviderMessageID string
	Body              string
	ContentType       string
	Timestamp         time.Time
}

type sessionResolver interface {
	GetByInstance(ctx context.Context, provider, instanceName string) (*models.Session, error)
}

type twilioNumberResolver interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*models.TwilioNumber, error)
}

type inboundMessageStore interface {
	UpsertInbound(ctx context.Context, message *models.Message) (bool, error)
}

type inboundConversationStore interface {
	CreateOrGet(ctx context.Context, userID int64, contactPhone string, contactName *string) (*models.Conversation, error)
	RecordInbound(ctx context.Context, conversationID int64, message *models.Message) error
}

// InboundService resolves the owning user for a webhook event and appends
// the contact message. Events with no resolvable owner are dropped by the
// caller; there is no retry queue.
type InboundService struct {
	sessions      sessionResolver
	twilioNumbers twilioNumberResolver
	conversations inboundConversationStore
	messages      inboundMessageStore
	notifier      Notifier
	now           func() time.Time
}

func NewInboundService(
	sessions sessionResolver,
	twilioNumbers twilioNumberResolver,
	conversations inboundConversationStore,
	messages inboundMessageStore,
	notifier Notifier,
) *InboundService {
	return &InboundService{
		sessions:      sessions,
		twilioNumbers: twilioNumbers,
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		now:           time.Now,
	}
}

// Ingest finds the owner, find-or-creates the conversation and appends the
// message. A redelivered provider message id is a no-op.
func (s *InboundService) Ingest(ctx context.Context, event InboundEvent) (*models.Conversation, error) {
	phone := strings.TrimSpace(event.FromPhone)
	if phone == "" {
		return nil, ErrInvalidInput
	}
	contentType := event.ContentType
	if contentType == "" {
		contentType = models.ContentTypeText
	}
	body := strings.TrimSpace(event.Body)
	if body == "" {
		// Media events arrive without text unless the sender added a
		// caption; keep them in the thread under a placeholder.
		if contentType == models.ContentTypeText {
			return nil, ErrInvalidInput
		}
		body = mediaPlaceholder(contentType)
	}

	userID, err := s.resolveOwner(ctx, event)
	if err != nil {
		return nil, err
	}

	var namePtr *string
	if name := strings.TrimSpace(event.FromName); name != "" {
		namePtr = &name
	}
	conversation, err := s.conversations.CreateOrGet(ctx, userID, phone, namePtr)
	if err != nil {
		return nil, err
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now().UTC()
	}

	var providerID *string
	if id := strings.TrimSpace(event.ProviderMessageID); id != "" {
		providerID = &id
	}
	message := &models.Message{
		ConversationID:    conversation.ID,
		ProviderMessageID: providerID,
		Sender:            models.SenderContact,
		Content:           body,
		ContentType:       contentType,
		Timestamp:         timestamp,
	}

	inserted, err := s.messages.UpsertInbound(ctx, message)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return conversation, nil
	}

	if err := s.conversations.RecordInbound(ctx, conversation.ID, message); err != nil {
		return nil, err
	}
	conversation.UnreadCount++
	conversation.LastMessage = &message.Content
	conversation.LastMessageTime = &message.Timestamp

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

	return conversation, nil
}

func mediaPlaceholder(contentType string) string {
	switch contentType {
	case models.ContentTypeImage:
		return "[imagem]"
	case models.ContentTypeAudio:
		return "[áudio]"
	case models.ContentTypeVideo:
		return "[vídeo]"
	case models.ContentTypeDocument:
		return "[documento]"
	default:
		return "[mídia]"
	}
}

func (s *InboundService) resolveOwner(ctx context.Context, event InboundEvent) (int64, error) {
	if event.Provider == models.ProviderTwilio {
		number, err := s.twilioNumbers.GetByPhone(ctx, strings.TrimSpace(event.ReceivingNumber))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrOwnerNotResolved
			}
			return 0, err
		}
		return number.UserID, nil
	}

	instance := strings.TrimSpace(event.Instance)
	if instance == "" {
		return 0, ErrOwnerNotResolved
	}
	session, err := s.sessions.GetByInstance(ctx, event.Provider, instance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrOwnerNotResolved
		}
		return 0, err
	}
	return session.UserID, nil
}
