package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type chatConversationStore interface {
	GetByIDForUser(ctx context.Context, conversationID, userID int64) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID int64, includeArchived bool) ([]models.Conversation, error)
	ResetUnread(ctx context.Context, userID, conversationID int64) error
	SetArchived(ctx context.Context, userID, conversationID int64, archived bool) error
}

type chatMessageStore interface {
	ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]models.Message, int, error)
	MarkConversationRead(ctx context.Context, conversationID int64) error
}

type conversationSender interface {
	SendToConversation(ctx context.Context, userID, conversationID int64, text string) (*models.Message, error)
}

// ChatService backs the conversation screens: listing, reading and sending.
type ChatService struct {
	conversations chatConversationStore
	messages      chatMessageStore
	delivery      conversationSender
}

func NewChatService(
	conversations chatConversationStore,
	messages chatMessageStore,
	delivery conversationSender,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		delivery:      delivery,
	}
}

func (s *ChatService) ListConversations(ctx context.Context, userID int64, includeArchived bool) ([]models.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID, includeArchived)
}

func (s *ChatService) ListMessages(
	ctx context.Context,
	userID int64,
	conversationID int64,
	page int,
	limit int,
) ([]models.Message, int, error) {
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	if _, err := s.conversations.GetByIDForUser(ctx, conversationID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	return s.messages.ListByConversation(ctx, conversationID, limit, (page-1)*limit)
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	userID int64,
	conversationID int64,
	content string,
) (*models.Message, error) {
	return s.delivery.SendToConversation(ctx, userID, conversationID, content)
}

// MarkRead flips the contact messages to read and resets the conversation's
// unread counter.
func (s *ChatService) MarkRead(ctx context.Context, userID, conversationID int64) error {
	if conversationID <= 0 {
		return ErrInvalidInput
	}
	if _, err := s.conversations.GetByIDForUser(ctx, conversationID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.messages.MarkConversationRead(ctx, conversationID); err != nil {
		return err
	}
	return s.conversations.ResetUnread(ctx, userID, conversationID)
}

func (s *ChatService) SetArchived(ctx context.Context, userID, conversationID int64, archived bool) error {
	if conversationID <= 0 {
		return ErrInvalidInput
	}
	return s.conversations.SetArchived(ctx, userID, conversationID, archived)
}
