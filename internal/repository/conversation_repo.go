package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet finds or creates the conversation for (user, contact phone).
// The unique constraint plus ON CONFLICT makes concurrent inbound messages
// for a new contact converge on a single row.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	userID int64,
	contactPhone string,
	contactName *string,
) (*models.Conversation, error) {
	query := `
		INSERT INTO whatsapp_conversations (user_id, contact_phone, contact_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, contact_phone)
		DO UPDATE SET contact_name = COALESCE(whatsapp_conversations.contact_name, EXCLUDED.contact_name)
		RETURNING id, user_id, contact_phone, contact_name, last_message, last_message_time,
			unread_count, archived, created_at, updated_at
	`
	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, userID, contactPhone, contactName).Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.ContactPhone,
		&conversation.ContactName,
		&conversation.LastMessage,
		&conversation.LastMessageTime,
		&conversation.UnreadCount,
		&conversation.Archived,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForUser(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, contact_phone, contact_name, last_message, last_message_time,
			unread_count, archived, created_at, updated_at
		FROM whatsapp_conversations
		WHERE id = $1 AND user_id = $2
	`
	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.ContactPhone,
		&conversation.ContactName,
		&conversation.LastMessage,
		&conversation.LastMessageTime,
		&conversation.UnreadCount,
		&conversation.Archived,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) ListByUser(ctx context.Context, userID int64, includeArchived bool) ([]models.Conversation, error) {
	query := `
		SELECT id, user_id, contact_phone, contact_name, last_message, last_message_time,
			unread_count, archived, created_at, updated_at
		FROM whatsapp_conversations
		WHERE user_id = $1
		  AND ($2 OR archived = FALSE)
		ORDER BY last_message_time DESC NULLS LAST, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID, includeArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conversation models.Conversation
		if err := rows.Scan(
			&conversation.ID,
			&conversation.UserID,
			&conversation.ContactPhone,
			&conversation.ContactName,
			&conversation.LastMessage,
			&conversation.LastMessageTime,
			&conversation.UnreadCount,
			&conversation.Archived,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	return conversations, rows.Err()
}

// RecordOutbound refreshes the denormalized last-message fields after the
// owner sends a message.
func (r *ConversationRepository) RecordOutbound(ctx context.Context, conversationID int64, message *models.Message) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_conversations
		SET last_message = $2, last_message_time = $3, updated_at = NOW()
		WHERE id = $1
	`, conversationID, message.Content, message.Timestamp)
	return err
}

// RecordInbound refreshes the denormalized fields and bumps the unread
// counter for one inbound message.
func (r *ConversationRepository) RecordInbound(ctx context.Context, conversationID int64, message *models.Message) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_conversations
		SET last_message = $2, last_message_time = $3, unread_count = unread_count + 1, updated_at = NOW()
		WHERE id = $1
	`, conversationID, message.Content, message.Timestamp)
	return err
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, userID, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_conversations
		SET unread_count = 0, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID)
	return err
}

func (r *ConversationRepository) SetArchived(ctx context.Context, userID, conversationID int64, archived bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_conversations
		SET archived = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID, archived)
	return err
}
