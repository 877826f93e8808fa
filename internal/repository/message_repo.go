package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO whatsapp_messages
			(conversation_id, provider_message_id, sender, content, content_type, is_read, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		message.ConversationID,
		message.ProviderMessageID,
		message.Sender,
		message.Content,
		message.ContentType,
		message.IsRead,
		message.Timestamp,
	).Scan(&message.ID, &message.CreatedAt)
}

// UpsertInbound inserts an inbound message keyed by the provider message id.
// A redelivered webhook hits the conflict and reports inserted=false so the
// caller can skip the unread bump.
func (r *MessageRepository) UpsertInbound(ctx context.Context, message *models.Message) (bool, error) {
	query := `
		INSERT INTO whatsapp_messages
			(conversation_id, provider_message_id, sender, content, content_type, is_read, timestamp)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (conversation_id, provider_message_id) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		message.ConversationID,
		message.ProviderMessageID,
		message.Sender,
		message.Content,
		message.ContentType,
		message.Timestamp,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID int64,
	limit int,
	offset int,
) ([]models.Message, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM whatsapp_messages
		WHERE conversation_id = $1
	`, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, conversation_id, provider_message_id, sender, content, content_type,
			is_read, timestamp, created_at
		FROM whatsapp_messages
		WHERE conversation_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.ProviderMessageID,
			&message.Sender,
			&message.Content,
			&message.ContentType,
			&message.IsRead,
			&message.Timestamp,
			&message.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE whatsapp_messages
		SET is_read = TRUE
		WHERE conversation_id = $1
		  AND sender = 'contact'
		  AND is_read = FALSE
	`, conversationID)
	return err
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM whatsapp_messages
		WHERE conversation_id = $1
		  AND sender = 'contact'
		  AND is_read = FALSE
	`, conversationID).Scan(&count)
	return count, err
}
