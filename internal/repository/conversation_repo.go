package repository

import (
	"context"
	"time"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet returns the conversation for the (client, gp) pair, inserting it
// on first contact. The unique constraint on (client_id, gp_id) plus the
// no-op upsert makes this atomic: concurrent first contacts converge on the
// same row.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	clientID int64,
	gpID int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (client_id, gp_id)
		VALUES ($1, $2)
		ON CONFLICT (client_id, gp_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, client_id, gp_id, last_message, last_message_time, created_at, updated_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, clientID, gpID).Scan(
		&conversation.ID,
		&conversation.ClientID,
		&conversation.GPID,
		&conversation.LastMessage,
		&conversation.LastMessageTime,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) FindBetween(
	ctx context.Context,
	clientID int64,
	gpID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, client_id, gp_id, last_message, last_message_time, created_at, updated_at
		FROM conversations
		WHERE client_id = $1 AND gp_id = $2
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, clientID, gpID).Scan(
		&conversation.ID,
		&conversation.ClientID,
		&conversation.GPID,
		&conversation.LastMessage,
		&conversation.LastMessageTime,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `
		SELECT id, client_id, gp_id, last_message, last_message_time, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.ClientID,
		&conversation.GPID,
		&conversation.LastMessage,
		&conversation.LastMessageTime,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, client_id, gp_id, last_message, last_message_time, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (client_id = $2 OR gp_id = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.ClientID,
		&conversation.GPID,
		&conversation.LastMessage,
		&conversation.LastMessageTime,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.client_id,
			c.gp_id,
			c.last_message,
			c.last_message_time,
			c.created_at,
			c.updated_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE c.client_id = $1 OR c.gp_id = $1
		ORDER BY COALESCE(c.last_message_time, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.ClientID,
			&summary.GPID,
			&summary.LastMessage,
			&summary.LastMessageTime,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// SetLastMessage refreshes the denormalized summary after an append. Callers
// run it in the same transaction as the message insert.
func (r *ConversationRepository) SetLastMessage(
	ctx context.Context,
	conversationID int64,
	content string,
	sentAt time.Time,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message = $2, last_message_time = $3, updated_at = NOW()
		WHERE id = $1
	`, conversationID, content, sentAt)
	return err
}
