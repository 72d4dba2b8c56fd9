package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

// ChatService owns the per-conversation message log and keeps the parent
// conversation's denormalized summary in step with it.
type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.Message
	RecipientID  int64
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
	}
}

func (s *ChatService) ListConversations(ctx context.Context, actor Actor) ([]models.ConversationSummary, error) {
	if !isParticipantRole(actor.Role) {
		return nil, ErrRoleNotAllowed
	}

	return s.conversationRepo.ListForParticipant(ctx, actor.ID)
}

// ListMessages returns a page of the conversation's log in append order and
// marks the returned messages from the other participant as read. Repeated
// calls without an intervening send return the same sequence.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actor Actor,
	conversationID int64,
	page int,
	limit int,
) ([]models.Message, int, error) {
	if !isParticipantRole(actor.Role) {
		return nil, 0, ErrRoleNotAllowed
	}
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	_, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)

	messages, total, err := txMessageRepo.ListByConversation(
		ctx,
		conversationID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}

	messageIDs := make([]int64, 0, len(messages))
	for _, message := range messages {
		messageIDs = append(messageIDs, message.ID)
	}

	if err := txMessageRepo.MarkMessagesRead(ctx, messageIDs, actor.ID); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].SenderID != actor.ID {
			messages[i].IsRead = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// SendMessage appends to the conversation's log. The insert and the parent
// conversation's last-message summary update run in one transaction so the
// two can never diverge.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actor Actor,
	conversationID int64,
	content string,
) (*ChatDelivery, error) {
	if !isParticipantRole(actor.Role) {
		return nil, ErrRoleNotAllowed
	}
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if actor.ID != conversation.ClientID && actor.ID != conversation.GPID {
		return nil, ErrParticipantMismatch
	}

	recipientID := conversation.ClientID
	if actor.ID == conversation.ClientID {
		recipientID = conversation.GPID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, conversationID, actor.ID, recipientID, trimmed)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.SetLastMessage(ctx, conversationID, message.Content, message.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	conversation.LastMessage = &message.Content
	conversation.LastMessageTime = &message.CreatedAt

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  recipientID,
	}, nil
}

func isParticipantRole(role models.Role) bool {
	return role == models.RoleClient || role == models.RoleGP
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
