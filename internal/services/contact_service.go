package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

var (
	ErrAuthRequired        = errors.New("authentication required")
	ErrRoleNotAllowed      = errors.New("role not allowed")
	ErrPassRequired        = errors.New("active pass required")
	ErrInsufficientCredit  = errors.New("insufficient credit")
	ErrParticipantMismatch = errors.New("participant mismatch")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   int64
	Role models.Role
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type conversationDirectory interface {
	FindBetween(ctx context.Context, clientID, gpID int64) (*models.Conversation, error)
	CreateOrGet(ctx context.Context, clientID, gpID int64) (*models.Conversation, error)
}

// ContactService gates the "client wants to reach a GP" action behind the
// PASS credential and hands out the conversation for the pair.
type ContactService struct {
	db            *pgxpool.Pool
	users         userReader
	conversations conversationDirectory
	pass          *PassService
	mailer        Mailer
}

func NewContactService(
	db *pgxpool.Pool,
	users userReader,
	conversations conversationDirectory,
	pass *PassService,
	mailer Mailer,
) *ContactService {
	return &ContactService{
		db:            db,
		users:         users,
		conversations: conversations,
		pass:          pass,
		mailer:        mailer,
	}
}

// Contact returns the conversation between the acting client and the GP,
// creating it on first contact. The returned flag reports whether a new
// conversation was opened.
//
// An already-open thread is returned as-is: the pass was consumed (or
// confirmed) when it was opened and further messaging is unrestricted. In
// balance mode the credit debit and the conversation insert share one
// transaction, so a failed insert refunds the credit by rollback.
func (s *ContactService) Contact(ctx context.Context, actor Actor, gpID int64) (*models.Conversation, bool, error) {
	if actor.ID <= 0 {
		return nil, false, ErrAuthRequired
	}
	switch actor.Role {
	case models.RoleClient:
	case models.RoleGP, models.RoleAdmin:
		return nil, false, ErrRoleNotAllowed
	default:
		return nil, false, ErrRoleNotAllowed
	}
	if gpID <= 0 || gpID == actor.ID {
		return nil, false, ErrInvalidInput
	}

	gp, err := s.users.GetByID(ctx, gpID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}
	if gp.Role != models.RoleGP {
		return nil, false, ErrInvalidInput
	}

	existing, err := s.conversations.FindBetween(ctx, actor.ID, gpID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	var conversation *models.Conversation
	switch s.pass.Mode() {
	case models.PassModeWindow:
		if err := s.pass.CheckAccess(ctx, actor.ID); err != nil {
			return nil, false, err
		}
		conversation, err = s.conversations.CreateOrGet(ctx, actor.ID, gpID)
		if err != nil {
			return nil, false, err
		}
	case models.PassModeBalance:
		conversation, err = s.consumeAndCreate(ctx, actor.ID, gpID)
		if err != nil {
			return nil, false, err
		}
	default:
		return nil, false, fmt.Errorf("unknown pass mode %q", s.pass.Mode())
	}

	SendAsync(s.mailer, gp.Email, "Nouveau contact sur EasyCollis",
		fmt.Sprintf("Un client souhaite vous contacter pour un transport de colis (conversation #%d).", conversation.ID))

	return conversation, true, nil
}

func (s *ContactService) consumeAndCreate(ctx context.Context, clientID, gpID int64) (*models.Conversation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPassRepo := repository.NewPassRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	if _, err := txPassRepo.AddCredits(ctx, clientID, -1); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPassRequired
		}
		return nil, err
	}

	conversation, err := txConversationRepo.CreateOrGet(ctx, clientID, gpID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return conversation, nil
}
