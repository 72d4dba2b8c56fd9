package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

var ErrPaymentUnavailable = errors.New("payment gateway is not configured")

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// IPN event PayTech posts on a settled payment.
const IPNEventSaleComplete = "sale_complete"

// Pack catalog. Prices are in XOF like the storefront; every pack carries
// both a window duration and a credit count so the catalog works in either
// product mode.
var passPacks = []models.PassPack{
	{ID: "client-30", Name: "Pass Client 30 jours", Role: models.RoleClient, Price: 5000, Currency: "XOF", DurationDays: 30, Credits: 5, Popular: true},
	{ID: "client-90", Name: "Pass Client 90 jours", Role: models.RoleClient, Price: 12000, Currency: "XOF", DurationDays: 90, Credits: 20},
	{ID: "gp-basic", Name: "Pass GP Essentiel", Role: models.RoleGP, Price: 10000, Currency: "XOF", DurationDays: 30, Credits: 10},
	{ID: "gp-premium", Name: "Pass GP Premium", Role: models.RoleGP, Price: 25000, Currency: "XOF", DurationDays: 90, Credits: 40, Popular: true},
}

type paymentStore interface {
	Create(ctx context.Context, input repository.CreatePaymentInput) (*models.PassPayment, error)
	GetByRef(ctx context.Context, ref string) (*models.PassPayment, error)
	UpdateStatusIfCurrent(ctx context.Context, paymentID int64, currentStatus, nextStatus string) (*models.PassPayment, error)
	ListByUser(ctx context.Context, userID int64) ([]models.PassPayment, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.PassPayment, int, error)
}

// PaymentService runs the PASS purchase flow: checkout creates a pending
// payment and hands back the gateway redirect; the IPN callback settles it
// and applies the credential mutation.
type PaymentService struct {
	db       *pgxpool.Pool
	payments paymentStore
	users    userReader
	paytech  *PaytechClient
	pass     *PassService
}

func NewPaymentService(
	db *pgxpool.Pool,
	payments paymentStore,
	users userReader,
	paytech *PaytechClient,
	pass *PassService,
) *PaymentService {
	return &PaymentService{
		db:       db,
		payments: payments,
		users:    users,
		paytech:  paytech,
		pass:     pass,
	}
}

func Packs(role models.Role) []models.PassPack {
	packs := make([]models.PassPack, 0, len(passPacks))
	for _, pack := range passPacks {
		if role == "" || pack.Role == role {
			packs = append(packs, pack)
		}
	}
	return packs
}

func PackByID(packID string) (models.PassPack, bool) {
	for _, pack := range passPacks {
		if pack.ID == packID {
			return pack, true
		}
	}
	return models.PassPack{}, false
}

// Checkout registers a pending payment under a fresh reference and asks the
// gateway for a redirect URL. Nothing is granted until the IPN confirms.
func (s *PaymentService) Checkout(ctx context.Context, actor Actor, packID string) (*models.PassPayment, string, error) {
	if actor.ID <= 0 {
		return nil, "", ErrAuthRequired
	}

	pack, ok := PackByID(packID)
	if !ok {
		return nil, "", ErrNotFound
	}
	if pack.Role != actor.Role {
		return nil, "", ErrRoleNotAllowed
	}
	if s.paytech == nil {
		return nil, "", ErrPaymentUnavailable
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	payment, err := s.payments.Create(ctx, repository.CreatePaymentInput{
		Ref:      uuid.NewString(),
		UserID:   actor.ID,
		Role:     actor.Role,
		PackID:   pack.ID,
		Amount:   pack.Price,
		Currency: pack.Currency,
		Status:   PaymentStatusPending,
	})
	if err != nil {
		return nil, "", err
	}

	redirectURL, err := s.paytech.RequestPayment(ctx, RequestPaymentInput{
		Amount:      pack.Price,
		Currency:    pack.Currency,
		Ref:         payment.Ref,
		ItemName:    pack.Name,
		Email:       user.Email,
		CustomField: pack.ID,
	})
	if err != nil {
		return nil, "", err
	}

	return payment, redirectURL, nil
}

// ConfirmIPN settles the payment named by ref. The paid transition and the
// credential mutation share one transaction; replayed notifications are
// no-ops because the compare-and-set only fires once.
func (s *PaymentService) ConfirmIPN(ctx context.Context, ref string, event string) error {
	if ref == "" {
		return ErrInvalidInput
	}

	if event != IPNEventSaleComplete {
		return s.markFailed(ctx, ref)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txPassRepo := repository.NewPassRepository(tx)

	payment, err := txPaymentRepo.GetByRefForUpdate(ctx, ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if payment.Status != PaymentStatusPending {
		return nil
	}

	if _, err := txPaymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, PaymentStatusPending, PaymentStatusPaid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	pack, ok := PackByID(payment.PackID)
	if !ok {
		return fmt.Errorf("payment %s references unknown pack %q", payment.Ref, payment.PackID)
	}

	if err := s.applyCredential(ctx, txPassRepo, payment.UserID, pack); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PaymentService) Transactions(ctx context.Context, actor Actor) ([]models.PassPayment, error) {
	if actor.ID <= 0 {
		return nil, ErrAuthRequired
	}
	return s.payments.ListByUser(ctx, actor.ID)
}

func (s *PaymentService) ListAll(ctx context.Context, limit, offset int) ([]models.PassPayment, int, error) {
	return s.payments.ListAll(ctx, limit, offset)
}

func (s *PaymentService) applyCredential(
	ctx context.Context,
	accounts *repository.PassRepository,
	userID int64,
	pack models.PassPack,
) error {
	if err := accounts.CreateEmpty(ctx, userID); err != nil {
		return err
	}

	switch s.pass.Mode() {
	case models.PassModeBalance:
		_, err := accounts.AddCredits(ctx, userID, pack.Credits)
		return err
	case models.PassModeWindow:
		credential, err := accounts.GetCredential(ctx, userID, models.PassModeWindow)
		if err != nil {
			return err
		}
		window, ok := credential.(models.WindowCredential)
		if !ok {
			return fmt.Errorf("unexpected credential shape %T", credential)
		}
		next, err := ExtendPass(window.ValidUntil, pack.DurationDays, s.pass.now())
		if err != nil {
			return err
		}
		return accounts.SetValidUntil(ctx, userID, next)
	default:
		return fmt.Errorf("unknown pass mode %q", s.pass.Mode())
	}
}

func (s *PaymentService) markFailed(ctx context.Context, ref string) error {
	payment, err := s.payments.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if payment.Status != PaymentStatusPending {
		return nil
	}

	if _, err := s.payments.UpdateStatusIfCurrent(ctx, payment.ID, PaymentStatusPending, PaymentStatusFailed); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return nil
}
