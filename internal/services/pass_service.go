package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type passAccountStore interface {
	CreateEmpty(ctx context.Context, userID int64) error
	GetCredential(ctx context.Context, userID int64, mode models.PassMode) (models.Credential, error)
	AddCredits(ctx context.Context, userID int64, delta int) (int, error)
	SetValidUntil(ctx context.Context, userID int64, validUntil time.Time) error
}

// PassService is the single writer of a user's credential state. Mutations go
// straight to the database, so a grant or extension is durable before any
// subsequent read can observe it.
type PassService struct {
	mode     models.PassMode
	accounts passAccountStore
	now      func() time.Time
}

func NewPassService(mode models.PassMode, accounts passAccountStore) *PassService {
	return &PassService{
		mode:     mode,
		accounts: accounts,
		now:      time.Now,
	}
}

func (s *PassService) Mode() models.PassMode {
	return s.mode
}

// Credential returns the user's current credential in the configured shape.
// Users without an account row simply have an empty credential.
func (s *PassService) Credential(ctx context.Context, userID int64) (models.Credential, error) {
	credential, err := s.accounts.GetCredential(ctx, userID, s.mode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.emptyCredential(), nil
		}
		return nil, err
	}
	return credential, nil
}

// Grant applies a signed credit delta in balance mode. A delta that would
// drive the balance below zero fails with ErrInsufficientCredit and leaves
// the stored balance untouched.
func (s *PassService) Grant(ctx context.Context, userID int64, amount int) (int, error) {
	if s.mode != models.PassModeBalance {
		return 0, ErrInvalidInput
	}
	if amount >= 0 {
		if err := s.accounts.CreateEmpty(ctx, userID); err != nil {
			return 0, err
		}
	}

	balance, err := s.accounts.AddCredits(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientCredit
		}
		return 0, err
	}
	return balance, nil
}

// ExtendValidity stacks days onto the user's validity window in window mode
// and returns the new expiry.
func (s *PassService) ExtendValidity(ctx context.Context, userID int64, days int) (time.Time, error) {
	if s.mode != models.PassModeWindow {
		return time.Time{}, ErrInvalidInput
	}

	credential, err := s.Credential(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	window, ok := credential.(models.WindowCredential)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected credential shape %T", credential)
	}

	next, err := ExtendPass(window.ValidUntil, days, s.now())
	if err != nil {
		return time.Time{}, err
	}
	if err := s.accounts.SetValidUntil(ctx, userID, next); err != nil {
		return time.Time{}, err
	}
	return next, nil
}

// CheckAccess reports whether the user may initiate a contact. A nil return
// means permitted; ErrPassRequired means the credential is missing, spent or
// expired.
func (s *PassService) CheckAccess(ctx context.Context, userID int64) error {
	credential, err := s.Credential(ctx, userID)
	if err != nil {
		return err
	}

	switch c := credential.(type) {
	case models.BalanceCredential:
		if c.Credits < 1 {
			return ErrPassRequired
		}
		return nil
	case models.WindowCredential:
		if !IsPassActive(c.ValidUntil, s.now()) {
			return ErrPassRequired
		}
		return nil
	default:
		return fmt.Errorf("unexpected credential shape %T", credential)
	}
}

func (s *PassService) emptyCredential() models.Credential {
	if s.mode == models.PassModeBalance {
		return models.BalanceCredential{}
	}
	return models.WindowCredential{}
}
