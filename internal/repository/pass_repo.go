package repository

import (
	"context"
	"time"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

// PassRepository owns the credential row of each user. The table carries the
// storage for both product modes but only the column matching the configured
// mode is ever read or written in one deployment.
type PassRepository struct {
	db DBTX
}

func NewPassRepository(db DBTX) *PassRepository {
	return &PassRepository{db: db}
}

func (r *PassRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pass_accounts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *PassRepository) GetCredential(
	ctx context.Context,
	userID int64,
	mode models.PassMode,
) (models.Credential, error) {
	query := `
		SELECT balance, valid_until
		FROM pass_accounts
		WHERE user_id = $1
	`

	var balance int
	var validUntil *time.Time
	if err := r.db.QueryRow(ctx, query, userID).Scan(&balance, &validUntil); err != nil {
		return nil, err
	}

	if mode == models.PassModeBalance {
		return models.BalanceCredential{Credits: balance}, nil
	}
	return models.WindowCredential{ValidUntil: validUntil}, nil
}

// AddCredits applies a signed delta and returns the new balance. The guard in
// the WHERE clause keeps the balance from ever dipping below zero: an
// over-consumption matches no row and surfaces as pgx.ErrNoRows, leaving the
// stored balance untouched.
func (r *PassRepository) AddCredits(ctx context.Context, userID int64, delta int) (int, error) {
	query := `
		UPDATE pass_accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	var balance int
	if err := r.db.QueryRow(ctx, query, userID, delta).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *PassRepository) SetValidUntil(ctx context.Context, userID int64, validUntil time.Time) error {
	query := `
		INSERT INTO pass_accounts (user_id, valid_until)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET valid_until = EXCLUDED.valid_until, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, userID, validUntil)
	return err
}
