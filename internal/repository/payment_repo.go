package repository

import (
	"context"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type CreatePaymentInput struct {
	Ref      string
	UserID   int64
	Role     models.Role
	PackID   string
	Amount   float64
	Currency string
	Status   string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.PassPayment, error) {
	query := `
		INSERT INTO pass_payments (ref, user_id, role, pack_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, ref, user_id, role, pack_id, amount, currency, status, created_at
	`

	var payment models.PassPayment
	err := r.db.QueryRow(
		ctx,
		query,
		input.Ref,
		input.UserID,
		input.Role,
		input.PackID,
		input.Amount,
		input.Currency,
		input.Status,
	).Scan(
		&payment.ID,
		&payment.Ref,
		&payment.UserID,
		&payment.Role,
		&payment.PackID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByRef(ctx context.Context, ref string) (*models.PassPayment, error) {
	query := `
		SELECT id, ref, user_id, role, pack_id, amount, currency, status, created_at
		FROM pass_payments
		WHERE ref = $1
	`

	var payment models.PassPayment
	err := r.db.QueryRow(ctx, query, ref).Scan(
		&payment.ID,
		&payment.Ref,
		&payment.UserID,
		&payment.Role,
		&payment.PackID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByRefForUpdate(ctx context.Context, ref string) (*models.PassPayment, error) {
	query := `
		SELECT id, ref, user_id, role, pack_id, amount, currency, status, created_at
		FROM pass_payments
		WHERE ref = $1
		FOR UPDATE
	`

	var payment models.PassPayment
	err := r.db.QueryRow(ctx, query, ref).Scan(
		&payment.ID,
		&payment.Ref,
		&payment.UserID,
		&payment.Role,
		&payment.PackID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatusIfCurrent is a compare-and-set status transition; no row matches
// when the payment already moved on, which surfaces as pgx.ErrNoRows.
func (r *PaymentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	paymentID int64,
	currentStatus string,
	nextStatus string,
) (*models.PassPayment, error) {
	query := `
		UPDATE pass_payments
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING id, ref, user_id, role, pack_id, amount, currency, status, created_at
	`

	var payment models.PassPayment
	err := r.db.QueryRow(ctx, query, paymentID, currentStatus, nextStatus).Scan(
		&payment.ID,
		&payment.Ref,
		&payment.UserID,
		&payment.Role,
		&payment.PackID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]models.PassPayment, error) {
	query := `
		SELECT id, ref, user_id, role, pack_id, amount, currency, status, created_at
		FROM pass_payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PaymentRepository) ListAll(ctx context.Context, limit, offset int) ([]models.PassPayment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pass_payments`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, ref, user_id, role, pack_id, amount, currency, status, created_at
		FROM pass_payments
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments := make([]models.PassPayment, 0)
	for rows.Next() {
		var payment models.PassPayment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, 0, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.PassPayment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.PassPayment, 0)
	for rows.Next() {
		var payment models.PassPayment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner, payment *models.PassPayment) error {
	return row.Scan(
		&payment.ID,
		&payment.Ref,
		&payment.UserID,
		&payment.Role,
		&payment.PackID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
	)
}
