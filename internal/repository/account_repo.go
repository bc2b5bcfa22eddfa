package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/models"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, credit_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.CreditBalance.String()).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, credit_balance::text, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id))
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, credit_balance::text, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email))
}

// GetByIDForUpdate locks the account row for the duration of the caller's
// transaction. This is the per-wallet serialization point: all credit/debit
// sequencing for one wallet funnels through this lock.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return scanAccount(tx.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, credit_balance::text, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE
	`, id))
}

// AddCredits raises the balance and returns the new value.
func (r *AccountRepo) AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance + $1::numeric, updated_at = now()
		WHERE id = $2
		RETURNING credit_balance::text
	`, amount.String(), id).Scan(&raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// DeductCredits lowers the balance only if it stays non-negative. The
// conditional UPDATE is the database-level overdraft guard backing the
// service-level balance check.
func (r *AccountRepo) DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance - $1::numeric, updated_at = now()
		WHERE id = $2 AND credit_balance >= $1::numeric
		RETURNING credit_balance::text
	`, amount.String(), id).Scan(&raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	var balance string
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	a.CreditBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
