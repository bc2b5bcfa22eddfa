package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/models"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// NextSeq returns the next per-wallet sequence number. Callers hold the
// account row lock, so two transactions can never draw the same seq.
func (r *TransactionRepo) NextSeq(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	var seq int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE account_id = $1
	`, accountID).Scan(&seq)
	return seq, err
}

// CreateTx inserts a ledger entry inside the given transaction.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (id, account_id, seq, kind, amount, note, balance_after)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric)
		RETURNING created_at
	`, t.ID, t.AccountID, t.Seq, t.Kind, t.Amount.String(), t.Note, t.BalanceAfter.String()).Scan(&t.CreatedAt)
}

// ListByAccount returns the wallet's entries in insertion order (seq order ==
// chronological order).
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, seq, kind, amount::text, note, balance_after::text, created_at
		FROM transactions WHERE account_id = $1 ORDER BY seq ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		var amount, after string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Seq, &t.Kind, &amount, &t.Note, &after, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if t.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
