package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/models"
)

// ErrInvalidAmount is returned for non-positive credit or debit amounts,
// before any state is touched.
var ErrInvalidAmount = errors.New("amount must be positive")

// InsufficientFundsError is returned when a debit would push the balance
// below zero. The wallet is left unchanged; no transaction is recorded.
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s", e.Balance, e.Requested)
}

// AccountStore is the minimal account interface the ledger needs. The
// GetByIDForUpdate row lock serializes credit/debit per wallet; operations on
// different wallets proceed in parallel.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// TransactionStore appends and reads immutable ledger entries.
type TransactionStore interface {
	NextSeq(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error)
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error)
}

// Service is the single source of truth for spendable balances and their
// audit history.
type Service struct {
	Accounts     AccountStore
	Transactions TransactionStore
}

func NewService(accounts AccountStore, transactions TransactionStore) *Service {
	return &Service{Accounts: accounts, Transactions: transactions}
}

// Credit appends a CREDIT entry and raises the balance. Never fails for a
// positive amount on an existing account. Call within a transaction.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount decimal.Decimal, note string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return nil, err
	}
	newBalance, err := s.Accounts.AddCredits(ctx, tx, accountID, amount)
	if err != nil {
		return nil, err
	}
	return s.append(ctx, tx, accountID, models.TxKindCredit, amount, note, newBalance)
}

// Debit appends a DEBIT entry and lowers the balance. If the balance is below
// the requested amount it fails with *InsufficientFundsError and records
// nothing. Call within a transaction.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount decimal.Decimal, note string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	acc, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.CreditBalance.LessThan(amount) {
		return nil, &InsufficientFundsError{Balance: acc.CreditBalance, Requested: amount}
	}
	newBalance, err := s.Accounts.DeductCredits(ctx, tx, accountID, amount)
	if err != nil {
		return nil, err
	}
	return s.append(ctx, tx, accountID, models.TxKindDebit, amount, note, newBalance)
}

func (s *Service) append(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind string, amount decimal.Decimal, note string, balanceAfter decimal.Decimal) (*models.Transaction, error) {
	seq, err := s.Transactions.NextSeq(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	entry := &models.Transaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		Seq:          seq,
		Kind:         kind,
		Amount:       amount,
		Note:         note,
		BalanceAfter: balanceAfter,
	}
	if err := s.Transactions.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Balance returns the account's current balance.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	acc, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.CreditBalance, nil
}

// History returns the wallet's ledger entries in chronological order.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	return s.Transactions.ListByAccount(ctx, accountID)
}

// VerifyBalance recomputes Σcredits − Σdebits over the transaction sequence
// and checks it against the cached balance. The two must agree at all times.
func (s *Service) VerifyBalance(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	entries, err := s.Transactions.ListByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Signed())
	}
	if !sum.Equal(acc.CreditBalance) {
		return fmt.Errorf("ledger drift on account %s: balance %s, transaction sum %s", accountID, acc.CreditBalance, sum)
	}
	return nil
}
