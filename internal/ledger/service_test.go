package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks for AccountStore and TransactionStore.
// These let us test the real ledger logic without a database.
// ---------------------------------------------------------------------------

type mockAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newMockAccounts(accs ...*models.Account) *mockAccounts {
	m := &mockAccounts{accounts: make(map[uuid.UUID]*models.Account)}
	for _, a := range accs {
		cp := *a
		m.accounts[a.ID] = &cp
	}
	return m
}

func (m *mockAccounts) get(id uuid.UUID) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockAccounts) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockAccounts) AddCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s not found", id)
	}
	a.CreditBalance = a.CreditBalance.Add(amount)
	return a.CreditBalance, nil
}

func (m *mockAccounts) DeductCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s not found", id)
	}
	if a.CreditBalance.LessThan(amount) {
		return decimal.Zero, pgx.ErrNoRows
	}
	a.CreditBalance = a.CreditBalance.Sub(amount)
	return a.CreditBalance, nil
}

func (m *mockAccounts) balance(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].CreditBalance
}

// ---

type mockTransactions struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]*models.Transaction
}

func newMockTransactions() *mockTransactions {
	return &mockTransactions{entries: make(map[uuid.UUID][]*models.Transaction)}
}

func (m *mockTransactions) NextSeq(_ context.Context, _ pgx.Tx, accountID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries[accountID])) + 1, nil
}

func (m *mockTransactions) CreateTx(_ context.Context, _ pgx.Tx, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.entries[t.AccountID] = append(m.entries[t.AccountID], &cp)
	return nil
}

func (m *mockTransactions) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Transaction, len(m.entries[accountID]))
	copy(out, m.entries[accountID])
	return out, nil
}

func (m *mockTransactions) count(accountID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[accountID])
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func acct(id uuid.UUID, balance int64) *models.Account {
	return &models.Account{ID: id, CreditBalance: decimal.NewFromInt(balance)}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newTestLedger(accs ...*models.Account) (*Service, *mockAccounts, *mockTransactions) {
	accounts := newMockAccounts(accs...)
	transactions := newMockTransactions()
	return NewService(accounts, transactions), accounts, transactions
}

// ---------------------------------------------------------------------------
// Credit / Debit basics
// ---------------------------------------------------------------------------

func TestCreditThenDebit(t *testing.T) {
	id := uuid.New()
	svc, accounts, transactions := newTestLedger(acct(id, 0))
	ctx := context.Background()

	// credit 500 → balance 500
	entry, err := svc.Credit(ctx, nil, id, dec(500), "initial_payment")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if !entry.Amount.Equal(dec(500)) || entry.Kind != models.TxKindCredit {
		t.Errorf("credit entry: got %s %s", entry.Kind, entry.Amount)
	}
	if entry.Note != "initial_payment" {
		t.Errorf("note not stored: got %q", entry.Note)
	}
	if got := accounts.balance(id); !got.Equal(dec(500)) {
		t.Errorf("balance after credit: got %s, want 500", got)
	}

	// debit 200 → balance 300
	entry, err = svc.Debit(ctx, nil, id, dec(200), "analysis")
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if entry.Kind != models.TxKindDebit || !entry.BalanceAfter.Equal(dec(300)) {
		t.Errorf("debit entry: kind %s, balance_after %s", entry.Kind, entry.BalanceAfter)
	}
	if got := accounts.balance(id); !got.Equal(dec(300)) {
		t.Errorf("balance after debit: got %s, want 300", got)
	}
	if n := transactions.count(id); n != 2 {
		t.Errorf("transaction count: got %d, want 2", n)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	id := uuid.New()
	svc, accounts, transactions := newTestLedger(acct(id, 300))
	ctx := context.Background()

	_, err := svc.Debit(ctx, nil, id, dec(400), "too much")
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got: %v", err)
	}
	if !insufficient.Balance.Equal(dec(300)) || !insufficient.Requested.Equal(dec(400)) {
		t.Errorf("error detail: balance %s, requested %s", insufficient.Balance, insufficient.Requested)
	}

	// Wallet unchanged: balance intact, no transaction recorded.
	if got := accounts.balance(id); !got.Equal(dec(300)) {
		t.Errorf("balance changed on failed debit: got %s", got)
	}
	if n := transactions.count(id); n != 0 {
		t.Errorf("failed debit recorded %d transactions", n)
	}
}

func TestInvalidAmounts(t *testing.T) {
	id := uuid.New()
	svc, _, transactions := newTestLedger(acct(id, 100))
	ctx := context.Background()

	for _, amount := range []decimal.Decimal{decimal.Zero, dec(-5)} {
		if _, err := svc.Credit(ctx, nil, id, amount, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Credit(%s): expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := svc.Debit(ctx, nil, id, amount, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Debit(%s): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if n := transactions.count(id); n != 0 {
		t.Errorf("rejected amounts recorded %d transactions", n)
	}
}

// ---------------------------------------------------------------------------
// Sequence numbers
// ---------------------------------------------------------------------------

func TestSeqStrictlyIncreasing(t *testing.T) {
	id := uuid.New()
	svc, _, transactions := newTestLedger(acct(id, 0))
	ctx := context.Background()

	if _, err := svc.Credit(ctx, nil, id, dec(100), ""); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	// A failed debit must not burn a sequence number.
	if _, err := svc.Debit(ctx, nil, id, dec(9999), ""); err == nil {
		t.Fatal("expected insufficient funds")
	}
	if _, err := svc.Debit(ctx, nil, id, dec(40), ""); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	entries, _ := transactions.ListByAccount(ctx, id)
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	for i, e := range entries {
		if e.Seq != int64(i)+1 {
			t.Errorf("entry %d: seq %d, want %d", i, e.Seq, i+1)
		}
	}
}

// ---------------------------------------------------------------------------
// Balance invariant: balance == Σcredits − Σdebits at all times.
// ---------------------------------------------------------------------------

func TestLedgerIntegrity(t *testing.T) {
	id := uuid.New()
	svc, accounts, transactions := newTestLedger(acct(id, 0))
	ctx := context.Background()

	ops := []struct {
		kind   string
		amount int64
		ok     bool
	}{
		{"credit", 500, true},
		{"debit", 200, true},
		{"debit", 1000, false},
		{"credit", 50, true},
		{"debit", 350, true},
	}
	for _, op := range ops {
		var err error
		if op.kind == "credit" {
			_, err = svc.Credit(ctx, nil, id, dec(op.amount), "")
		} else {
			_, err = svc.Debit(ctx, nil, id, dec(op.amount), "")
		}
		if (err == nil) != op.ok {
			t.Fatalf("%s %d: err=%v, want ok=%v", op.kind, op.amount, err, op.ok)
		}

		// Invariant must hold after every operation, including failures.
		if err := svc.VerifyBalance(ctx, id); err != nil {
			t.Fatalf("after %s %d: %v", op.kind, op.amount, err)
		}
	}

	entries, _ := transactions.ListByAccount(ctx, id)
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Signed())
	}
	if got := accounts.balance(id); !got.Equal(sum) {
		t.Errorf("balance %s != transaction sum %s", got, sum)
	}
	if !sum.Equal(dec(0)) {
		t.Errorf("final balance: got %s, want 0", sum)
	}
}

func TestVerifyBalanceDetectsDrift(t *testing.T) {
	id := uuid.New()
	svc, accounts, _ := newTestLedger(acct(id, 0))
	ctx := context.Background()

	if _, err := svc.Credit(ctx, nil, id, dec(100), ""); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	// Corrupt the cached balance behind the ledger's back.
	accounts.mu.Lock()
	accounts.accounts[id].CreditBalance = dec(999)
	accounts.mu.Unlock()

	if err := svc.VerifyBalance(ctx, id); err == nil {
		t.Error("expected drift to be detected")
	}
}

// ---------------------------------------------------------------------------
// Concurrency: parallel debits on one wallet must not overdraw it.
// ---------------------------------------------------------------------------

func TestConcurrentDebits(t *testing.T) {
	id := uuid.New()
	svc, accounts, transactions := newTestLedger(acct(id, 10))
	ctx := context.Background()

	// The mock's mutex stands in for the row lock: the check-then-append in
	// DeductCredits is atomic, so at most 10 of these debits can land.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Debit(ctx, nil, id, dec(1), "race")
		}()
	}
	wg.Wait()

	if got := accounts.balance(id); got.IsNegative() {
		t.Errorf("balance went negative: %s", got)
	}
	if n := transactions.count(id); n > 10 {
		t.Errorf("recorded %d debits from a balance of 10", n)
	}
}
