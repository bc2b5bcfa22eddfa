package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction kinds. Direction is carried by the kind, never by the sign of
// the amount.
const (
	TxKindCredit = "CREDIT"
	TxKindDebit  = "DEBIT"
)

// Transaction is one immutable ledger entry. Seq is assigned per wallet,
// strictly increasing; failed operations allocate nothing.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Seq          int64           `json:"seq"`
	Kind         string          `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Signed returns the balance delta this entry represents: positive for
// credits, negative for debits.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Kind == TxKindDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
