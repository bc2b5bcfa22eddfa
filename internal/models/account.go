package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ErrInvalidAccount is returned when an account fails construction-time
// validation. Wrapped errors carry the specific reason.
var ErrInvalidAccount = errors.New("invalid account")

var emailPattern = regexp.MustCompile(`^[\w.\-]+@[\w.\-]+\.\w+$`)

// Minimum stored password-hash length. A representational sanity check, not a
// security mechanism; hashing itself happens in the auth service.
const minPasswordHashLen = 8

type Account struct {
	ID            uuid.UUID       `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	Role          string          `json:"role"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewAccount validates and builds an account with a zero wallet balance.
// Violations fail with ErrInvalidAccount before any state is created.
func NewAccount(username, email, passwordHash, role string) (*Account, error) {
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email %q", ErrInvalidAccount, email)
	}
	if len(passwordHash) < minPasswordHashLen {
		return nil, fmt.Errorf("%w: password hash too short", ErrInvalidAccount)
	}
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, role)
	}
	return &Account{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          role,
		CreditBalance: decimal.Zero,
	}, nil
}

// IsAdmin reports whether the account carries the admin capability.
func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }
