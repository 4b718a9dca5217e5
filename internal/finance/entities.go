// Package finance defines the domain entities of the Finance Hero ledger:
// users, financial accounts, categories and the transactions that move money
// between them. Account balances are kept in minor units and exposed as
// money.Amount values so arithmetic stays decimal-exact.
package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
)

// TransactionType enumerates the direction of a transaction. The sign of a
// balance mutation is always derived from the type, never from the amount.
type TransactionType string

const (
	// TypeIncome credits the referenced account.
	TypeIncome TransactionType = "INCOME"
	// TypeExpense debits the referenced account.
	TypeExpense TransactionType = "EXPENSE"
	// TypeTransfer is reserved. It has no defined balance effect and is
	// rejected at validation until its semantics are specified.
	TypeTransfer TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the recognized transaction types,
// including the reserved TRANSFER variant.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// AccountType enumerates the kind of financial account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeInvestment AccountType = "INVESTMENT"
	AccountTypeCash       AccountType = "CASH"
)

// Valid reports whether t is a recognized account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard, AccountTypeInvestment, AccountTypeCash:
		return true
	}
	return false
}

// CategoryType constrains which categories may label which transactions.
// Categories take no part in balance arithmetic.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// Valid reports whether t is a recognized category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// DefaultCurrency is used when an account is created without an explicit
// currency. The original product is Brazilian.
const DefaultCurrency = "BRL"

// User captures the owner of ledger data. Authentication is handled upstream;
// the engine only threads the identity through every call.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// Account is a financial account belonging to a user. Balance must at all
// times equal the opening balance plus the net effect of every non-deleted
// transaction referencing the account.
type Account struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// Name is unique per user.
	Name     string
	Type     AccountType
	Currency string
	// Balance is mutated exclusively through balance deltas applied by the
	// store; it is never written directly by account updates.
	Balance     money.Amount
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category labels transactions for display and filtering. Its type constrains
// which transaction types it may be attached to.
type Category struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// Name is unique per user.
	Name        string
	Type        CategoryType
	Description string
	Color       string
	Icon        string
	Active      bool
	CreatedAt   time.Time
}

// Transaction records a single income or expense against an account and a
// category. Amount is a non-negative magnitude; direction comes from Type.
type Transaction struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// Amount is always a magnitude (>= 0) in the account's currency.
	Amount      money.Amount
	Description string
	Date        time.Time
	Type        TransactionType
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
