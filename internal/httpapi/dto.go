package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/finance"
)

// Transactions

type postTransactionRequest struct {
	Amount      string                  `json:"amount"`
	Description string                  `json:"description"`
	Date        time.Time               `json:"date"`
	Type        finance.TransactionType `json:"type"`
	AccountID   uuid.UUID               `json:"account_id"`
	CategoryID  uuid.UUID               `json:"category_id"`
}

type accountRef struct {
	ID   uuid.UUID           `json:"id"`
	Name string              `json:"name"`
	Type finance.AccountType `json:"type"`
}

type categoryRef struct {
	ID    uuid.UUID            `json:"id"`
	Name  string               `json:"name"`
	Type  finance.CategoryType `json:"type"`
	Color string               `json:"color"`
	Icon  string               `json:"icon"`
}

type transactionResponse struct {
	ID          uuid.UUID               `json:"id"`
	UserID      uuid.UUID               `json:"user_id"`
	Amount      string                  `json:"amount"`
	AmountMinor int64                   `json:"amount_minor"`
	Currency    string                  `json:"currency"`
	Description string                  `json:"description"`
	Date        time.Time               `json:"date"`
	Type        finance.TransactionType `json:"type"`
	AccountID   uuid.UUID               `json:"account_id"`
	CategoryID  uuid.UUID               `json:"category_id"`
	Account     *accountRef             `json:"account,omitempty"`
	Category    *categoryRef            `json:"category,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toTransactionResponse(t finance.Transaction) transactionResponse {
	minor, _ := t.Amount.MinorUnits()
	return transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Amount:      finance.FormatMinor(minor),
		AmountMinor: minor,
		Currency:    t.Amount.Curr().Code(),
		Description: t.Description,
		Date:        t.Date,
		Type:        t.Type,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// listTransactionsQuery holds validated query params for GET /transactions.
type listTransactionsQuery struct {
	Type       finance.TransactionType
	AccountID  uuid.UUID
	CategoryID uuid.UUID
	Page       int
	Limit      int
}

// listTransactionsResponse wraps a page of transactions with totals.
type listTransactionsResponse struct {
	Items []transactionResponse `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// Accounts

type postAccountRequest struct {
	Name        string              `json:"name"`
	Type        finance.AccountType `json:"type"`
	Currency    string              `json:"currency,omitempty"`
	Balance     string              `json:"balance,omitempty"`
	Description string              `json:"description,omitempty"`
}

type accountResponse struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Name         string              `json:"name"`
	Type         finance.AccountType `json:"type"`
	Currency     string              `json:"currency"`
	Balance      string              `json:"balance"`
	BalanceMinor int64               `json:"balance_minor"`
	Description  string              `json:"description"`
	Active       bool                `json:"active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toAccountResponse(a finance.Account) accountResponse {
	minor, _ := a.Balance.MinorUnits()
	return accountResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Name:         a.Name,
		Type:         a.Type,
		Currency:     a.Currency,
		Balance:      finance.FormatMinor(minor),
		BalanceMinor: minor,
		Description:  a.Description,
		Active:       a.Active,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// Categories

type postCategoryRequest struct {
	Name        string               `json:"name"`
	Type        finance.CategoryType `json:"type"`
	Description string               `json:"description,omitempty"`
	Color       string               `json:"color,omitempty"`
	Icon        string               `json:"icon,omitempty"`
}

type categoryResponse struct {
	ID          uuid.UUID            `json:"id"`
	UserID      uuid.UUID            `json:"user_id"`
	Name        string               `json:"name"`
	Type        finance.CategoryType `json:"type"`
	Description string               `json:"description"`
	Color       string               `json:"color"`
	Icon        string               `json:"icon"`
	Active      bool                 `json:"active"`
	CreatedAt   time.Time            `json:"created_at"`
}

func toCategoryResponse(c finance.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Type:        c.Type,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}
