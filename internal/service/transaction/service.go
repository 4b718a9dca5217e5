// Package transaction implements the transaction lifecycle: create, update
// and delete, each paired with the compensating balance mutation that keeps
// account balances consistent with the set of live transactions.
package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/balance"
	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
)

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	Type       finance.TransactionType
	AccountID  uuid.UUID
	CategoryID uuid.UUID
	Page       int
	Limit      int
}

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (finance.Account, error)
	GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (finance.Category, error)
	GetTransaction(ctx context.Context, userID, txID uuid.UUID) (finance.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f Filter) ([]finance.Transaction, int, error)
}

// Writer defines the atomic lifecycle mutations. Each call is a single unit
// of work against the store: the row write and every balance delta commit
// together or not at all. On update/delete the store re-checks that the
// persisted row still matches old and fails with errs.ErrConsistency if a
// concurrent mutation won the race.
type Writer interface {
	CreateTransaction(ctx context.Context, tx finance.Transaction, apply balance.Delta) (finance.Transaction, error)
	UpdateTransaction(ctx context.Context, old, updated finance.Transaction, reversal, apply balance.Delta) (finance.Transaction, error)
	DeleteTransaction(ctx context.Context, old finance.Transaction, reversal balance.Delta) error
}

// Service exposes the transaction lifecycle.
type Service interface {
	Create(ctx context.Context, tx finance.Transaction) (finance.Transaction, error)
	Update(ctx context.Context, tx finance.Transaction) (finance.Transaction, error)
	Delete(ctx context.Context, userID, txID uuid.UUID) error
	Get(ctx context.Context, userID, txID uuid.UUID) (finance.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]finance.Transaction, int, error)
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the lifecycle coordinator over the given store interfaces.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// validateDraft checks required fields, the type enum and both references.
// It returns the referenced account so callers can reuse it.
func (s *service) validateDraft(ctx context.Context, tx finance.Transaction) (finance.Account, error) {
	if tx.UserID == uuid.Nil {
		return finance.Account{}, fmt.Errorf("%w: user_id is required", errs.ErrInvalid)
	}
	if strings.TrimSpace(tx.Description) == "" {
		return finance.Account{}, fmt.Errorf("%w: description is required", errs.ErrInvalid)
	}
	if tx.Date.IsZero() {
		return finance.Account{}, fmt.Errorf("%w: date is required", errs.ErrInvalid)
	}
	if !tx.Type.Valid() {
		return finance.Account{}, fmt.Errorf("%w: invalid transaction type %q", errs.ErrInvalid, tx.Type)
	}
	if tx.Type == finance.TypeTransfer {
		return finance.Account{}, fmt.Errorf("%w: transfer transactions are not supported", errs.ErrInvalid)
	}
	if tx.AccountID == uuid.Nil {
		return finance.Account{}, fmt.Errorf("%w: account_id is required", errs.ErrInvalid)
	}
	if tx.CategoryID == uuid.Nil {
		return finance.Account{}, fmt.Errorf("%w: category_id is required", errs.ErrInvalid)
	}
	if minor, ok := tx.Amount.MinorUnits(); !ok || minor <= 0 {
		return finance.Account{}, fmt.Errorf("%w: amount must be greater than zero", errs.ErrInvalid)
	}

	acc, err := s.repo.GetAccount(ctx, tx.UserID, tx.AccountID)
	if err != nil {
		return finance.Account{}, fmt.Errorf("account: %w", err)
	}
	if !acc.Active {
		return finance.Account{}, fmt.Errorf("%w: account is inactive", errs.ErrNotFound)
	}
	if !strings.EqualFold(acc.Currency, tx.Amount.Curr().Code()) {
		return finance.Account{}, fmt.Errorf("%w: amount currency does not match account currency", errs.ErrInvalid)
	}
	cat, err := s.repo.GetCategory(ctx, tx.UserID, tx.CategoryID)
	if err != nil {
		return finance.Account{}, fmt.Errorf("category: %w", err)
	}
	if !cat.Active {
		return finance.Account{}, fmt.Errorf("%w: category is inactive", errs.ErrNotFound)
	}
	// Expenses must use an expense category. The original enforces no
	// symmetric check for income, and neither do we.
	if tx.Type == finance.TypeExpense && cat.Type != finance.CategoryTypeExpense {
		return finance.Account{}, fmt.Errorf("%w: expense transactions require an expense category", errs.ErrInvalid)
	}
	return acc, nil
}

// Create validates the draft, persists it and applies its effect to the
// account balance in one atomic store operation.
func (s *service) Create(ctx context.Context, tx finance.Transaction) (finance.Transaction, error) {
	if _, err := s.validateDraft(ctx, tx); err != nil {
		return finance.Transaction{}, err
	}
	now := time.Now().UTC()
	tx.ID = uuid.New()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	apply, err := balance.Effect(tx)
	if err != nil {
		return finance.Transaction{}, err
	}
	return s.writer.CreateTransaction(ctx, tx, apply)
}

// Update loads the existing transaction, reverses its old effect and applies
// the new one. The reversal targets the old account even when the account
// reference changes, and the old amount/type even when those change. Both
// deltas and the row write commit atomically in the store.
func (s *service) Update(ctx context.Context, tx finance.Transaction) (finance.Transaction, error) {
	if tx.ID == uuid.Nil {
		return finance.Transaction{}, fmt.Errorf("%w: id is required", errs.ErrInvalid)
	}
	old, err := s.repo.GetTransaction(ctx, tx.UserID, tx.ID)
	if err != nil {
		return finance.Transaction{}, err
	}
	if _, err := s.validateDraft(ctx, tx); err != nil {
		return finance.Transaction{}, err
	}
	reversal, err := balance.Reverse(old)
	if err != nil {
		return finance.Transaction{}, err
	}
	tx.CreatedAt = old.CreatedAt
	tx.UpdatedAt = time.Now().UTC()
	apply, err := balance.Effect(tx)
	if err != nil {
		return finance.Transaction{}, err
	}
	return s.writer.UpdateTransaction(ctx, old, tx, reversal, apply)
}

// Delete reverses the transaction's effect and removes the row atomically.
func (s *service) Delete(ctx context.Context, userID, txID uuid.UUID) error {
	if userID == uuid.Nil || txID == uuid.Nil {
		return fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	old, err := s.repo.GetTransaction(ctx, userID, txID)
	if err != nil {
		return err
	}
	reversal, err := balance.Reverse(old)
	if err != nil {
		return err
	}
	return s.writer.DeleteTransaction(ctx, old, reversal)
}

func (s *service) Get(ctx context.Context, userID, txID uuid.UUID) (finance.Transaction, error) {
	if userID == uuid.Nil || txID == uuid.Nil {
		return finance.Transaction{}, fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	return s.repo.GetTransaction(ctx, userID, txID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]finance.Transaction, int, error) {
	if userID == uuid.Nil {
		return nil, 0, fmt.Errorf("%w: user_id is required", errs.ErrInvalid)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.ListTransactions(ctx, userID, f)
}
