// Package account implements account rules: per-user unique names, soft
// activation, and a hard delete guard while transactions still reference the
// account. Balances are never written through this service; they belong to
// the balance engine.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListAccounts(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]finance.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (finance.Account, error)
	CountTransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) (int, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateAccount(ctx context.Context, a finance.Account) (finance.Account, error)
	UpdateAccount(ctx context.Context, a finance.Account) (finance.Account, error)
	// DeleteAccount removes the row. The store must reject the delete with
	// errs.ErrConflict while any transaction references the account.
	DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error
}

// Service exposes account management.
type Service interface {
	ValidateCreate(a finance.Account) error
	Create(ctx context.Context, a finance.Account) (finance.Account, error)
	List(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]finance.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (finance.Account, error)
	Update(ctx context.Context, a finance.Account) (finance.Account, error)
	Delete(ctx context.Context, userID, accountID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) ValidateCreate(a finance.Account) error {
	if a.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", errs.ErrInvalid)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", errs.ErrInvalid)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: invalid account type %q", errs.ErrInvalid, a.Type)
	}
	return nil
}

// Create persists a new account with its opening balance. Names are unique
// per user; duplicates fail with errs.ErrConflict.
func (s *service) Create(ctx context.Context, a finance.Account) (finance.Account, error) {
	if err := s.ValidateCreate(a); err != nil {
		return finance.Account{}, err
	}
	if a.Currency == "" {
		a.Currency = finance.DefaultCurrency
	}
	a.Currency = strings.ToUpper(a.Currency)
	// Normalize the opening balance into the account currency. A zero-value
	// amount becomes an explicit zero.
	minor, ok := a.Balance.MinorUnits()
	if !ok {
		minor = 0
	}
	bal, err := finance.AmountFromMinor(a.Currency, minor)
	if err != nil {
		return finance.Account{}, fmt.Errorf("%w: invalid currency %q", errs.ErrInvalid, a.Currency)
	}
	a.Balance = bal
	if err := s.ensureUniqueName(ctx, a.UserID, a.Name, uuid.Nil); err != nil {
		return finance.Account{}, err
	}
	now := time.Now().UTC()
	a.ID = uuid.New()
	a.Active = true
	a.CreatedAt = now
	a.UpdatedAt = now
	return s.writer.CreateAccount(ctx, a)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]finance.Account, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", errs.ErrInvalid)
	}
	return s.repo.ListAccounts(ctx, userID, includeInactive)
}

func (s *service) Get(ctx context.Context, userID, accountID uuid.UUID) (finance.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return finance.Account{}, fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	return s.repo.GetAccount(ctx, userID, accountID)
}

// Update applies changes to name, type, description and the active flag.
// The balance field is ignored: balances move only through transaction
// lifecycle operations.
func (s *service) Update(ctx context.Context, a finance.Account) (finance.Account, error) {
	if a.UserID == uuid.Nil || a.ID == uuid.Nil {
		return finance.Account{}, fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	if err := s.ValidateCreate(a); err != nil {
		return finance.Account{}, err
	}
	current, err := s.repo.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return finance.Account{}, err
	}
	if !strings.EqualFold(current.Name, a.Name) {
		if err := s.ensureUniqueName(ctx, a.UserID, a.Name, a.ID); err != nil {
			return finance.Account{}, err
		}
	}
	current.Name = a.Name
	current.Type = a.Type
	current.Description = a.Description
	current.Active = a.Active
	current.UpdatedAt = time.Now().UTC()
	return s.writer.UpdateAccount(ctx, current)
}

// Delete removes an account that no transaction references. Referenced
// accounts fail with errs.ErrConflict carrying the reference count.
func (s *service) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	if _, err := s.repo.GetAccount(ctx, userID, accountID); err != nil {
		return err
	}
	n, err := s.repo.CountTransactionsByAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: account is referenced by %d transaction(s)", errs.ErrConflict, n)
	}
	return s.writer.DeleteAccount(ctx, userID, accountID)
}

func (s *service) ensureUniqueName(ctx context.Context, userID uuid.UUID, name string, selfID uuid.UUID) error {
	existing, err := s.repo.ListAccounts(ctx, userID, true)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == selfID {
			continue
		}
		if strings.EqualFold(other.Name, name) {
			return fmt.Errorf("%w: an account named %q already exists", errs.ErrConflict, name)
		}
	}
	return nil
}
