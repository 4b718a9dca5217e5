// Package memory provides a simple in-memory implementation used for
// development and tests. Every lifecycle write runs under one write lock, so
// the row mutation and its balance deltas are atomic by construction.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/balance"
	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/service/transaction"
)

// Store is an in-memory implementation of the repository and writer
// interfaces used by the services. It is guarded by an RWMutex.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]finance.User
	accounts     map[uuid.UUID]finance.Account
	categories   map[uuid.UUID]finance.Category
	transactions map[uuid.UUID]finance.Transaction
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]finance.User),
		accounts:     make(map[uuid.UUID]finance.Account),
		categories:   make(map[uuid.UUID]finance.Category),
		transactions: make(map[uuid.UUID]finance.Transaction),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u finance.User) { s.mu.Lock(); s.users[u.ID] = u; s.mu.Unlock() }
func (s *Store) SeedAccount(a finance.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}
func (s *Store) SeedCategory(c finance.Category) {
	s.mu.Lock()
	s.categories[c.ID] = c
	s.mu.Unlock()
}

// Reset drops all state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]finance.User{}
	s.accounts = map[uuid.UUID]finance.Account{}
	s.categories = map[uuid.UUID]finance.Category{}
	s.transactions = map[uuid.UUID]finance.Transaction{}
	s.mu.Unlock()
}

// --- Account reads ---

// GetAccount returns a user's account by ID.
func (s *Store) GetAccount(_ context.Context, userID, accountID uuid.UUID) (finance.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return finance.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// ListAccounts returns accounts for a user sorted by name.
func (s *Store) ListAccounts(_ context.Context, userID uuid.UUID, includeInactive bool) ([]finance.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.Account, 0)
	for _, a := range s.accounts {
		if a.UserID != userID {
			continue
		}
		if !includeInactive && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// CountTransactionsByAccount returns how many transactions reference the account.
func (s *Store) CountTransactionsByAccount(_ context.Context, userID, accountID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countByAccountLocked(userID, accountID), nil
}

func (s *Store) countByAccountLocked(userID, accountID uuid.UUID) int {
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.AccountID == accountID {
			n++
		}
	}
	return n
}

// --- Account writes ---

// CreateAccount persists a new account.
func (s *Store) CreateAccount(_ context.Context, a finance.Account) (finance.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

// UpdateAccount persists descriptive changes to an account. The stored
// balance is preserved regardless of what the caller passes.
func (s *Store) UpdateAccount(_ context.Context, a finance.Account) (finance.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[a.ID]
	if !ok || current.UserID != a.UserID {
		return finance.Account{}, errs.ErrNotFound
	}
	a.Balance = current.Balance
	s.accounts[a.ID] = a
	return a, nil
}

// DeleteAccount removes an account unless transactions still reference it.
func (s *Store) DeleteAccount(_ context.Context, userID, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return errs.ErrNotFound
	}
	if s.countByAccountLocked(userID, accountID) > 0 {
		return errs.ErrConflict
	}
	delete(s.accounts, accountID)
	return nil
}

// --- Category reads/writes ---

// GetCategory returns a user's category by ID.
func (s *Store) GetCategory(_ context.Context, userID, categoryID uuid.UUID) (finance.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return finance.Category{}, errs.ErrNotFound
	}
	return c, nil
}

// ListCategories returns categories for a user, optionally filtered by type.
func (s *Store) ListCategories(_ context.Context, userID uuid.UUID, typ finance.CategoryType, includeInactive bool) ([]finance.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.Category, 0)
	for _, c := range s.categories {
		if c.UserID != userID {
			continue
		}
		if typ != "" && c.Type != typ {
			continue
		}
		if !includeInactive && !c.Active {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// CountTransactionsByCategory returns how many transactions reference the category.
func (s *Store) CountTransactionsByCategory(_ context.Context, userID, categoryID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countByCategoryLocked(userID, categoryID), nil
}

func (s *Store) countByCategoryLocked(userID, categoryID uuid.UUID) int {
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// CreateCategory persists a new category.
func (s *Store) CreateCategory(_ context.Context, c finance.Category) (finance.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return c, nil
}

// UpdateCategory persists changes to a category.
func (s *Store) UpdateCategory(_ context.Context, c finance.Category) (finance.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.categories[c.ID]
	if !ok || current.UserID != c.UserID {
		return finance.Category{}, errs.ErrNotFound
	}
	s.categories[c.ID] = c
	return c, nil
}

// DeleteCategory removes a category unless transactions still reference it.
func (s *Store) DeleteCategory(_ context.Context, userID, categoryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return errs.ErrNotFound
	}
	if s.countByCategoryLocked(userID, categoryID) > 0 {
		return errs.ErrConflict
	}
	delete(s.categories, categoryID)
	return nil
}

// --- Transaction reads ---

// GetTransaction returns a user's transaction by ID.
func (s *Store) GetTransaction(_ context.Context, userID, txID uuid.UUID) (finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[txID]
	if !ok || t.UserID != userID {
		return finance.Transaction{}, errs.ErrNotFound
	}
	return t, nil
}

// ListTransactions returns a page of transactions sorted by date descending,
// plus the total match count.
func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID, f transaction.Filter) ([]finance.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]finance.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.AccountID != uuid.Nil && t.AccountID != f.AccountID {
			continue
		}
		if f.CategoryID != uuid.Nil && t.CategoryID != f.CategoryID {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})
	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	page := make([]finance.Transaction, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

// --- Transaction writes (atomic units) ---

// CreateTransaction inserts the row and applies its balance delta under one lock.
func (s *Store) CreateTransaction(_ context.Context, tx finance.Transaction, apply balance.Delta) (finance.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyDeltaLocked(tx.UserID, apply); err != nil {
		return finance.Transaction{}, err
	}
	s.transactions[tx.ID] = tx
	return tx, nil
}

// UpdateTransaction verifies the stored row still matches old, then applies
// the reversal and the new effect and writes the updated row, all under one
// lock. A mismatch means a concurrent mutation won the race.
func (s *Store) UpdateTransaction(_ context.Context, old, updated finance.Transaction, reversal, apply balance.Delta) (finance.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.verifyCurrentLocked(old); err != nil {
		return finance.Transaction{}, err
	}
	if err := s.applyDeltaLocked(old.UserID, reversal); err != nil {
		return finance.Transaction{}, err
	}
	if err := s.applyDeltaLocked(updated.UserID, apply); err != nil {
		// Undo the reversal so the failed operation leaves no trace.
		_ = s.applyDeltaLocked(old.UserID, reversal.Negate())
		return finance.Transaction{}, err
	}
	s.transactions[updated.ID] = updated
	return updated, nil
}

// DeleteTransaction verifies the stored row still matches old, applies the
// reversal and removes the row under one lock.
func (s *Store) DeleteTransaction(_ context.Context, old finance.Transaction, reversal balance.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.verifyCurrentLocked(old); err != nil {
		return err
	}
	if err := s.applyDeltaLocked(old.UserID, reversal); err != nil {
		return err
	}
	delete(s.transactions, old.ID)
	return nil
}

// verifyCurrentLocked checks that the persisted row still carries the
// amount/type/account the caller loaded. Caller must hold the write lock.
func (s *Store) verifyCurrentLocked(old finance.Transaction) error {
	current, ok := s.transactions[old.ID]
	if !ok || current.UserID != old.UserID {
		return errs.ErrNotFound
	}
	curMinor, _ := current.Amount.MinorUnits()
	oldMinor, _ := old.Amount.MinorUnits()
	if curMinor != oldMinor || current.Type != old.Type || current.AccountID != old.AccountID {
		return errs.ErrConsistency
	}
	return nil
}

// applyDeltaLocked increments an account balance by the delta's minor units.
// Caller must hold the write lock.
func (s *Store) applyDeltaLocked(userID uuid.UUID, d balance.Delta) error {
	acc, ok := s.accounts[d.AccountID]
	if !ok || acc.UserID != userID {
		return errs.ErrNotFound
	}
	if !strings.EqualFold(acc.Currency, d.Currency) {
		return errs.ErrConsistency
	}
	minor, ok2 := acc.Balance.MinorUnits()
	if !ok2 {
		return errs.ErrConsistency
	}
	next, err := finance.AmountFromMinor(acc.Currency, minor+d.MinorUnits)
	if err != nil {
		return errs.ErrConsistency
	}
	acc.Balance = next
	s.accounts[d.AccountID] = acc
	return nil
}
