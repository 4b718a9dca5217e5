package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/balance"
	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func seedFixture(t *testing.T, s *Store, openingMinor int64) (finance.User, finance.Account, finance.Category) {
	t.Helper()
	ctx := context.Background()
	user := finance.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "Teste"}
	if _, err := s.pool.Exec(ctx, `insert into users (id, email, name) values ($1,$2,$3)`, user.ID, user.Email, user.Name); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	bal, err := finance.AmountFromMinor("BRL", openingMinor)
	if err != nil {
		t.Fatalf("seed balance: %v", err)
	}
	now := time.Now().UTC()
	acc := finance.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Conta " + uuid.NewString()[:8],
		Type: finance.AccountTypeChecking, Currency: "BRL", Balance: bal,
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	if _, err := s.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	cat := finance.Category{
		ID: uuid.New(), UserID: user.ID, Name: "Categoria " + uuid.NewString()[:8],
		Type: finance.CategoryTypeExpense, Active: true, CreatedAt: now,
	}
	if _, err := s.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return user, acc, cat
}

func mkTx(t *testing.T, user finance.User, acc finance.Account, cat finance.Category, typ finance.TransactionType, minor int64) finance.Transaction {
	t.Helper()
	amt, err := finance.AmountFromMinor("BRL", minor)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	now := time.Now().UTC()
	return finance.Transaction{
		ID: uuid.New(), UserID: user.ID, Amount: amt, Description: "t",
		Date: now, Type: typ, AccountID: acc.ID, CategoryID: cat.ID,
		CreatedAt: now, UpdatedAt: now,
	}
}

func balanceMinor(t *testing.T, s *Store, userID, accountID uuid.UUID) int64 {
	t.Helper()
	acc, err := s.GetAccount(context.Background(), userID, accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	minor, ok := acc.Balance.MinorUnits()
	if !ok {
		t.Fatalf("minor units not representable")
	}
	return minor
}

func TestTransactionLifecycle(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	user, acc, cat := seedFixture(t, s, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeIncome, 50000)
	d, err := balance.Effect(tx)
	if err != nil {
		t.Fatalf("effect: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, tx, d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := balanceMinor(t, s, user.ID, acc.ID); got != 150000 {
		t.Errorf("balance after create = %d, want 150000", got)
	}

	updated := tx
	updated.Amount, _ = finance.AmountFromMinor("BRL", 20000)
	updated.UpdatedAt = time.Now().UTC()
	reversal, _ := balance.Reverse(tx)
	apply, _ := balance.Effect(updated)
	if _, err := s.UpdateTransaction(ctx, tx, updated, reversal, apply); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := balanceMinor(t, s, user.ID, acc.ID); got != 120000 {
		t.Errorf("balance after update = %d, want 120000", got)
	}

	reversal, _ = balance.Reverse(updated)
	if err := s.DeleteTransaction(ctx, updated, reversal); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceMinor(t, s, user.ID, acc.ID); got != 100000 {
		t.Errorf("balance after delete = %d, want 100000", got)
	}
}

func TestUpdateTransaction_StaleOldRow(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	user, acc, cat := seedFixture(t, s, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeExpense, 3000)
	d, err := balance.Effect(tx)
	if err != nil {
		t.Fatalf("effect: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, tx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	stale := tx
	stale.Amount, _ = finance.AmountFromMinor("BRL", 2000)
	reversal, _ := balance.Reverse(stale)
	apply, _ := balance.Effect(stale)
	if _, err := s.UpdateTransaction(ctx, stale, stale, reversal, apply); err == nil || !errors.Is(err, errs.ErrConsistency) {
		t.Fatalf("update with stale snapshot: err = %v, want ErrConsistency", err)
	}
	if got := balanceMinor(t, s, user.ID, acc.ID); got != 97000 {
		t.Errorf("balance = %d, want 97000", got)
	}
}

func TestDeleteAccount_ForeignKeyGuard(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	user, acc, cat := seedFixture(t, s, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeExpense, 100)
	d, err := balance.Effect(tx)
	if err != nil {
		t.Fatalf("effect: %v", err)
	}
	if _, err := s.CreateTransaction(ctx, tx, d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteAccount(ctx, user.ID, acc.ID); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("delete referenced account: err = %v, want ErrConflict", err)
	}
}

func TestGetTransaction_WrongOwnerIsNotFound(t *testing.T) {
	s := mustOpen(t, getTestDSN(t))
	user, acc, cat := seedFixture(t, s, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeIncome, 100)
	d, _ := balance.Effect(tx)
	if _, err := s.CreateTransaction(ctx, tx, d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.GetTransaction(ctx, uuid.New(), tx.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
