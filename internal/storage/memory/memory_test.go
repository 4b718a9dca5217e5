package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/financehero/ledger/internal/balance"
	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/service/transaction"
	"github.com/financehero/ledger/internal/storage/memory"
)

func seed(t *testing.T, openingMinor int64) (*memory.Store, finance.User, finance.Account, finance.Category) {
	t.Helper()
	store := memory.New()
	user := finance.User{ID: uuid.New(), Email: "demo@financehero.com", Name: "Demo"}
	store.SeedUser(user)
	bal, err := finance.AmountFromMinor("BRL", openingMinor)
	require.NoError(t, err)
	acc := finance.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Conta Corrente",
		Type: finance.AccountTypeChecking, Currency: "BRL", Balance: bal, Active: true,
	}
	store.SeedAccount(acc)
	cat := finance.Category{ID: uuid.New(), UserID: user.ID, Name: "Alimentação", Type: finance.CategoryTypeExpense, Active: true}
	store.SeedCategory(cat)
	return store, user, acc, cat
}

func mkTx(t *testing.T, user finance.User, acc finance.Account, cat finance.Category, typ finance.TransactionType, minor int64) finance.Transaction {
	t.Helper()
	amt, err := finance.AmountFromMinor("BRL", minor)
	require.NoError(t, err)
	now := time.Now().UTC()
	return finance.Transaction{
		ID: uuid.New(), UserID: user.ID, Amount: amt, Description: "t",
		Date: now, Type: typ, AccountID: acc.ID, CategoryID: cat.ID,
		CreatedAt: now, UpdatedAt: now,
	}
}

func balanceMinor(t *testing.T, store *memory.Store, userID, accountID uuid.UUID) int64 {
	t.Helper()
	acc, err := store.GetAccount(context.Background(), userID, accountID)
	require.NoError(t, err)
	minor, ok := acc.Balance.MinorUnits()
	require.True(t, ok)
	return minor
}

func TestCreateTransaction_ConcurrentExpenses(t *testing.T) {
	const n = 50
	store, user, acc, cat := seed(t, 100000) // 1000.00

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			tx := mkTx(t, user, acc, cat, finance.TypeExpense, 100)
			d, err := balance.Effect(tx)
			if err != nil {
				return err
			}
			_, err = store.CreateTransaction(context.Background(), tx, d)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(100000-n*100), balanceMinor(t, store, user.ID, acc.ID))
	_, total, err := store.ListTransactions(context.Background(), user.ID, transaction.Filter{Page: 1, Limit: n})
	require.NoError(t, err)
	assert.Equal(t, n, total)
}

func TestUpdateTransaction_StaleOldRowFailsConsistency(t *testing.T) {
	store, user, acc, cat := seed(t, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeExpense, 2000)
	d, err := balance.Effect(tx)
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, tx, d)
	require.NoError(t, err)

	// A concurrent writer already changed the row.
	current := tx
	current.Amount, _ = finance.AmountFromMinor("BRL", 9000)
	reversal, _ := balance.Reverse(tx)
	apply, _ := balance.Effect(current)
	_, err = store.UpdateTransaction(ctx, tx, current, reversal, apply)
	require.NoError(t, err)

	// The first writer still holds the original snapshot; its update must fail.
	updated := tx
	updated.Amount, _ = finance.AmountFromMinor("BRL", 1000)
	reversal, _ = balance.Reverse(tx)
	apply, _ = balance.Effect(updated)
	_, err = store.UpdateTransaction(ctx, tx, updated, reversal, apply)
	assert.ErrorIs(t, err, errs.ErrConsistency)

	// Balance still reflects only the successful update.
	assert.Equal(t, int64(91000), balanceMinor(t, store, user.ID, acc.ID))
}

func TestDeleteTransaction_StaleOldRowFailsConsistency(t *testing.T) {
	store, user, acc, cat := seed(t, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeIncome, 5000)
	d, err := balance.Effect(tx)
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, tx, d)
	require.NoError(t, err)

	stale := tx
	stale.Amount, _ = finance.AmountFromMinor("BRL", 4000)
	reversal, _ := balance.Reverse(stale)
	err = store.DeleteTransaction(ctx, stale, reversal)
	assert.ErrorIs(t, err, errs.ErrConsistency)
	assert.Equal(t, int64(105000), balanceMinor(t, store, user.ID, acc.ID))
}

func TestUpdateTransaction_FailedApplyRollsBackReversal(t *testing.T) {
	store, user, acc, cat := seed(t, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeIncome, 5000)
	d, err := balance.Effect(tx)
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, tx, d)
	require.NoError(t, err)

	// Apply targets an account that does not exist; the reversal must be undone.
	updated := tx
	updated.AccountID = uuid.New()
	reversal, _ := balance.Reverse(tx)
	apply, _ := balance.Effect(updated)
	_, err = store.UpdateTransaction(ctx, tx, updated, reversal, apply)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, int64(105000), balanceMinor(t, store, user.ID, acc.ID))
}

func TestDeleteAccount_BlockedWhileReferenced(t *testing.T) {
	store, user, acc, cat := seed(t, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeExpense, 100)
	d, err := balance.Effect(tx)
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, tx, d)
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteAccount(ctx, user.ID, acc.ID), errs.ErrConflict)

	reversal, _ := balance.Reverse(tx)
	require.NoError(t, store.DeleteTransaction(ctx, tx, reversal))
	assert.NoError(t, store.DeleteAccount(ctx, user.ID, acc.ID))
}

func TestDeleteCategory_BlockedWhileReferenced(t *testing.T) {
	store, user, acc, cat := seed(t, 100000)
	ctx := context.Background()

	tx := mkTx(t, user, acc, cat, finance.TypeExpense, 100)
	d, err := balance.Effect(tx)
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, tx, d)
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteCategory(ctx, user.ID, cat.ID), errs.ErrConflict)
}

func TestUpdateAccount_PreservesStoredBalance(t *testing.T) {
	store, _, acc, _ := seed(t, 100000)
	ctx := context.Background()

	tampered := acc
	tampered.Name = "Renomeada"
	tampered.Balance, _ = finance.AmountFromMinor("BRL", 999999)
	updated, err := store.UpdateAccount(ctx, tampered)
	require.NoError(t, err)

	minor, _ := updated.Balance.MinorUnits()
	assert.Equal(t, int64(100000), minor)
	assert.Equal(t, "Renomeada", updated.Name)
}

func TestGetAccount_WrongOwnerIsNotFound(t *testing.T) {
	store, _, acc, _ := seed(t, 100000)
	_, err := store.GetAccount(context.Background(), uuid.New(), acc.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
