package transaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/service/transaction"
	"github.com/financehero/ledger/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	svc     transaction.Service
	user    finance.User
	account finance.Account
	income  finance.Category
	expense finance.Category
}

func newFixture(t *testing.T, openingMinor int64) *fixture {
	t.Helper()
	store := memory.New()
	user := finance.User{ID: uuid.New(), Email: "ana@example.com", Name: "Ana"}
	store.SeedUser(user)
	acc := seedAccount(t, store, user.ID, "Conta Corrente", openingMinor)
	income := finance.Category{ID: uuid.New(), UserID: user.ID, Name: "Salário", Type: finance.CategoryTypeIncome, Active: true}
	expense := finance.Category{ID: uuid.New(), UserID: user.ID, Name: "Alimentação", Type: finance.CategoryTypeExpense, Active: true}
	store.SeedCategory(income)
	store.SeedCategory(expense)
	return &fixture{
		store:   store,
		svc:     transaction.New(store, store),
		user:    user,
		account: acc,
		income:  income,
		expense: expense,
	}
}

func seedAccount(t *testing.T, store *memory.Store, userID uuid.UUID, name string, minor int64) finance.Account {
	t.Helper()
	bal, err := finance.AmountFromMinor("BRL", minor)
	require.NoError(t, err)
	acc := finance.Account{
		ID: uuid.New(), UserID: userID, Name: name,
		Type: finance.AccountTypeChecking, Currency: "BRL", Balance: bal, Active: true,
	}
	store.SeedAccount(acc)
	return acc
}

func (f *fixture) draft(typ finance.TransactionType, minor int64, catID uuid.UUID) finance.Transaction {
	amt, _ := finance.AmountFromMinor("BRL", minor)
	return finance.Transaction{
		UserID:      f.user.ID,
		Amount:      amt,
		Description: "teste",
		Date:        time.Now().UTC(),
		Type:        typ,
		AccountID:   f.account.ID,
		CategoryID:  catID,
	}
}

func (f *fixture) balanceMinor(t *testing.T, accountID uuid.UUID) int64 {
	t.Helper()
	acc, err := f.store.GetAccount(context.Background(), f.user.ID, accountID)
	require.NoError(t, err)
	minor, ok := acc.Balance.MinorUnits()
	require.True(t, ok)
	return minor
}

func TestCreate_IncomeCreditsBalance(t *testing.T) {
	f := newFixture(t, 100000) // 1000.00
	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeIncome, 50000, f.income.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(150000), f.balanceMinor(t, f.account.ID))
}

func TestCreate_ExpenseDebitsBalance(t *testing.T) {
	f := newFixture(t, 100000)
	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeExpense, 20000, f.expense.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(80000), f.balanceMinor(t, f.account.ID))
}

func TestDelete_RestoresBalance(t *testing.T) {
	f := newFixture(t, 100000)
	tx, err := f.svc.Create(context.Background(), f.draft(finance.TypeIncome, 50000, f.income.ID))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), f.user.ID, tx.ID))
	assert.Equal(t, int64(100000), f.balanceMinor(t, f.account.ID))
}

func TestUpdate_AmountChangeReappliesEffect(t *testing.T) {
	f := newFixture(t, 100000)
	tx, err := f.svc.Create(context.Background(), f.draft(finance.TypeExpense, 20000, f.expense.ID))
	require.NoError(t, err)
	require.Equal(t, int64(80000), f.balanceMinor(t, f.account.ID))

	updated := tx
	updated.Amount, _ = finance.AmountFromMinor("BRL", 35000)
	_, err = f.svc.Update(context.Background(), updated)
	require.NoError(t, err)
	assert.Equal(t, int64(65000), f.balanceMinor(t, f.account.ID))
}

func TestUpdate_AccountReassignmentMovesEffect(t *testing.T) {
	// account A opens at 100.00, account B at 50.00
	f := newFixture(t, 10000)
	accB := seedAccount(t, f.store, f.user.ID, "Poupança", 5000)

	tx, err := f.svc.Create(context.Background(), f.draft(finance.TypeExpense, 3000, f.expense.ID))
	require.NoError(t, err)
	require.Equal(t, int64(7000), f.balanceMinor(t, f.account.ID))

	updated := tx
	updated.AccountID = accB.ID
	_, err = f.svc.Update(context.Background(), updated)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), f.balanceMinor(t, f.account.ID), "old account fully restored")
	assert.Equal(t, int64(2000), f.balanceMinor(t, accB.ID), "new account debited")
}

func TestUpdate_NoOpLeavesBalanceUnchanged(t *testing.T) {
	f := newFixture(t, 100000)
	tx, err := f.svc.Create(context.Background(), f.draft(finance.TypeIncome, 50000, f.income.ID))
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), f.balanceMinor(t, f.account.ID))
}

func TestCreate_RejectsTransfer(t *testing.T) {
	f := newFixture(t, 100000)
	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeTransfer, 1000, f.income.ID))
	assert.ErrorIs(t, err, errs.ErrInvalid)
	assert.Equal(t, int64(100000), f.balanceMinor(t, f.account.ID))
}

func TestCreate_RejectsZeroAmount(t *testing.T) {
	f := newFixture(t, 100000)
	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeIncome, 0, f.income.ID))
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestCreate_ExpenseRequiresExpenseCategory(t *testing.T) {
	f := newFixture(t, 100000)
	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeExpense, 1000, f.income.ID))
	assert.ErrorIs(t, err, errs.ErrInvalid)
	assert.Equal(t, int64(100000), f.balanceMinor(t, f.account.ID), "failed validation must not move balances")
}

func TestCreate_IncomeWithExpenseCategoryAllowed(t *testing.T) {
	// Income carries no symmetric category constraint.
	f := newFixture(t, 100000)
	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeIncome, 1000, f.expense.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(101000), f.balanceMinor(t, f.account.ID))
}

func TestCreate_NonOwnedAccountIsNotFound(t *testing.T) {
	f := newFixture(t, 100000)
	other := finance.User{ID: uuid.New()}
	f.store.SeedUser(other)
	foreign := seedAccount(t, f.store, other.ID, "Alheia", 0)

	draft := f.draft(finance.TypeIncome, 1000, f.income.ID)
	draft.AccountID = foreign.ID
	_, err := f.svc.Create(context.Background(), draft)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreate_InactiveAccountIsNotFound(t *testing.T) {
	f := newFixture(t, 100000)
	inactive := finance.Account{
		ID: uuid.New(), UserID: f.user.ID, Name: "Encerrada",
		Type: finance.AccountTypeChecking, Currency: "BRL", Active: false,
	}
	inactive.Balance, _ = finance.AmountFromMinor("BRL", 0)
	f.store.SeedAccount(inactive)

	draft := f.draft(finance.TypeIncome, 1000, f.income.ID)
	draft.AccountID = inactive.ID
	_, err := f.svc.Create(context.Background(), draft)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreate_NonOwnedCategoryIsNotFound(t *testing.T) {
	f := newFixture(t, 100000)
	other := finance.User{ID: uuid.New()}
	f.store.SeedUser(other)
	foreignCat := finance.Category{ID: uuid.New(), UserID: other.ID, Name: "Outra", Type: finance.CategoryTypeIncome, Active: true}
	f.store.SeedCategory(foreignCat)

	_, err := f.svc.Create(context.Background(), f.draft(finance.TypeIncome, 1000, foreignCat.ID))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGet_MissingTransaction(t *testing.T) {
	f := newFixture(t, 100000)
	_, err := f.svc.Get(context.Background(), f.user.ID, uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	f := newFixture(t, 1000000)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, f.draft(finance.TypeIncome, 1000, f.income.ID))
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(ctx, f.draft(finance.TypeExpense, 500, f.expense.ID))
		require.NoError(t, err)
	}

	items, total, err := f.svc.List(ctx, f.user.ID, transaction.Filter{Type: finance.TypeIncome})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	items, total, err = f.svc.List(ctx, f.user.ID, transaction.Filter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 2)

	items, total, err = f.svc.List(ctx, f.user.ID, transaction.Filter{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 1)
}
