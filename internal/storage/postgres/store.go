// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// Every lifecycle write runs inside an explicit transaction: the transaction
// row and its balance deltas commit together or not at all. Balances are
// applied with relative UPDATEs so concurrent operations on the same account
// serialize on the row lock instead of losing updates.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/financehero/ledger/internal/balance"
	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/service/transaction"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// mapPgError converts constraint violations into sentinel errors.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", errs.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", errs.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

// --- Account reads ---

const accountCols = `id, user_id, name, type, currency, balance_minor, description, active, created_at, updated_at`

func scanAccount(row pgx.Row) (finance.Account, error) {
	var a finance.Account
	var balMinor int64
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &balMinor, &a.Description, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return finance.Account{}, err
	}
	bal, err := finance.AmountFromMinor(a.Currency, balMinor)
	if err != nil {
		return finance.Account{}, err
	}
	a.Balance = bal
	return a, nil
}

// GetAccount fetches a single account by id for a user.
func (s *Store) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (finance.Account, error) {
	row := s.pool.QueryRow(ctx, `
		select `+accountCols+`
		from accounts
		where id = $1 and user_id = $2
	`, accountID, userID)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.Account{}, err
	}
	return a, nil
}

// ListAccounts returns accounts for a user ordered by name.
func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]finance.Account, error) {
	q := `select ` + accountCols + ` from accounts where user_id = $1`
	if !includeInactive {
		q += ` and active`
	}
	q += ` order by name asc`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountTransactionsByAccount returns how many transactions reference the account.
func (s *Store) CountTransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		select count(*) from transactions where user_id = $1 and account_id = $2
	`, userID, accountID).Scan(&n)
	return n, err
}

// --- Account writes ---

// CreateAccount inserts an account row with its opening balance.
func (s *Store) CreateAccount(ctx context.Context, a finance.Account) (finance.Account, error) {
	minor, _ := a.Balance.MinorUnits()
	_, err := s.pool.Exec(ctx, `
		insert into accounts (id, user_id, name, type, currency, balance_minor, description, active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, a.ID, a.UserID, a.Name, a.Type, strings.ToUpper(a.Currency), minor, a.Description, a.Active, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return finance.Account{}, mapPgError(err)
	}
	return a, nil
}

// UpdateAccount updates descriptive fields. balance_minor is deliberately not
// in the SET list: balances move only through lifecycle deltas.
func (s *Store) UpdateAccount(ctx context.Context, a finance.Account) (finance.Account, error) {
	ct, err := s.pool.Exec(ctx, `
		update accounts
		set name=$1, type=$2, description=$3, active=$4, updated_at=$5
		where id=$6 and user_id=$7
	`, a.Name, a.Type, a.Description, a.Active, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return finance.Account{}, mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return finance.Account{}, errs.ErrNotFound
	}
	return s.GetAccount(ctx, a.UserID, a.ID)
}

// DeleteAccount removes an account; the FK from transactions turns deletes of
// referenced accounts into errs.ErrConflict.
func (s *Store) DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		delete from accounts where id=$1 and user_id=$2
	`, accountID, userID)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Category reads/writes ---

const categoryCols = `id, user_id, name, type, description, color, icon, active, created_at`

func scanCategory(row pgx.Row) (finance.Category, error) {
	var c finance.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Description, &c.Color, &c.Icon, &c.Active, &c.CreatedAt)
	return c, err
}

// GetCategory fetches a single category by id for a user.
func (s *Store) GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (finance.Category, error) {
	row := s.pool.QueryRow(ctx, `
		select `+categoryCols+`
		from categories
		where id = $1 and user_id = $2
	`, categoryID, userID)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.Category{}, errs.ErrNotFound
	}
	return c, err
}

// ListCategories returns categories for a user, optionally filtered by type.
func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID, typ finance.CategoryType, includeInactive bool) ([]finance.Category, error) {
	q := `select ` + categoryCols + ` from categories where user_id = $1`
	args := []any{userID}
	if typ != "" {
		q += ` and type = $2`
		args = append(args, typ)
	}
	if !includeInactive {
		q += ` and active`
	}
	q += ` order by name asc`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountTransactionsByCategory returns how many transactions reference the category.
func (s *Store) CountTransactionsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		select count(*) from transactions where user_id = $1 and category_id = $2
	`, userID, categoryID).Scan(&n)
	return n, err
}

// CreateCategory inserts a category row.
func (s *Store) CreateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	_, err := s.pool.Exec(ctx, `
		insert into categories (id, user_id, name, type, description, color, icon, active, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, c.ID, c.UserID, c.Name, c.Type, c.Description, c.Color, c.Icon, c.Active, c.CreatedAt)
	if err != nil {
		return finance.Category{}, mapPgError(err)
	}
	return c, nil
}

// UpdateCategory updates mutable category fields.
func (s *Store) UpdateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	ct, err := s.pool.Exec(ctx, `
		update categories
		set name=$1, type=$2, description=$3, color=$4, icon=$5, active=$6
		where id=$7 and user_id=$8
	`, c.Name, c.Type, c.Description, c.Color, c.Icon, c.Active, c.ID, c.UserID)
	if err != nil {
		return finance.Category{}, mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return finance.Category{}, errs.ErrNotFound
	}
	return c, nil
}

// DeleteCategory removes a category; FK violations surface as errs.ErrConflict.
func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		delete from categories where id=$1 and user_id=$2
	`, categoryID, userID)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Transaction reads ---

const txCols = `id, user_id, amount_minor, currency, description, date, type, account_id, category_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (finance.Transaction, error) {
	var t finance.Transaction
	var minor int64
	var currency string
	if err := row.Scan(&t.ID, &t.UserID, &minor, &currency, &t.Description, &t.Date, &t.Type, &t.AccountID, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return finance.Transaction{}, err
	}
	amt, err := finance.AmountFromMinor(currency, minor)
	if err != nil {
		return finance.Transaction{}, err
	}
	t.Amount = amt
	return t, nil
}

// GetTransaction fetches a single transaction by id for a user.
func (s *Store) GetTransaction(ctx context.Context, userID, txID uuid.UUID) (finance.Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		select `+txCols+`
		from transactions
		where id = $1 and user_id = $2
	`, txID, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.Transaction{}, errs.ErrNotFound
	}
	return t, err
}

// ListTransactions returns a page of transactions ordered by date descending,
// plus the total match count.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]finance.Transaction, int, error) {
	where := `where user_id = $1`
	args := []any{userID}
	if f.Type != "" {
		args = append(args, f.Type)
		where += fmt.Sprintf(` and type = $%d`, len(args))
	}
	if f.AccountID != uuid.Nil {
		args = append(args, f.AccountID)
		where += fmt.Sprintf(` and account_id = $%d`, len(args))
	}
	if f.CategoryID != uuid.Nil {
		args = append(args, f.CategoryID)
		where += fmt.Sprintf(` and category_id = $%d`, len(args))
	}
	var total int
	if err := s.pool.QueryRow(ctx, `select count(*) from transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		select `+txCols+`
		from transactions %s
		order by date desc, id desc
		limit $%d offset $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]finance.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// --- Transaction writes (atomic units) ---

// CreateTransaction inserts the row and applies its balance delta in one
// database transaction.
func (s *Store) CreateTransaction(ctx context.Context, t finance.Transaction, apply balance.Delta) (finance.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return finance.Transaction{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	minor, _ := t.Amount.MinorUnits()
	if _, err := tx.Exec(ctx, `
		insert into transactions (`+txCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, t.ID, t.UserID, minor, t.Amount.Curr().Code(), t.Description, t.Date, t.Type, t.AccountID, t.CategoryID, t.CreatedAt, t.UpdatedAt); err != nil {
		return finance.Transaction{}, mapPgError(err)
	}
	if err := applyDelta(ctx, tx, t.UserID, apply); err != nil {
		return finance.Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return finance.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction locks the old row, verifies it still matches what the
// coordinator loaded, writes the new fields and applies both deltas, all in
// one database transaction.
func (s *Store) UpdateTransaction(ctx context.Context, old, updated finance.Transaction, reversal, apply balance.Delta) (finance.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return finance.Transaction{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockAndVerify(ctx, tx, old); err != nil {
		return finance.Transaction{}, err
	}
	minor, _ := updated.Amount.MinorUnits()
	if _, err := tx.Exec(ctx, `
		update transactions
		set amount_minor=$1, currency=$2, description=$3, date=$4, type=$5, account_id=$6, category_id=$7, updated_at=$8
		where id=$9 and user_id=$10
	`, minor, updated.Amount.Curr().Code(), updated.Description, updated.Date, updated.Type, updated.AccountID, updated.CategoryID, updated.UpdatedAt, updated.ID, updated.UserID); err != nil {
		return finance.Transaction{}, mapPgError(err)
	}
	if err := applyDeltas(ctx, tx, updated.UserID, reversal, apply); err != nil {
		return finance.Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return finance.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction locks and verifies the row, applies the reversal and
// deletes, all in one database transaction.
func (s *Store) DeleteTransaction(ctx context.Context, old finance.Transaction, reversal balance.Delta) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockAndVerify(ctx, tx, old); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		delete from transactions where id=$1 and user_id=$2
	`, old.ID, old.UserID); err != nil {
		return mapPgError(err)
	}
	if err := applyDelta(ctx, tx, old.UserID, reversal); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockAndVerify takes a row lock on the transaction and confirms the fields
// that feed the reversal are unchanged since the coordinator loaded them.
func lockAndVerify(ctx context.Context, tx pgx.Tx, old finance.Transaction) error {
	var minor int64
	var typ finance.TransactionType
	var accountID uuid.UUID
	err := tx.QueryRow(ctx, `
		select amount_minor, type, account_id
		from transactions
		where id = $1 and user_id = $2
		for update
	`, old.ID, old.UserID).Scan(&minor, &typ, &accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return err
	}
	oldMinor, _ := old.Amount.MinorUnits()
	if minor != oldMinor || typ != old.Type || accountID != old.AccountID {
		return errs.ErrConsistency
	}
	return nil
}

// applyDeltas applies a reversal and an application. Deltas on the same
// account collapse into one UPDATE; deltas on different accounts are applied
// in a deterministic order so concurrent updates cannot deadlock.
func applyDeltas(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reversal, apply balance.Delta) error {
	if reversal.AccountID == apply.AccountID {
		combined := balance.Delta{
			AccountID:  apply.AccountID,
			MinorUnits: reversal.MinorUnits + apply.MinorUnits,
			Currency:   apply.Currency,
		}
		return applyDelta(ctx, tx, userID, combined)
	}
	first, second := reversal, apply
	if first.AccountID.String() > second.AccountID.String() {
		first, second = second, first
	}
	if err := applyDelta(ctx, tx, userID, first); err != nil {
		return err
	}
	return applyDelta(ctx, tx, userID, second)
}

// applyDelta performs the atomic relative balance update. RowsAffected zero
// means the account vanished mid-operation; the enclosing transaction rolls
// back, so no partial effect survives.
func applyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, d balance.Delta) error {
	ct, err := tx.Exec(ctx, `
		update accounts
		set balance_minor = balance_minor + $1, updated_at = now()
		where id = $2 and user_id = $3 and upper(currency) = upper($4)
	`, d.MinorUnits, d.AccountID, userID, d.Currency)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrConsistency
	}
	return nil
}
