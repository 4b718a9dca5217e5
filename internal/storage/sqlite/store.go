// Package sqlite provides an embedded storage backend over modernc.org/sqlite.
// It implements the same atomic-unit contract as the postgres store: every
// lifecycle write runs in a single database transaction, so the row mutation
// and its balance deltas commit together or not at all.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/financehero/ledger/internal/balance"
	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/service/transaction"
)

// Store wraps a sql.DB connection to a sqlite database file.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the sqlite database at path and applies
// the embedded migrations. A single writer connection sidesteps SQLITE_BUSY
// contention; sqlite serializes writers anyway.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Ready pings the database to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.db.PingContext(ctx) }

// SeedDev inserts a demo user with the default categories and accounts.
func (s *Store) SeedDev(ctx context.Context) (finance.User, []finance.Account, error) {
	user := finance.User{ID: uuid.New(), Email: "demo@financehero.com", Name: "Usuário Demo"}
	if _, err := s.db.ExecContext(ctx, `insert into users (id, email, name) values (?,?,?)`,
		user.ID.String(), user.Email, user.Name); err != nil {
		return finance.User{}, nil, err
	}
	now := time.Now().UTC()
	for _, c := range finance.DefaultCategories(user.ID) {
		c.CreatedAt = now
		if _, err := s.CreateCategory(ctx, c); err != nil {
			return finance.User{}, nil, err
		}
	}
	accs := finance.DefaultAccounts(user.ID)
	for i := range accs {
		accs[i].CreatedAt = now
		accs[i].UpdatedAt = now
		if _, err := s.CreateAccount(ctx, accs[i]); err != nil {
			return finance.User{}, nil, err
		}
	}
	return user, accs, nil
}

// SeedUser inserts a bare user row (tests).
func (s *Store) SeedUser(ctx context.Context, u finance.User) error {
	_, err := s.db.ExecContext(ctx, `insert into users (id, email, name) values (?,?,?)`,
		u.ID.String(), u.Email, u.Name)
	return err
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func mapSqliteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %s", errs.ErrConflict, msg)
	}
	return err
}

// --- Account reads ---

const accountCols = `id, user_id, name, type, currency, balance_minor, description, active, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanAccount(row rowScanner) (finance.Account, error) {
	var a finance.Account
	var id, userID, createdAt, updatedAt string
	var balMinor int64
	if err := row.Scan(&id, &userID, &a.Name, &a.Type, &a.Currency, &balMinor, &a.Description, &a.Active, &createdAt, &updatedAt); err != nil {
		return finance.Account{}, err
	}
	a.ID, _ = uuid.Parse(id)
	a.UserID, _ = uuid.Parse(userID)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	bal, err := finance.AmountFromMinor(a.Currency, balMinor)
	if err != nil {
		return finance.Account{}, err
	}
	a.Balance = bal
	return a, nil
}

// GetAccount fetches a single account by id for a user.
func (s *Store) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (finance.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+accountCols+` from accounts where id = ? and user_id = ?
	`, accountID.String(), userID.String())
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Account{}, errs.ErrNotFound
	}
	return a, err
}

// ListAccounts returns accounts for a user ordered by name.
func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]finance.Account, error) {
	q := `select ` + accountCols + ` from accounts where user_id = ?`
	if !includeInactive {
		q += ` and active`
	}
	q += ` order by name asc`
	rows, err := s.db.QueryContext(ctx, q, userID.String())
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
	err := s.db.QueryRowContext(ctx, `
		select count(*) from transactions where user_id = ? and account_id = ?
	`, userID.String(), accountID.String()).Scan(&n)
	return n, err
}

// --- Account writes ---

// CreateAccount inserts an account row with its opening balance.
func (s *Store) CreateAccount(ctx context.Context, a finance.Account) (finance.Account, error) {
	minor, _ := a.Balance.MinorUnits()
	_, err := s.db.ExecContext(ctx, `
		insert into accounts (`+accountCols+`) values (?,?,?,?,?,?,?,?,?,?)
	`, a.ID.String(), a.UserID.String(), a.Name, string(a.Type), strings.ToUpper(a.Currency), minor,
		a.Description, a.Active, fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt))
	if err != nil {
		return finance.Account{}, mapSqliteError(err)
	}
	return a, nil
}

// UpdateAccount updates descriptive fields; balance_minor is untouched.
func (s *Store) UpdateAccount(ctx context.Context, a finance.Account) (finance.Account, error) {
	res, err := s.db.ExecContext(ctx, `
		update accounts set name=?, type=?, description=?, active=?, updated_at=?
		where id=? and user_id=?
	`, a.Name, string(a.Type), a.Description, a.Active, fmtTime(a.UpdatedAt), a.ID.String(), a.UserID.String())
	if err != nil {
		return finance.Account{}, mapSqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return finance.Account{}, errs.ErrNotFound
	}
	return s.GetAccount(ctx, a.UserID, a.ID)
}

// DeleteAccount removes an account; the FK from transactions blocks deletes
// of referenced accounts.
func (s *Store) DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		delete from accounts where id=? and user_id=?
	`, accountID.String(), userID.String())
	if err != nil {
		return mapSqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Category reads/writes ---

const categoryCols = `id, user_id, name, type, description, color, icon, active, created_at`

func scanCategory(row rowScanner) (finance.Category, error) {
	var c finance.Category
	var id, userID, createdAt string
	if err := row.Scan(&id, &userID, &c.Name, &c.Type, &c.Description, &c.Color, &c.Icon, &c.Active, &createdAt); err != nil {
		return finance.Category{}, err
	}
	c.ID, _ = uuid.Parse(id)
	c.UserID, _ = uuid.Parse(userID)
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

// GetCategory fetches a single category by id for a user.
func (s *Store) GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (finance.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+categoryCols+` from categories where id = ? and user_id = ?
	`, categoryID.String(), userID.String())
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Category{}, errs.ErrNotFound
	}
	return c, err
}

// ListCategories returns categories for a user, optionally filtered by type.
func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID, typ finance.CategoryType, includeInactive bool) ([]finance.Category, error) {
	q := `select ` + categoryCols + ` from categories where user_id = ?`
	args := []any{userID.String()}
	if typ != "" {
		q += ` and type = ?`
		args = append(args, string(typ))
	}
	if !includeInactive {
		q += ` and active`
	}
	q += ` order by name asc`
	rows, err := s.db.QueryContext(ctx, q, args...)
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
	err := s.db.QueryRowContext(ctx, `
		select count(*) from transactions where user_id = ? and category_id = ?
	`, userID.String(), categoryID.String()).Scan(&n)
	return n, err
}

// CreateCategory inserts a category row.
func (s *Store) CreateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into categories (`+categoryCols+`) values (?,?,?,?,?,?,?,?,?)
	`, c.ID.String(), c.UserID.String(), c.Name, string(c.Type), c.Description, c.Color, c.Icon, c.Active, fmtTime(c.CreatedAt))
	if err != nil {
		return finance.Category{}, mapSqliteError(err)
	}
	return c, nil
}

// UpdateCategory updates mutable category fields.
func (s *Store) UpdateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	res, err := s.db.ExecContext(ctx, `
		update categories set name=?, type=?, description=?, color=?, icon=?, active=?
		where id=? and user_id=?
	`, c.Name, string(c.Type), c.Description, c.Color, c.Icon, c.Active, c.ID.String(), c.UserID.String())
	if err != nil {
		return finance.Category{}, mapSqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return finance.Category{}, errs.ErrNotFound
	}
	return c, nil
}

// DeleteCategory removes a category; FK violations surface as errs.ErrConflict.
func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		delete from categories where id=? and user_id=?
	`, categoryID.String(), userID.String())
	if err != nil {
		return mapSqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Transaction reads ---

const txCols = `id, user_id, amount_minor, currency, description, date, type, account_id, category_id, created_at, updated_at`

func scanTransaction(row rowScanner) (finance.Transaction, error) {
	var t finance.Transaction
	var id, userID, accountID, categoryID, date, createdAt, updatedAt, currency string
	var minor int64
	if err := row.Scan(&id, &userID, &minor, &currency, &t.Description, &date, &t.Type, &accountID, &categoryID, &createdAt, &updatedAt); err != nil {
		return finance.Transaction{}, err
	}
	t.ID, _ = uuid.Parse(id)
	t.UserID, _ = uuid.Parse(userID)
	t.AccountID, _ = uuid.Parse(accountID)
	t.CategoryID, _ = uuid.Parse(categoryID)
	t.Date = parseTime(date)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	amt, err := finance.AmountFromMinor(currency, minor)
	if err != nil {
		return finance.Transaction{}, err
	}
	t.Amount = amt
	return t, nil
}

// GetTransaction fetches a single transaction by id for a user.
func (s *Store) GetTransaction(ctx context.Context, userID, txID uuid.UUID) (finance.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+txCols+` from transactions where id = ? and user_id = ?
	`, txID.String(), userID.String())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Transaction{}, errs.ErrNotFound
	}
	return t, err
}

// ListTransactions returns a page of transactions ordered by date descending,
// plus the total match count.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]finance.Transaction, int, error) {
	where := `where user_id = ?`
	args := []any{userID.String()}
	if f.Type != "" {
		where += ` and type = ?`
		args = append(args, string(f.Type))
	}
	if f.AccountID != uuid.Nil {
		where += ` and account_id = ?`
		args = append(args, f.AccountID.String())
	}
	if f.CategoryID != uuid.Nil {
		where += ` and category_id = ?`
		args = append(args, f.CategoryID.String())
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.db.QueryContext(ctx, `
		select `+txCols+` from transactions `+where+`
		order by date desc, id desc
		limit ? offset ?
	`, args...)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return finance.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	minor, _ := t.Amount.MinorUnits()
	if _, err := tx.ExecContext(ctx, `
		insert into transactions (`+txCols+`) values (?,?,?,?,?,?,?,?,?,?,?)
	`, t.ID.String(), t.UserID.String(), minor, t.Amount.Curr().Code(), t.Description, fmtTime(t.Date),
		string(t.Type), t.AccountID.String(), t.CategoryID.String(), fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt)); err != nil {
		return finance.Transaction{}, mapSqliteError(err)
	}
	if err := applyDelta(ctx, tx, t.UserID, apply); err != nil {
		return finance.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return finance.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction verifies the stored row still matches old, writes the new
// fields and applies both deltas in one database transaction.
func (s *Store) UpdateTransaction(ctx context.Context, old, updated finance.Transaction, reversal, apply balance.Delta) (finance.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return finance.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := verifyCurrent(ctx, tx, old); err != nil {
		return finance.Transaction{}, err
	}
	minor, _ := updated.Amount.MinorUnits()
	if _, err := tx.ExecContext(ctx, `
		update transactions
		set amount_minor=?, currency=?, description=?, date=?, type=?, account_id=?, category_id=?, updated_at=?
		where id=? and user_id=?
	`, minor, updated.Amount.Curr().Code(), updated.Description, fmtTime(updated.Date), string(updated.Type),
		updated.AccountID.String(), updated.CategoryID.String(), fmtTime(updated.UpdatedAt),
		updated.ID.String(), updated.UserID.String()); err != nil {
		return finance.Transaction{}, mapSqliteError(err)
	}
	if reversal.AccountID == apply.AccountID {
		combined := balance.Delta{AccountID: apply.AccountID, MinorUnits: reversal.MinorUnits + apply.MinorUnits, Currency: apply.Currency}
		if err := applyDelta(ctx, tx, updated.UserID, combined); err != nil {
			return finance.Transaction{}, err
		}
	} else {
		if err := applyDelta(ctx, tx, updated.UserID, reversal); err != nil {
			return finance.Transaction{}, err
		}
		if err := applyDelta(ctx, tx, updated.UserID, apply); err != nil {
			return finance.Transaction{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return finance.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction verifies the row, applies the reversal and deletes it in
// one database transaction.
func (s *Store) DeleteTransaction(ctx context.Context, old finance.Transaction, reversal balance.Delta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := verifyCurrent(ctx, tx, old); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		delete from transactions where id=? and user_id=?
	`, old.ID.String(), old.UserID.String()); err != nil {
		return mapSqliteError(err)
	}
	if err := applyDelta(ctx, tx, old.UserID, reversal); err != nil {
		return err
	}
	return tx.Commit()
}

// verifyCurrent confirms the fields that feed the reversal are unchanged
// since the coordinator loaded them. Sqlite serializes writers, so the check
// inside the transaction is race-free.
func verifyCurrent(ctx context.Context, tx *sql.Tx, old finance.Transaction) error {
	var minor int64
	var typ, accountID string
	err := tx.QueryRowContext(ctx, `
		select amount_minor, type, account_id from transactions where id = ? and user_id = ?
	`, old.ID.String(), old.UserID.String()).Scan(&minor, &typ, &accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return err
	}
	oldMinor, _ := old.Amount.MinorUnits()
	if minor != oldMinor || finance.TransactionType(typ) != old.Type || accountID != old.AccountID.String() {
		return errs.ErrConsistency
	}
	return nil
}

// applyDelta performs the relative balance update inside tx.
func applyDelta(ctx context.Context, tx *sql.Tx, userID uuid.UUID, d balance.Delta) error {
	res, err := tx.ExecContext(ctx, `
		update accounts
		set balance_minor = balance_minor + ?, updated_at = ?
		where id = ? and user_id = ? and upper(currency) = upper(?)
	`, d.MinorUnits, fmtTime(time.Now()), d.AccountID.String(), userID.String(), d.Currency)
	if err != nil {
		return mapSqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrConsistency
	}
	return nil
}
