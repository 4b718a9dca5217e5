package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/finance"
)

// SeedDev inserts a demo user with the default categories and accounts for
// quick local testing. Fresh UUIDs are generated on every run.
func (s *Store) SeedDev(ctx context.Context) (finance.User, []finance.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return finance.User{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	user := finance.User{ID: uuid.New(), Email: "demo@financehero.com", Name: "Usuário Demo"}
	if _, err := tx.Exec(ctx, `insert into users (id, email, name) values ($1,$2,$3)`, user.ID, user.Email, user.Name); err != nil {
		return finance.User{}, nil, err
	}

	for _, c := range finance.DefaultCategories(user.ID) {
		if _, err := tx.Exec(ctx, `
			insert into categories (id, user_id, name, type, description, color, icon, active, created_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, c.ID, c.UserID, c.Name, c.Type, c.Description, c.Color, c.Icon, c.Active, now); err != nil {
			return finance.User{}, nil, err
		}
	}

	accs := finance.DefaultAccounts(user.ID)
	for _, a := range accs {
		minor, _ := a.Balance.MinorUnits()
		if _, err := tx.Exec(ctx, `
			insert into accounts (id, user_id, name, type, currency, balance_minor, description, active, created_at, updated_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, a.ID, a.UserID, a.Name, a.Type, a.Currency, minor, a.Description, a.Active, now, now); err != nil {
			return finance.User{}, nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return finance.User{}, nil, err
	}
	return user, accs, nil
}
