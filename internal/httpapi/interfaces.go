package httpapi

import (
	"context"

	"github.com/financehero/ledger/internal/service/account"
	"github.com/financehero/ledger/internal/service/category"
	"github.com/financehero/ledger/internal/service/transaction"
)

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Store is the union of store interfaces the API needs.
// It is a convenience union satisfied by each storage backend.
type Store interface {
	transaction.Repo
	transaction.Writer
	account.Repo
	account.Writer
	category.Repo
	category.Writer
}
