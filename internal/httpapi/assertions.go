package httpapi

import (
	"github.com/financehero/ledger/internal/storage/memory"
	"github.com/financehero/ledger/internal/storage/postgres"
	"github.com/financehero/ledger/internal/storage/sqlite"
)

// Compile-time interface assertions for the storage backends against the
// HTTP API store union.
var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)
