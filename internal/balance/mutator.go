// Package balance computes the signed effect of a transaction on its
// account's balance. It is pure: applying a delta is the store's job, so the
// round-trip law (effect followed by its reverse nets to zero) can be checked
// without touching storage.
package balance

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
)

// Delta is a signed balance mutation against a single account, expressed in
// minor units of the account's currency.
type Delta struct {
	AccountID  uuid.UUID
	MinorUnits int64
	Currency   string
}

// Negate returns the additive inverse of d.
func (d Delta) Negate() Delta {
	return Delta{AccountID: d.AccountID, MinorUnits: -d.MinorUnits, Currency: d.Currency}
}

// Effect returns the signed delta a transaction applies to its account:
// INCOME credits, EXPENSE debits. The switch is exhaustive so an unhandled
// type can never fall through with a zero effect.
func Effect(t finance.Transaction) (Delta, error) {
	minor, ok := t.Amount.MinorUnits()
	if !ok || minor < 0 {
		return Delta{}, fmt.Errorf("%w: amount must be a non-negative magnitude", errs.ErrInvalid)
	}
	curr := t.Amount.Curr().Code()
	switch t.Type {
	case finance.TypeIncome:
		return Delta{AccountID: t.AccountID, MinorUnits: minor, Currency: curr}, nil
	case finance.TypeExpense:
		return Delta{AccountID: t.AccountID, MinorUnits: -minor, Currency: curr}, nil
	case finance.TypeTransfer:
		return Delta{}, fmt.Errorf("%w: transfer transactions are not supported", errs.ErrInvalid)
	default:
		return Delta{}, fmt.Errorf("%w: unknown transaction type %q", errs.ErrInvalid, t.Type)
	}
}

// Reverse returns the delta that undoes a prior transaction's effect. It is
// used before re-applying a new effect on update, and on delete.
func Reverse(t finance.Transaction) (Delta, error) {
	d, err := Effect(t)
	if err != nil {
		return Delta{}, err
	}
	return d.Negate(), nil
}
