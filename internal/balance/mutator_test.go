package balance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
)

func tx(t *testing.T, typ finance.TransactionType, minor int64) finance.Transaction {
	t.Helper()
	amt, err := finance.AmountFromMinor("BRL", minor)
	require.NoError(t, err)
	return finance.Transaction{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		AccountID: uuid.New(),
		Amount:    amt,
		Type:      typ,
	}
}

func TestEffect(t *testing.T) {
	tests := []struct {
		name      string
		typ       finance.TransactionType
		minor     int64
		wantMinor int64
	}{
		{"income credits", finance.TypeIncome, 50000, 50000},
		{"expense debits", finance.TypeExpense, 20000, -20000},
		{"zero income", finance.TypeIncome, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trx := tx(t, tt.typ, tt.minor)
			d, err := Effect(trx)
			require.NoError(t, err)
			assert.Equal(t, trx.AccountID, d.AccountID)
			assert.Equal(t, tt.wantMinor, d.MinorUnits)
			assert.Equal(t, "BRL", d.Currency)
		})
	}
}

func TestEffect_RejectsTransfer(t *testing.T) {
	_, err := Effect(tx(t, finance.TypeTransfer, 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestEffect_RejectsUnknownType(t *testing.T) {
	_, err := Effect(tx(t, finance.TransactionType("REFUND"), 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestReverse_RoundTripNetsToZero(t *testing.T) {
	for _, typ := range []finance.TransactionType{finance.TypeIncome, finance.TypeExpense} {
		trx := tx(t, typ, 12345)
		effect, err := Effect(trx)
		require.NoError(t, err)
		reversal, err := Reverse(trx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), effect.MinorUnits+reversal.MinorUnits)
		assert.Equal(t, effect.AccountID, reversal.AccountID)
	}
}

func TestNegate(t *testing.T) {
	d := Delta{AccountID: uuid.New(), MinorUnits: -300, Currency: "BRL"}
	n := d.Negate()
	assert.Equal(t, int64(300), n.MinorUnits)
	assert.Equal(t, d, n.Negate())
}
