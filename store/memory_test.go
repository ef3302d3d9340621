package store

import (
	"errors"
	"testing"

	"procur/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactCommitsOnSuccess(t *testing.T) {
	mem := NewMemory()

	err := mem.Transact(func(tx Store) error {
		return tx.SaveBalance(&models.SellerBalance{SellerOrgID: 1, AvailableAmount: 100})
	})
	require.NoError(t, err)

	bal, err := mem.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.AvailableAmount)
}

func TestTransactRollsBackOnError(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.SaveBalance(&models.SellerBalance{SellerOrgID: 1, AvailableAmount: 100}))

	boom := errors.New("boom")
	err := mem.Transact(func(tx Store) error {
		bal, err := tx.GetBalanceForUpdate(1)
		if err != nil {
			return err
		}
		bal.AvailableAmount = 0
		bal.PendingAmount = 100
		if err := tx.SaveBalance(bal); err != nil {
			return err
		}
		if err := tx.CreateBatchItem(&models.PayoutBatchItem{BatchID: 9, SellerOrgID: 1, Amount: 100}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither the balance move nor the item may survive.
	bal, err := mem.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.AvailableAmount)
	assert.Equal(t, int64(0), bal.PendingAmount)

	items, err := mem.ListBatchItems(9)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNestedTransactSharesScope(t *testing.T) {
	mem := NewMemory()

	err := mem.Transact(func(tx Store) error {
		if err := tx.SaveBalance(&models.SellerBalance{SellerOrgID: 2, AvailableAmount: 50}); err != nil {
			return err
		}
		return tx.Transact(func(inner Store) error {
			bal, err := inner.GetBalance(2)
			if err != nil {
				return err
			}
			bal.AvailableAmount += 25
			return inner.SaveBalance(bal)
		})
	})
	require.NoError(t, err)

	bal, err := mem.GetBalance(2)
	require.NoError(t, err)
	assert.Equal(t, int64(75), bal.AvailableAmount)
}

func TestNextSequenceMonotonic(t *testing.T) {
	mem := NewMemory()

	a, err := mem.NextSequence("test")
	require.NoError(t, err)
	b, err := mem.NextSequence("test")
	require.NoError(t, err)
	assert.Equal(t, a+1, b)

	other, err := mem.NextSequence("other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}
