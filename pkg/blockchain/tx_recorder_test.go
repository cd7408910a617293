package blockchain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0x0987654321098765432109876543210987654321")
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
}

func TestTxRecorder(t *testing.T) {
	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := common.HexToAddress("0x2222222222222222222222222222222222222222")

	t.Run("Track records pending transactions in order", func(t *testing.T) {
		r := NewTxRecorder()
		tx0, tx1, tx2 := newTestTx(0), newTestTx(1), newTestTx(0)

		r.Track("approve", alice, tx0)
		r.Track("approve", alice, tx1)
		r.Track("transfer", bob, tx2)

		assert.Equal(t, 2, r.Count("approve"))
		assert.Equal(t, 1, r.Count("transfer"))
		assert.Equal(t, 3, r.Count(""))
		assert.Equal(t, 3, r.PendingCount())

		records := r.Records("approve")
		require.Len(t, records, 2)
		assert.Equal(t, tx0.Hash(), records[0].Hash)
		assert.Equal(t, tx1.Hash(), records[1].Hash)
		assert.Equal(t, uint64(1), records[1].Nonce)

		assert.Len(t, r.RecordsFrom(alice), 2)
		assert.Len(t, r.RecordsFrom(bob), 1)
	})

	t.Run("Mark confirmed and failed", func(t *testing.T) {
		r := NewTxRecorder()
		ok, bad := newTestTx(0), newTestTx(1)
		r.Track("approve", alice, ok)
		r.Track("approve", alice, bad)

		receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: 46000}
		assert.True(t, r.MarkConfirmed(ok.Hash(), receipt))

		failure := errors.New("boom")
		assert.True(t, r.MarkFailed(bad.Hash(), nil, failure))

		record, found := r.Get(ok.Hash())
		require.True(t, found)
		assert.Equal(t, TxConfirmed, record.Status)
		assert.Equal(t, uint64(46000), record.Receipt.GasUsed)

		record, found = r.Get(bad.Hash())
		require.True(t, found)
		assert.Equal(t, TxFailed, record.Status)
		assert.ErrorIs(t, record.Err, failure)
		assert.Equal(t, 0, r.PendingCount())
	})

	t.Run("Unknown hashes are ignored", func(t *testing.T) {
		r := NewTxRecorder()
		unknown := newTestTx(7).Hash()

		assert.False(t, r.MarkConfirmed(unknown, nil))
		assert.False(t, r.MarkFailed(unknown, nil, nil))
		_, found := r.Get(unknown)
		assert.False(t, found)
	})

	t.Run("Reset", func(t *testing.T) {
		r := NewTxRecorder()
		r.Track("fund", alice, newTestTx(0))
		r.Reset()
		assert.Equal(t, 0, r.Count(""))
	})
}

func TestTransactionStatusString(t *testing.T) {
	assert.Equal(t, "pending", TxPending.String())
	assert.Equal(t, "confirmed", TxConfirmed.String())
	assert.Equal(t, "failed", TxFailed.String())
	assert.Equal(t, "unknown", TransactionStatus(42).String())
}
