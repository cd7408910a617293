package blockchain_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
	"github.com/speedrun-hq/lyt-testing/pkg/testutil"
)

// revertingCode is runtime bytecode that unconditionally reverts: PUSH1 0 PUSH1 0 REVERT
var revertingCode = []byte{0x60, 0x00, 0x60, 0x00, 0xfd}

func signedTransfer(t *testing.T, ctx context.Context, chain *blockchain.Chain, from *bind.TransactOpts, to common.Address, value *big.Int, gas uint64) *types.Transaction {
	t.Helper()

	nonce, err := chain.Client.PendingNonceAt(ctx, from.From)
	require.NoError(t, err)
	gasPrice, err := chain.Client.SuggestGasPrice(ctx)
	require.NoError(t, err)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
	})
	signed, err := from.Signer(from.From, tx)
	require.NoError(t, err)
	return signed
}

func TestConfirmNativeTransfer(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	chain, signers := testutil.SetupSimulation(t, 1)
	sender := signers[0]
	recipient := testutil.GenerateAddress()
	amount := big.NewInt(1_000_000)

	tx := signedTransfer(t, ctx, chain, sender, recipient, amount, 21000)
	require.NoError(t, chain.Client.SendTransaction(ctx, tx))

	receipt, err := chain.Confirm(ctx, "send", sender.From, tx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	balance, err := chain.BalanceAt(ctx, recipient)
	require.NoError(t, err)
	testutil.AssertBigIntEqual(t, amount, balance)

	record, found := chain.Recorder().Get(tx.Hash())
	require.True(t, found)
	assert.Equal(t, blockchain.TxConfirmed, record.Status)
	assert.Equal(t, "send", record.Op)
	assert.Equal(t, sender.From, record.From)
}

func TestConfirmReverted(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)

	sender, err := blockchain.GenerateSigner(blockchain.SimulatedChainID)
	require.NoError(t, err)
	reverter := testutil.GenerateAddress()

	backend := simulated.NewBackend(types.GenesisAlloc{
		sender.From: {Balance: new(big.Int).Set(testutil.DefaultPrefund)},
		reverter:    {Code: revertingCode, Balance: big.NewInt(0)},
	})
	chain := blockchain.NewSimulatedChain(backend)
	t.Cleanup(func() { _ = chain.Close() })

	// Explicit gas limit skips estimation so the revert happens on-chain
	tx := signedTransfer(t, ctx, chain, sender, reverter, big.NewInt(0), 100_000)
	require.NoError(t, chain.Client.SendTransaction(ctx, tx))

	receipt, err := chain.Confirm(ctx, "approve", sender.From, tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, blockchain.ErrTxReverted)
	assert.Contains(t, err.Error(), tx.Hash().Hex())
	require.NotNil(t, receipt)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)

	record, found := chain.Recorder().Get(tx.Hash())
	require.True(t, found)
	assert.Equal(t, blockchain.TxFailed, record.Status)
}

func TestConfirmTimeout(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	chain, signers := testutil.SetupSimulation(t, 1)

	// Signed but never sent, so it can never be mined
	tx := signedTransfer(t, ctx, chain, signers[0], testutil.GenerateAddress(), big.NewInt(1), 21000)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	_, err := chain.Confirm(waitCtx, "send", signers[0].From, tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	record, found := chain.Recorder().Get(tx.Hash())
	require.True(t, found)
	assert.Equal(t, blockchain.TxFailed, record.Status)
}

func TestConfirmNilTransaction(t *testing.T) {
	chain, _ := testutil.SetupSimulation(t, 0)

	_, err := chain.Confirm(context.Background(), "send", common.Address{}, nil)
	assert.Error(t, err)
}

func TestNewSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	expected := crypto.PubkeyToAddress(key.PublicKey)
	keyHex := hex.EncodeToString(crypto.FromECDSA(key))

	t.Run("Plain hex", func(t *testing.T) {
		signer, err := blockchain.NewSigner(keyHex, big.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, expected, signer.From)
	})

	t.Run("0x prefixed", func(t *testing.T) {
		signer, err := blockchain.NewSigner("0x"+keyHex, big.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, expected, signer.From)
	})

	t.Run("Invalid key", func(t *testing.T) {
		_, err := blockchain.NewSigner("not-a-key", big.NewInt(1))
		assert.Error(t, err)
	})
}

func TestTransactOptsCopy(t *testing.T) {
	signer, err := blockchain.GenerateSigner(big.NewInt(1))
	require.NoError(t, err)

	opts := blockchain.TransactOpts(context.Background(), signer)
	opts.Value = big.NewInt(5)

	assert.Nil(t, signer.Value, "the shared signer must not be mutated")
	assert.NotNil(t, opts.Context)
	assert.Equal(t, signer.From, opts.From)
}
