package helpers_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
	"github.com/speedrun-hq/lyt-testing/pkg/contracts"
	"github.com/speedrun-hq/lyt-testing/pkg/helpers"
	"github.com/speedrun-hq/lyt-testing/pkg/metrics"
	"github.com/speedrun-hq/lyt-testing/pkg/testenv"
	"github.com/speedrun-hq/lyt-testing/pkg/testutil"
)

func tokenBalance(t *testing.T, ctx context.Context, token *contracts.ERC20, owner common.Address) *big.Int {
	t.Helper()

	balance, err := token.BalanceOf(&bind.CallOpts{Context: ctx}, owner)
	require.NoError(t, err)
	return balance
}

func nativeBalance(t *testing.T, ctx context.Context, env *testenv.Env, owner common.Address) *big.Int {
	t.Helper()

	balance, err := env.Chain.BalanceAt(ctx, owner)
	require.NoError(t, err)
	return balance
}

func TestApproveAll(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	require.Len(t, env.Wallets, 3)

	token := env.QiLyt
	spender := testutil.GenerateAddress()
	confirmedBefore := promtestutil.ToFloat64(metrics.TxConfirmed.WithLabelValues(blockchain.OpApprove))

	require.NoError(t, helpers.ApproveAll(ctx, env, token.Address(), spender))

	for _, wallet := range env.Wallets {
		allowance, err := token.Allowance(&bind.CallOpts{Context: ctx}, wallet.From, spender)
		require.NoError(t, err)
		testutil.AssertBigIntEqual(t, env.Consts.Inf, allowance, "allowance of %s", wallet.From.Hex())
	}

	// One approval per wallet, submitted in wallet order
	records := env.Recorder().Records(blockchain.OpApprove)
	require.Len(t, records, 3)
	for i, record := range records {
		assert.Equal(t, env.Wallets[i].From, record.From)
		assert.Equal(t, blockchain.TxConfirmed, record.Status)
	}

	confirmedAfter := promtestutil.ToFloat64(metrics.TxConfirmed.WithLabelValues(blockchain.OpApprove))
	assert.Equal(t, float64(3), confirmedAfter-confirmedBefore)
}

func TestApproveAllWithoutContract(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)

	// No contract lives at a random address, so the first approval fails
	err := helpers.ApproveAll(ctx, env, testutil.GenerateAddress(), testutil.GenerateAddress())
	require.Error(t, err)
	assert.ErrorIs(t, err, bind.ErrNoCode)
	assert.Equal(t, 0, env.Recorder().Count(blockchain.OpApprove))
}

func TestApproveAllStopsAtFirstFailure(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	token := env.QiLyt
	spender := testutil.GenerateAddress()

	// The second wallet has no gas, so its approval cannot be submitted
	broke, err := blockchain.GenerateSigner(env.Chain.ChainID)
	require.NoError(t, err)
	env.Wallets = []*bind.TransactOpts{env.Wallets[0], broke, env.Wallets[2]}

	err = helpers.ApproveAll(ctx, env, token.Address(), spender)
	require.Error(t, err)

	allowanceOf := func(owner common.Address) *big.Int {
		allowance, err := token.Allowance(&bind.CallOpts{Context: ctx}, owner, spender)
		require.NoError(t, err)
		return allowance
	}
	testutil.AssertBigIntEqual(t, env.Consts.Inf, allowanceOf(env.Wallets[0].From))
	testutil.AssertBigIntEqual(t, big.NewInt(0), allowanceOf(env.Wallets[1].From))
	testutil.AssertBigIntEqual(t, big.NewInt(0), allowanceOf(env.Wallets[2].From), "approvals after the failure must not be sent")

	records := env.Recorder().Records(blockchain.OpApprove)
	require.Len(t, records, 1)
	assert.Equal(t, env.Wallets[0].From, records[0].From)
}

func TestClearFund(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	token := env.QiLyt
	keeper := env.FundKeeper.Address()

	require.NoError(t, helpers.FundToken(ctx, env, env.WalletAddresses(), token.Address(), env.Consts.DefaultFund))
	// Give the first wallet a different balance than the others
	extra := big.NewInt(12345)
	require.NoError(t, helpers.FundToken(ctx, env, env.WalletAddresses()[:1], token.Address(), extra))

	walletTotal := big.NewInt(0)
	for _, wallet := range env.Wallets {
		walletTotal.Add(walletTotal, tokenBalance(t, ctx, token, wallet.From))
	}
	keeperBefore := tokenBalance(t, ctx, token, keeper)

	require.NoError(t, helpers.ClearFund(ctx, env, env.Wallets, []common.Address{token.Address()}))

	for _, wallet := range env.Wallets {
		testutil.AssertBigIntEqual(t, big.NewInt(0), tokenBalance(t, ctx, token, wallet.From))
	}
	testutil.AssertBigIntEqual(t, new(big.Int).Add(keeperBefore, walletTotal), tokenBalance(t, ctx, token, keeper))
	assert.Equal(t, 3, env.Recorder().Count(blockchain.OpClearFund))
}

func TestClearFundZeroBalance(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	token := env.QiLyt
	keeper := env.FundKeeper.Address()
	keeperBefore := tokenBalance(t, ctx, token, keeper)

	require.NoError(t, helpers.ClearFund(ctx, env, env.Wallets, []common.Address{token.Address()}))

	for _, wallet := range env.Wallets {
		testutil.AssertBigIntEqual(t, big.NewInt(0), tokenBalance(t, ctx, token, wallet.From))
	}
	testutil.AssertBigIntEqual(t, keeperBefore, tokenBalance(t, ctx, token, keeper))

	// A zero balance still costs a transaction
	assert.Equal(t, 3, env.Recorder().Count(blockchain.OpClearFund))
}

func TestClearFundMultipleTokens(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)

	secondAddress, err := testenv.DeployToken(ctx, env.Chain, env.FundKeeper.Auth, env.Consts.DefaultFund)
	require.NoError(t, err)
	second, err := contracts.NewERC20(secondAddress, env.Chain.Client)
	require.NoError(t, err)

	amount := big.NewInt(500)
	tokens := []common.Address{env.QiLyt.Address(), secondAddress}
	for _, token := range tokens {
		require.NoError(t, helpers.FundToken(ctx, env, env.WalletAddresses(), token, amount))
	}

	signers := env.Wallets[:2]
	require.NoError(t, helpers.ClearFund(ctx, env, signers, tokens))

	for _, signer := range signers {
		testutil.AssertBigIntEqual(t, big.NewInt(0), tokenBalance(t, ctx, env.QiLyt, signer.From))
		testutil.AssertBigIntEqual(t, big.NewInt(0), tokenBalance(t, ctx, second, signer.From))
	}
	// The third wallet was not part of the sweep
	testutil.AssertBigIntEqual(t, amount, tokenBalance(t, ctx, env.QiLyt, env.Wallets[2].From))

	// Signers outer, tokens inner
	records := env.Recorder().Records(blockchain.OpClearFund)
	require.Len(t, records, 4)
	assert.Equal(t, signers[0].From, records[0].From)
	assert.Equal(t, signers[0].From, records[1].From)
	assert.Equal(t, signers[1].From, records[2].From)
	assert.Equal(t, signers[1].From, records[3].From)
}

func TestClearFundStopsAtFirstFailure(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	token := env.QiLyt
	keeper := env.FundKeeper.Address()
	amount := big.NewInt(1000)

	require.NoError(t, helpers.FundToken(ctx, env, env.WalletAddresses(), token.Address(), amount))
	keeperBefore := tokenBalance(t, ctx, token, keeper)

	// A signer without gas cannot send even a zero transfer
	broke, err := blockchain.GenerateSigner(env.Chain.ChainID)
	require.NoError(t, err)
	signers := []*bind.TransactOpts{env.Wallets[0], broke, env.Wallets[2]}

	err = helpers.ClearFund(ctx, env, signers, []common.Address{token.Address()})
	require.Error(t, err)

	// The sweep before the failure stays in place, the one after never happens
	testutil.AssertBigIntEqual(t, big.NewInt(0), tokenBalance(t, ctx, token, env.Wallets[0].From))
	testutil.AssertBigIntEqual(t, amount, tokenBalance(t, ctx, token, env.Wallets[2].From))
	testutil.AssertBigIntEqual(t, new(big.Int).Add(keeperBefore, amount), tokenBalance(t, ctx, token, keeper))

	records := env.Recorder().Records(blockchain.OpClearFund)
	require.Len(t, records, 1)
	assert.Equal(t, env.Wallets[0].From, records[0].From)
}

func TestFundToken(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	token := env.QiLyt
	keeper := env.FundKeeper.Address()
	amount := env.Consts.DefaultFund
	recipients := append(env.WalletAddresses(), testutil.GenerateAddress())

	keeperBefore := tokenBalance(t, ctx, token, keeper)

	require.NoError(t, helpers.FundToken(ctx, env, recipients, token.Address(), amount))

	for _, recipient := range recipients {
		testutil.AssertBigIntEqual(t, amount, tokenBalance(t, ctx, token, recipient))
	}
	spent := new(big.Int).Mul(amount, big.NewInt(int64(len(recipients))))
	testutil.AssertBigIntEqual(t, new(big.Int).Sub(keeperBefore, spent), tokenBalance(t, ctx, token, keeper))
	assert.Equal(t, len(recipients), env.Recorder().Count(blockchain.OpFund))
}

func TestFundTokenInsufficientBalance(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	token := env.QiLyt
	keeper := env.FundKeeper.Address()
	keeperBefore := tokenBalance(t, ctx, token, keeper)

	// The keeper holds the whole supply, three times that is out of reach
	err := helpers.FundToken(ctx, env, env.WalletAddresses(), token.Address(), keeperBefore)
	require.Error(t, err)
	assert.ErrorIs(t, err, testenv.ErrInsufficientBalance)

	testutil.AssertBigIntEqual(t, keeperBefore, tokenBalance(t, ctx, token, keeper))
	for _, wallet := range env.Wallets {
		testutil.AssertBigIntEqual(t, big.NewInt(0), tokenBalance(t, ctx, token, wallet.From))
	}
	assert.Equal(t, 0, env.Recorder().Count(blockchain.OpFund))
}

func TestTransferNative(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)
	from := env.Wallets[0]
	to := testutil.GenerateAddress()
	amount := big.NewInt(params.Ether)

	fromBefore := nativeBalance(t, ctx, env, from.From)

	require.NoError(t, helpers.TransferNative(ctx, env, from, to, amount))

	records := env.Recorder().Records(blockchain.OpTransferNative)
	require.Len(t, records, 1)
	receipt := records[0].Receipt
	require.NotNil(t, receipt)
	fee := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)

	testutil.AssertBigIntEqual(t, amount, nativeBalance(t, ctx, env, to))
	expected := new(big.Int).Sub(fromBefore, new(big.Int).Add(amount, fee))
	testutil.AssertBigIntEqual(t, expected, nativeBalance(t, ctx, env, from.From))

	assert.Nil(t, from.Value, "the wallet signer must not keep the transfer value")
}

func TestTransferNativeInsufficientFunds(t *testing.T) {
	ctx := testutil.SetupTestWithTimeout(t)
	env := testenv.Build(t)

	broke, err := blockchain.GenerateSigner(env.Chain.ChainID)
	require.NoError(t, err)
	to := env.Wallets[0].From
	toBefore := nativeBalance(t, ctx, env, to)

	err = helpers.TransferNative(ctx, env, broke, to, big.NewInt(params.Ether))
	require.Error(t, err)

	testutil.AssertBigIntEqual(t, toBefore, nativeBalance(t, ctx, env, to))
	testutil.AssertBigIntEqual(t, big.NewInt(0), nativeBalance(t, ctx, env, broke.From))
	assert.Equal(t, 0, env.Recorder().Count(blockchain.OpTransferNative))
}
