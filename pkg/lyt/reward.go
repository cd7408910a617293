// Package lyt holds the reward distribution scenarios run against yield
// token deployments.
package lyt

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
	"github.com/speedrun-hq/lyt-testing/pkg/contracts"
	"github.com/speedrun-hq/lyt-testing/pkg/helpers"
	"github.com/speedrun-hq/lyt-testing/pkg/testenv"
)

// RunRewardTest runs one reward round for token: every wallet is swept,
// receives a reward from the fund keeper, approves the keeper, and has its
// reward reclaimed with transferFrom. The keeper must end where it started.
func RunRewardTest(t *testing.T, env *testenv.Env, token *contracts.ERC20) {
	t.Helper()

	ctx := t.Context()
	callOpts := &bind.CallOpts{Context: ctx}
	keeper := env.FundKeeper.Address()
	reward := new(big.Int).Mul(big.NewInt(10), env.Consts.OneE18)

	balanceOf := func(t *testing.T, owner common.Address) *big.Int {
		t.Helper()
		balance, err := token.BalanceOf(callOpts, owner)
		require.NoError(t, err)
		return balance
	}

	t.Run("reset wallets", func(t *testing.T) {
		require.NoError(t, helpers.ClearFund(ctx, env, env.Wallets, []common.Address{token.Address()}))
		for _, wallet := range env.Wallets {
			require.Zero(t, balanceOf(t, wallet.From).Sign(), "wallet %s still holds tokens", wallet.From.Hex())
		}
	})

	keeperStart := balanceOf(t, keeper)

	t.Run("distribute rewards", func(t *testing.T) {
		require.NoError(t, helpers.FundToken(ctx, env, env.WalletAddresses(), token.Address(), reward))

		for _, wallet := range env.Wallets {
			require.Zero(t, reward.Cmp(balanceOf(t, wallet.From)), "wallet %s did not receive its reward", wallet.From.Hex())
		}
		distributed := new(big.Int).Mul(reward, big.NewInt(int64(len(env.Wallets))))
		require.Zero(t, new(big.Int).Sub(keeperStart, distributed).Cmp(balanceOf(t, keeper)))
	})

	t.Run("approve keeper", func(t *testing.T) {
		require.NoError(t, helpers.ApproveAll(ctx, env, token.Address(), keeper))

		for _, wallet := range env.Wallets {
			allowance, err := token.Allowance(callOpts, wallet.From, keeper)
			require.NoError(t, err)
			require.Zero(t, env.Consts.Inf.Cmp(allowance))
		}
	})

	t.Run("reclaim rewards", func(t *testing.T) {
		for _, wallet := range env.Wallets {
			reclaimReward(t, ctx, env, token, wallet.From, reward)
		}
		require.Zero(t, keeperStart.Cmp(balanceOf(t, keeper)), "keeper balance not restored")

		// An unlimited allowance is not consumed by transferFrom
		for _, wallet := range env.Wallets {
			allowance, err := token.Allowance(callOpts, wallet.From, keeper)
			require.NoError(t, err)
			require.Zero(t, env.Consts.Inf.Cmp(allowance))
		}
	})

	t.Run("top up gas", func(t *testing.T) {
		if len(env.Wallets) < 2 {
			t.Skip("needs at least two wallets")
		}
		from, to := env.Wallets[0], env.Wallets[1].From
		before, err := env.Chain.BalanceAt(ctx, to)
		require.NoError(t, err)

		amount := big.NewInt(params.Ether)
		require.NoError(t, helpers.TransferNative(ctx, env, from, to, amount))

		after, err := env.Chain.BalanceAt(ctx, to)
		require.NoError(t, err)
		require.Zero(t, new(big.Int).Add(before, amount).Cmp(after))
	})
}

func reclaimReward(t *testing.T, ctx context.Context, env *testenv.Env, token *contracts.ERC20, from common.Address, amount *big.Int) {
	t.Helper()

	auth := env.FundKeeper.Auth
	tx, err := token.TransferFrom(blockchain.TransactOpts(ctx, auth), from, auth.From, amount)
	require.NoError(t, err)
	_, err = env.Chain.Confirm(ctx, blockchain.OpTransferFrom, auth.From, tx)
	require.NoError(t, err)
}
